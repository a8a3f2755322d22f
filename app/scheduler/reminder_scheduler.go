// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/ixianhq/ixian-server/app/middleware"
	"github.com/ixianhq/ixian-server/app/services"
	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	"github.com/ixianhq/ixian-server/utils"
)

// ReminderScheduler runs the two background loops of the sync server: the
// reminder poll, which notifies about tasks coming due, and the retention
// sweep, which hard-deletes soft-deleted records past the retention window
// and prunes expired tombstones.
type ReminderScheduler struct {
	taskRepo      repository.TaskRepository
	tagRepo       repository.TagRepository
	reminderRepo  repository.ReminderLogRepository
	tombstoneRepo repository.TombstoneRepository
	notifier      services.Notifier
	logger        *log.Logger

	db *gorm.DB

	reminderInterval time.Duration
	reminderLead     time.Duration
	sweepInterval    time.Duration
	retentionWindow  time.Duration
}

func NewReminderScheduler(
	taskRepo repository.TaskRepository,
	tagRepo repository.TagRepository,
	reminderRepo repository.ReminderLogRepository,
	tombstoneRepo repository.TombstoneRepository,
	notifier services.Notifier,
	db *gorm.DB,
	reminderInterval, reminderLead, sweepInterval, retentionWindow time.Duration,
) *ReminderScheduler {
	if reminderInterval <= 0 {
		reminderInterval = utils.DefaultReminderInterval
	}
	if reminderLead <= 0 {
		reminderLead = utils.ReminderLead
	}
	if sweepInterval <= 0 {
		sweepInterval = utils.DefaultSweepInterval
	}
	if retentionWindow <= 0 {
		retentionWindow = utils.DefaultRetentionWindow
	}

	s := &ReminderScheduler{
		taskRepo:         taskRepo,
		tagRepo:          tagRepo,
		reminderRepo:     reminderRepo,
		tombstoneRepo:    tombstoneRepo,
		notifier:         notifier,
		db:               db,
		reminderInterval: reminderInterval,
		reminderLead:     reminderLead,
		sweepInterval:    sweepInterval,
		retentionWindow:  retentionWindow,
	}

	if err := s.initSchedulerLogger(); err != nil {
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a
// size-rotated file under data/ (or /data for containerized environments)
func (s *ReminderScheduler) initSchedulerLogger() error {
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "scheduler.log"),
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		mw := io.MultiWriter(os.Stdout, rotator)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches both loops in background goroutines and returns a stop function
func (s *ReminderScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.reminderInterval)
		defer ticker.Stop()

		s.runReminders(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runReminders(ctx)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		s.runRetentionSweep(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runRetentionSweep(ctx)
			}
		}
	}()

	return cancel
}

// runReminders notifies about live tasks whose due time falls inside the
// reminder window. The durable reminder log makes delivery at-most-once per
// task even across restarts.
func (s *ReminderScheduler) runReminders(ctx context.Context) {
	now := time.Now()
	target := now.Add(s.reminderLead)
	start := utils.TimeToMillis(target.Add(-utils.ReminderSlack))
	end := utils.TimeToMillis(target.Add(utils.ReminderSlack))

	due, err := s.taskRepo.ListDueBetween(ctx, start, end)
	if err != nil {
		s.logger.Printf("scheduler: list due tasks failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, task := range due {
		sent, err := s.reminderRepo.WasSent(ctx, task.ID)
		if err != nil {
			s.logger.Printf("scheduler: reminder lookup failed for task %s: %v", task.ID, err)
			continue
		}
		if sent {
			continue
		}

		n := &services.Notification{
			Title:    "Task due soon",
			Message:  fmt.Sprintf("%q is due at %s", task.Text, utils.MillisToTime(*task.DueAt).Local().Format("15:04")),
			Priority: "high",
			Tags:     []string{"alarm_clock"},
		}
		if task.Important {
			n.Priority = "urgent"
		}

		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.Printf("scheduler: reminder delivery failed for task %s: %v", task.ID, err)
			middleware.RecordReminderResult("error")
			continue
		}

		if err := s.reminderRepo.MarkSent(ctx, task.ID, utils.NowMillis()); err != nil {
			s.logger.Printf("scheduler: reminder bookkeeping failed for task %s: %v", task.ID, err)
		}
		middleware.RecordReminderResult("sent")
		s.logger.Printf("scheduler: reminder sent for task %s", task.ID)
	}
}

// runRetentionSweep hard-deletes records that have been soft-deleted longer
// than the retention window, writing a tombstone for each in the same
// transaction, then prunes tombstones and reminder log rows past the window.
func (s *ReminderScheduler) runRetentionSweep(ctx context.Context) {
	cutoff := utils.NowMillis() - s.retentionWindow.Milliseconds()

	tasks, err := s.taskRepo.ListDeletedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Printf("scheduler: list expired tasks failed: %v", err)
		return
	}
	for _, task := range tasks {
		if err := s.purge(ctx, models.EntityKindTask, task.ID, func(txCtx context.Context) (bool, error) {
			return s.taskRepo.HardDelete(txCtx, task.ID)
		}); err != nil {
			s.logger.Printf("scheduler: purge task %s failed: %v", task.ID, err)
		}
	}

	tags, err := s.tagRepo.ListDeletedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Printf("scheduler: list expired tags failed: %v", err)
		return
	}
	for _, tag := range tags {
		if err := s.purge(ctx, models.EntityKindTag, tag.ID, func(txCtx context.Context) (bool, error) {
			return s.tagRepo.HardDelete(txCtx, tag.ID)
		}); err != nil {
			s.logger.Printf("scheduler: purge tag %s failed: %v", tag.ID, err)
		}
	}

	if len(tasks) > 0 || len(tags) > 0 {
		s.logger.Printf("scheduler: retention sweep purged %d tasks, %d tags", len(tasks), len(tags))
	}

	// Tombstones older than the window belong to clients that are too far
	// behind to resume incrementally anyway
	if err := s.tombstoneRepo.PruneBefore(ctx, cutoff); err != nil {
		s.logger.Printf("scheduler: tombstone prune failed: %v", err)
	}
	if err := s.reminderRepo.PruneBefore(ctx, cutoff); err != nil {
		s.logger.Printf("scheduler: reminder log prune failed: %v", err)
	}
}

// purge removes one record and records its tombstone atomically
func (s *ReminderScheduler) purge(ctx context.Context, entityKind, id string, hardDelete func(context.Context) (bool, error)) error {
	now := utils.NowMillis()
	return repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		removed, err := hardDelete(txCtx)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		return s.tombstoneRepo.Record(txCtx, entityKind, id, now)
	})
}

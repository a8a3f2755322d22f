package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	testingutil "github.com/ixianhq/ixian-server/testing"
	"github.com/ixianhq/ixian-server/utils"
)

func TestTaskRepositoryUpsert(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		task := &models.Task{
			ID:         uuid.NewString(),
			Text:       "write report",
			Tag:        "Work",
			Recurrence: models.RecurrenceNone,
			CreatedAt:  1000,
			UpdatedAt:  1000,
		}

		t.Run("insert when absent", func(t *testing.T) {
			require.NoError(t, repo.Upsert(ctx, task))

			got, found, err := repo.ByRecordID(ctx, task.ID)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "write report", got.Text)
			assert.Equal(t, int64(1000), got.UpdatedAt)
		})

		t.Run("overwrite all fields when present", func(t *testing.T) {
			task.Text = "write report v2"
			task.Completed = true
			task.UpdatedAt = 2000
			require.NoError(t, repo.Upsert(ctx, task))

			got, found, err := repo.ByRecordID(ctx, task.ID)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "write report v2", got.Text)
			assert.True(t, got.Completed)
			assert.Equal(t, int64(2000), got.UpdatedAt)
		})

		t.Run("missing id reports not found without error", func(t *testing.T) {
			_, found, err := repo.ByRecordID(ctx, uuid.NewString())
			require.NoError(t, err)
			assert.False(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepositoryListModifiedSince(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		old, err := tdb.CreateTestTask("old", 1000)
		require.NoError(t, err)
		fresh, err := tdb.CreateTestTask("fresh", 3000)
		require.NoError(t, err)
		gone, err := tdb.CreateTestTask("gone", 1000)
		require.NoError(t, err)
		require.NoError(t, tdb.SoftDeleteTestTask(gone, 4000))

		t.Run("strictly greater than cursor", func(t *testing.T) {
			rows, err := repo.ListModifiedSince(ctx, 1000)
			require.NoError(t, err)

			ids := make(map[string]bool, len(rows))
			for _, r := range rows {
				ids[r.ID] = true
			}
			assert.False(t, ids[old.ID])
			assert.True(t, ids[fresh.ID])
		})

		t.Run("soft deleted rows are included", func(t *testing.T) {
			rows, err := repo.ListModifiedSince(ctx, 3500)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, gone.ID, rows[0].ID)
			require.NotNil(t, rows[0].DeletedAt)
		})

		t.Run("minus one cursor yields everything", func(t *testing.T) {
			rows, err := repo.ListModifiedSince(ctx, -1)
			require.NoError(t, err)
			assert.Len(t, rows, 3)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepositorySoftDelete(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		task, err := tdb.CreateTestTask("doomed", 1000)
		require.NoError(t, err)

		t.Run("stamps deleted_at and bumps updated_at", func(t *testing.T) {
			ok, err := repo.SoftDelete(ctx, task.ID, 5000)
			require.NoError(t, err)
			assert.True(t, ok)

			got, found, err := repo.ByRecordID(ctx, task.ID)
			require.NoError(t, err)
			require.True(t, found)
			require.NotNil(t, got.DeletedAt)
			assert.Equal(t, int64(5000), *got.DeletedAt)
			assert.Equal(t, int64(5000), got.UpdatedAt)
		})

		t.Run("unknown id reports false", func(t *testing.T) {
			ok, err := repo.SoftDelete(ctx, uuid.NewString(), 5000)
			require.NoError(t, err)
			assert.False(t, ok)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepositoryHardDeleteWithTombstone(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		tombstoneRepo := repository.NewTombstoneRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		task, err := tdb.CreateTestTask("purge me", 1000)
		require.NoError(t, err)
		require.NoError(t, tdb.SoftDeleteTestTask(task, 2000))

		err = repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			ok, err := taskRepo.HardDelete(txCtx, task.ID)
			require.NoError(t, err)
			require.True(t, ok)
			return tombstoneRepo.Record(txCtx, models.EntityKindTask, task.ID, 2000)
		})
		require.NoError(t, err)

		_, found, err := taskRepo.ByRecordID(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, found)

		t.Run("tombstone visible after older cursor", func(t *testing.T) {
			ids, err := taskRepo.ListTombstonesSince(ctx, 1000)
			require.NoError(t, err)
			assert.Contains(t, ids, task.ID)
		})

		t.Run("tombstone hidden from newer cursor", func(t *testing.T) {
			ids, err := taskRepo.ListTombstonesSince(ctx, 2000)
			require.NoError(t, err)
			assert.NotContains(t, ids, task.ID)
		})

		t.Run("partitioned by entity kind", func(t *testing.T) {
			tagRepo := repository.NewTagRepository(tdb.DB)
			ids, err := tagRepo.ListTombstonesSince(ctx, 0)
			require.NoError(t, err)
			assert.NotContains(t, ids, task.ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepositoryListDueBetween(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		due, err := tdb.CreateTestTask("in window", 1000)
		require.NoError(t, err)
		due.DueAt = utils.ToPtr(int64(5000))
		require.NoError(t, tdb.DB.Save(due).Error)

		early, err := tdb.CreateTestTask("too early", 1000)
		require.NoError(t, err)
		early.DueAt = utils.ToPtr(int64(100))
		require.NoError(t, tdb.DB.Save(early).Error)

		done, err := tdb.CreateTestTask("already done", 1000)
		require.NoError(t, err)
		done.DueAt = utils.ToPtr(int64(5000))
		done.Completed = true
		require.NoError(t, tdb.DB.Save(done).Error)

		deleted, err := tdb.CreateTestTask("deleted", 1000)
		require.NoError(t, err)
		deleted.DueAt = utils.ToPtr(int64(5000))
		require.NoError(t, tdb.DB.Save(deleted).Error)
		require.NoError(t, tdb.SoftDeleteTestTask(deleted, 2000))

		rows, err := repo.ListDueBetween(ctx, 4000, 6000)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, due.ID, rows[0].ID)

		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepositoryListDeletedBefore(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		stale, err := tdb.CreateTestTask("stale", 1000)
		require.NoError(t, err)
		require.NoError(t, tdb.SoftDeleteTestTask(stale, 2000))

		recent, err := tdb.CreateTestTask("recent", 1000)
		require.NoError(t, err)
		require.NoError(t, tdb.SoftDeleteTestTask(recent, 9000))

		_, err = tdb.CreateTestTask("live", 1000)
		require.NoError(t, err)

		rows, err := repo.ListDeletedBefore(ctx, 5000)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, stale.ID, rows[0].ID)

		return nil
	})
	require.NoError(t, err)
}

func TestTagRepositoryLiveByName(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTagRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("finds seeded default", func(t *testing.T) {
			tag, err := repo.LiveByName(ctx, "Work")
			require.NoError(t, err)
			require.NotNil(t, tag)
			assert.True(t, tag.IsDefault)
			assert.Equal(t, "#a855f7", tag.Color)
		})

		t.Run("match is case sensitive", func(t *testing.T) {
			tag, err := repo.LiveByName(ctx, "work")
			require.NoError(t, err)
			assert.Nil(t, tag)
		})

		t.Run("deleted holder frees the name", func(t *testing.T) {
			chores, err := tdb.CreateTestTag("Chores", "#ff0000")
			require.NoError(t, err)

			ok, err := repo.SoftDelete(ctx, chores.ID, utils.NowMillis())
			require.NoError(t, err)
			require.True(t, ok)

			tag, err := repo.LiveByName(ctx, "Chores")
			require.NoError(t, err)
			assert.Nil(t, tag)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTagRepositoryListLive(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTagRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		rows, err := repo.ListLive(ctx)
		require.NoError(t, err)
		require.Len(t, rows, len(testingutil.DefaultTagNames()))

		names := make([]string, 0, len(rows))
		for _, r := range rows {
			names = append(names, r.Name)
		}
		for _, want := range testingutil.DefaultTagNames() {
			assert.Contains(t, names, want)
		}

		t.Run("excludes soft deleted", func(t *testing.T) {
			extra, err := tdb.CreateTestTag("Extra", "#ff0000")
			require.NoError(t, err)
			_, err = repo.SoftDelete(ctx, extra.ID, utils.NowMillis())
			require.NoError(t, err)

			rows, err := repo.ListLive(ctx)
			require.NoError(t, err)
			for _, r := range rows {
				assert.NotEqual(t, extra.ID, r.ID)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTagRepositoryListSince(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTagRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		extra, err := tdb.CreateTestTag("Extra", "#ff0000")
		require.NoError(t, err)
		deletedAt := extra.UpdatedAt + 1000
		_, err = repo.SoftDelete(ctx, extra.ID, deletedAt)
		require.NoError(t, err)

		// Deleted tags must still travel in the delta so clients converge
		rows, err := repo.ListSince(ctx, deletedAt-1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, extra.ID, rows[0].ID)
		require.NotNil(t, rows[0].DeletedAt)

		return nil
	})
	require.NoError(t, err)
}

func TestReminderLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewReminderLogRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		taskID := uuid.NewString()

		t.Run("mark and check", func(t *testing.T) {
			sent, err := repo.WasSent(ctx, taskID)
			require.NoError(t, err)
			assert.False(t, sent)

			require.NoError(t, repo.MarkSent(ctx, taskID, 1000))

			sent, err = repo.WasSent(ctx, taskID)
			require.NoError(t, err)
			assert.True(t, sent)
		})

		t.Run("duplicate mark is a no-op", func(t *testing.T) {
			require.NoError(t, repo.MarkSent(ctx, taskID, 2000))
		})

		t.Run("prune removes old entries", func(t *testing.T) {
			require.NoError(t, repo.PruneBefore(ctx, 5000))
			sent, err := repo.WasSent(ctx, taskID)
			require.NoError(t, err)
			assert.False(t, sent)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		repo := repository.NewTaskRepository(tdb.DB)
		ctx := testingutil.CreateTestContext()

		task := &models.Task{
			ID:         uuid.NewString(),
			Text:       "never persisted",
			Tag:        "General",
			Recurrence: models.RecurrenceNone,
			CreatedAt:  1000,
			UpdatedAt:  1000,
		}

		txErr := repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			if err := repo.Upsert(txCtx, task); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, txErr)

		_, found, err := repo.ByRecordID(ctx, task.ID)
		require.NoError(t, err)
		assert.False(t, found)

		return nil
	})
	require.NoError(t, err)
}

package businessflow_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	businessflow "github.com/ixianhq/ixian-server/business_flow"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	testingutil "github.com/ixianhq/ixian-server/testing"
	"github.com/ixianhq/ixian-server/utils"
)

func taskRecord(text string, updatedAt int64) dto.TaskSyncRecord {
	return dto.TaskSyncRecord{
		ID:         uuid.NewString(),
		Text:       text,
		Tag:        "General",
		Recurrence: models.RecurrenceNone,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
}

func tagRecord(name, color string, updatedAt int64) dto.TagSyncRecord {
	return dto.TagSyncRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func syncTasks(t *testing.T, flow businessflow.TaskSyncFlow, records []dto.TaskSyncRecord, cursor *int64) (*dto.TaskSyncResponse, *businessflow.SyncStats) {
	t.Helper()
	resp, stats, err := flow.Sync(context.Background(), &dto.TaskSyncRequest{Records: records, Cursor: cursor}, nil)
	require.NoError(t, err)
	return resp, stats
}

func TestTaskSyncFlowTwoDeviceConvergence(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		flow := businessflow.NewTaskSyncFlow(taskRepo, tdb.DB)

		// Device A uploads a new task stamped with its wall clock
		created := taskRecord("pay rent", utils.NowMillis())
		respA, statsA := syncTasks(t, flow, []dto.TaskSyncRecord{created}, nil)
		assert.Equal(t, 1, statsA.Accepted)
		assert.Empty(t, respA.Records)
		cursorA := respA.ServerTime

		// Device B syncs for the first time and receives the full dataset
		respB, _ := syncTasks(t, flow, nil, nil)
		require.Len(t, respB.Records, 1)
		assert.Equal(t, created.ID, respB.Records[0].ID)
		assert.Empty(t, respB.HardDeletedIDs)
		cursorB := respB.ServerTime

		// Device B edits the task with a later client timestamp
		edited := created
		edited.Text = "pay rent and utilities"
		edited.UpdatedAt = cursorA + 1000
		respB2, statsB2 := syncTasks(t, flow, []dto.TaskSyncRecord{edited}, &cursorB)
		assert.Equal(t, 1, statsB2.Accepted)
		assert.Empty(t, respB2.Records)

		// Device A pulls from its cursor and sees B's edit
		respA2, _ := syncTasks(t, flow, nil, &cursorA)
		require.Len(t, respA2.Records, 1)
		assert.Equal(t, "pay rent and utilities", respA2.Records[0].Text)

		return nil
	})
	require.NoError(t, err)
}

func TestTaskSyncFlowStaleWriteLoses(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		flow := businessflow.NewTaskSyncFlow(taskRepo, tdb.DB)
		ctx := testingutil.CreateTestContext()

		current := taskRecord("current", 5000)
		syncTasks(t, flow, []dto.TaskSyncRecord{current}, nil)

		stale := current
		stale.Text = "from a device that was offline"
		stale.UpdatedAt = 3000

		cursor := int64(0)
		resp, stats := syncTasks(t, flow, []dto.TaskSyncRecord{stale}, &cursor)
		assert.Equal(t, 1, stats.Skipped)

		// The server copy comes back so the stale device converges
		require.Len(t, resp.Records, 1)
		assert.Equal(t, "current", resp.Records[0].Text)

		got, found, err := taskRepo.ByRecordID(ctx, current.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "current", got.Text)
		assert.Equal(t, int64(5000), got.UpdatedAt)

		return nil
	})
	require.NoError(t, err)
}

func TestTaskSyncFlowSoftDeletePropagates(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		flow := businessflow.NewTaskSyncFlow(taskRepo, tdb.DB)

		created := taskRecord("temporary", 1000)
		resp, _ := syncTasks(t, flow, []dto.TaskSyncRecord{created}, nil)
		cursor := resp.ServerTime

		deletion := created
		deletion.UpdatedAt = 2000
		deletion.DeletedAt = utils.ToPtr(int64(2000))
		_, stats := syncTasks(t, flow, []dto.TaskSyncRecord{deletion}, &cursor)
		assert.Equal(t, 1, stats.Accepted)

		// Another device pulling from an older cursor receives the tombstoned
		// record as an ordinary update
		old := int64(1500)
		respOther, _ := syncTasks(t, flow, nil, &old)
		require.Len(t, respOther.Records, 1)
		require.NotNil(t, respOther.Records[0].DeletedAt)
		assert.Equal(t, int64(2000), *respOther.Records[0].DeletedAt)

		return nil
	})
	require.NoError(t, err)
}

func TestTaskSyncFlowDropsMalformedRecords(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		flow := businessflow.NewTaskSyncFlow(taskRepo, tdb.DB)

		good := taskRecord("fine", 1000)

		noText := taskRecord("", 1000)

		badID := taskRecord("bad id", 1000)
		badID.ID = "not-a-uuid"

		inverted := taskRecord("inverted clock", 1000)
		inverted.UpdatedAt = 500

		_, stats := syncTasks(t, flow, []dto.TaskSyncRecord{good, noText, badID, inverted}, nil)
		assert.Equal(t, 1, stats.Accepted)
		assert.Equal(t, 3, stats.Rejected)

		ctx := testingutil.CreateTestContext()
		_, found, err := taskRepo.ByRecordID(ctx, good.ID)
		require.NoError(t, err)
		assert.True(t, found)

		return nil
	})
	require.NoError(t, err)
}

func TestTagSyncFlowNameConflictRejectsOnlyThatRecord(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		tagRepo := repository.NewTagRepository(tdb.DB)
		flow := businessflow.NewTagSyncFlow(tagRepo, tdb.DB, nil)
		ctx := testingutil.CreateTestContext()

		// "Work" is already held by a seeded default tag
		conflicting := tagRecord("Work", "#123456", utils.NowMillis())
		fresh := tagRecord("Errands", "#654321", utils.NowMillis())

		resp, stats, err := flow.Sync(ctx, &dto.TagSyncRequest{
			Records: []dto.TagSyncRecord{conflicting, fresh},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Accepted)
		assert.Equal(t, 1, stats.Rejected)

		_, found, err := tagRepo.ByRecordID(ctx, conflicting.ID)
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = tagRepo.ByRecordID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.True(t, found)

		// The seeded holder comes back in the delta for the losing client
		var names []string
		for _, r := range resp.Records {
			names = append(names, r.Name)
		}
		assert.Contains(t, names, "Work")

		return nil
	})
	require.NoError(t, err)
}

func TestTagSyncFlowDefaultDeletionRejected(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		tagRepo := repository.NewTagRepository(tdb.DB)
		flow := businessflow.NewTagSyncFlow(tagRepo, tdb.DB, nil)
		ctx := testingutil.CreateTestContext()

		general, err := tagRepo.LiveByName(ctx, "General")
		require.NoError(t, err)
		require.NotNil(t, general)

		now := utils.NowMillis()
		deletion := dto.TagSyncRecord{
			ID:        general.ID,
			Name:      general.Name,
			Color:     general.Color,
			CreatedAt: general.CreatedAt,
			UpdatedAt: now,
			DeletedAt: &now,
		}

		_, stats, err := flow.Sync(ctx, &dto.TagSyncRequest{
			Records: []dto.TagSyncRecord{deletion},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Rejected)

		got, err := tagRepo.LiveByName(ctx, "General")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.DeletedAt)

		return nil
	})
	require.NoError(t, err)
}

func TestTagSyncFlowCannotStripDefaultFlag(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		tagRepo := repository.NewTagRepository(tdb.DB)
		flow := businessflow.NewTagSyncFlow(tagRepo, tdb.DB, nil)
		ctx := testingutil.CreateTestContext()

		general, err := tagRepo.LiveByName(ctx, "General")
		require.NoError(t, err)
		require.NotNil(t, general)

		// A client demoting the flag and deleting on the next round would
		// bypass deletion protection; the flag must stay pinned server-side
		update := dto.TagSyncRecord{
			ID:        general.ID,
			Name:      general.Name,
			Color:     "#000000",
			IsDefault: false,
			CreatedAt: general.CreatedAt,
			UpdatedAt: general.UpdatedAt + 1000,
		}

		_, stats, err := flow.Sync(ctx, &dto.TagSyncRequest{
			Records: []dto.TagSyncRecord{update},
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Accepted)

		got, err := tagRepo.LiveByName(ctx, "General")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsDefault)
		assert.Equal(t, "#000000", got.Color)

		return nil
	})
	require.NoError(t, err)
}

func TestTaskSyncFlowHardDeletedIDsAfterPurge(t *testing.T) {
	err := testingutil.TestWithDB(func(tdb *testingutil.TestDB) error {
		taskRepo := repository.NewTaskRepository(tdb.DB)
		tombstoneRepo := repository.NewTombstoneRepository(tdb.DB)
		flow := businessflow.NewTaskSyncFlow(taskRepo, tdb.DB)
		ctx := testingutil.CreateTestContext()

		created := taskRecord("long gone", 1000)
		resp, _ := syncTasks(t, flow, []dto.TaskSyncRecord{created}, nil)
		cursor := resp.ServerTime

		// Retention sweep purges the row and leaves a tombstone
		purgedAt := cursor + 1000
		err := repository.WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
			if _, err := taskRepo.HardDelete(txCtx, created.ID); err != nil {
				return err
			}
			return tombstoneRepo.Record(txCtx, models.EntityKindTask, created.ID, purgedAt)
		})
		require.NoError(t, err)

		t.Run("returning client is told to drop the row", func(t *testing.T) {
			resp, _ := syncTasks(t, flow, nil, &cursor)
			assert.Contains(t, resp.HardDeletedIDs, created.ID)
		})

		t.Run("first-time client never sees the tombstone", func(t *testing.T) {
			resp, _ := syncTasks(t, flow, nil, nil)
			assert.Empty(t, resp.HardDeletedIDs)
		})

		return nil
	})
	require.NoError(t, err)
}

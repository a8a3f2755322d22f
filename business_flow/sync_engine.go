package businessflow

import (
	"context"
	"errors"

	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	"github.com/ixianhq/ixian-server/utils"
)

// Guard is a pluggable pre-check invoked before an incoming record would be
// written. A *BusinessError return rejects that one record and the batch
// continues; any other error is treated as infrastructure failure and aborts
// the whole call. current is the server's copy when exists is true.
type Guard[T models.Syncable] interface {
	Check(ctx context.Context, incoming T, current T, exists bool) error
}

// SyncOutcome is the result of one reconciliation round
type SyncOutcome[T models.Syncable] struct {
	// Records is the outbound delta: everything modified after the cursor
	// that was not just accepted from this same batch
	Records []T
	// HardDeletedIDs are identifiers physically removed after the cursor
	HardDeletedIDs []string
	// ServerTime is the wall clock at completion; the caller persists it as
	// its next cursor
	ServerTime int64

	Accepted int
	Skipped  int
	Rejected int
}

// SyncEngine merges client-asserted records with server state under a
// whole-record last-write-wins policy. It is generic over the syncable
// record shape, so tasks and tags share one implementation; entity-specific
// rules arrive through the optional guard.
//
// The engine itself is purely computational: it assumes the caller wrapped
// the call in a single store transaction, and it relies on the store's
// row-locked lookups for per-record serialization.
type SyncEngine[T models.Syncable] struct {
	store repository.SyncStore[T]
	guard Guard[T]
	now   func() int64
}

// NewSyncEngine creates a sync engine over a store; guard may be nil
func NewSyncEngine[T models.Syncable](store repository.SyncStore[T], guard Guard[T]) *SyncEngine[T] {
	return &SyncEngine[T]{
		store: store,
		guard: guard,
		now:   utils.NowMillis,
	}
}

// Reconcile applies one incoming batch and computes the outbound delta.
// cursor is the client's last successful sync time; nil means a first-time
// client and yields the full dataset.
//
// Per incoming record: unknown identifiers are inserted verbatim (including
// records arriving already soft-deleted, which keeps the merge associative
// regardless of arrival order); known identifiers are overwritten only when
// the incoming updated_at is strictly greater than the server's. Ties favor
// the server so verbatim retries are no-ops.
func (e *SyncEngine[T]) Reconcile(ctx context.Context, incoming []T, cursor *int64) (*SyncOutcome[T], error) {
	out := &SyncOutcome[T]{
		Records:        []T{},
		HardDeletedIDs: []string{},
	}
	accepted := make(map[string]struct{}, len(incoming))

	for _, rec := range incoming {
		if rec.RecordID() == "" || rec.UpdatedAtMillis() < rec.CreatedAtMillis() {
			out.Rejected++
			continue
		}

		current, exists, err := e.store.ByRecordIDForUpdate(ctx, rec.RecordID())
		if err != nil {
			return nil, err
		}

		if exists && rec.UpdatedAtMillis() <= current.UpdatedAtMillis() {
			// Server copy is authoritative; it comes back in the outbound
			// delta below so the client converges.
			out.Skipped++
			continue
		}

		if e.guard != nil {
			if err := e.guard.Check(ctx, rec, current, exists); err != nil {
				var be *BusinessError
				if errors.As(err, &be) {
					out.Rejected++
					continue
				}
				return nil, err
			}
		}

		if err := e.store.Upsert(ctx, rec); err != nil {
			return nil, err
		}
		accepted[rec.RecordID()] = struct{}{}
		out.Accepted++
	}

	since := int64(-1)
	if cursor != nil {
		since = *cursor
	}

	modified, err := e.store.ListModifiedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	for _, rec := range modified {
		// Don't echo a client's own accepted update back in the same round
		if _, ok := accepted[rec.RecordID()]; ok {
			continue
		}
		out.Records = append(out.Records, rec)
	}

	// A first-time client has never seen any record, so there is nothing
	// for it to hard-delete
	if cursor != nil {
		ids, err := e.store.ListTombstonesSince(ctx, *cursor)
		if err != nil {
			return nil, err
		}
		out.HardDeletedIDs = append(out.HardDeletedIDs, ids...)
	}

	out.ServerTime = e.now()
	return out, nil
}

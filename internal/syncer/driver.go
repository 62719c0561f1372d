package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"o365sync/internal"
)

// SyncAll runs one batch pass over the given users. A failing user is
// logged and skipped, the batch keeps going; the error only says whether
// everything went through.
func (s *Syncer) SyncAll(ctx context.Context, userIDs []int64) error {
	run := fmt.Sprintf("run %s", uuid.NewString()[:8])

	var foundErr bool
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logf(s.output, run, "syncing user %d", userID)
		if err := s.SyncUser(ctx, userID); err != nil {
			logf(s.output, run, "user %d failed: %v", userID, err)
			foundErr = true
		}
	}

	if foundErr {
		return ErrSyncing
	}
	logf(s.output, run, "%d user(s) synced", len(userIDs))
	return nil
}

// SyncAdmin is the scheduled, app-only path. It reads the administrative
// mailbox for the window and reports what it saw, mutating nothing:
// per-user reconciliation from the cron context would need an enumerated
// user list with per-user sessions, which the platform does not hand out
// here.
func (s *Syncer) SyncAdmin(ctx context.Context, adminUPN string) error {
	w := s.window()

	it, err := s.provider.Events(ctx, internal.CalendarRef{UPN: adminUPN}, w)
	if err != nil {
		logf(s.output, adminUPN, "unable to list events: %v", err)
		return ErrSyncing
	}

	var count int
	for it.Next() {
		count++
	}
	if err := it.Err(); err != nil {
		logf(s.output, adminUPN, "unable to list events: %v", err)
		return ErrSyncing
	}

	logf(s.output, adminUPN, "%d event(s) in window %s", count, w)
	return nil
}

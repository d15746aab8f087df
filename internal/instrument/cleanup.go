package instrument

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HlisTilen/NiaARM/internal/store"
)

// CleanupOldEvents deletes events older than retentionDays from the _events table.
func CleanupOldEvents(ctx context.Context, db *store.Store, retentionDays int) {
	pb := db.Dialect.NewParamBuilder()
	whereExpr := db.Dialect.IntervalDeleteExpr("created_at", pb, fmt.Sprintf("%d", retentionDays))
	sqlStr := "DELETE FROM _events WHERE " + whereExpr
	n, err := store.Exec(ctx, db.DB, sqlStr, pb.Params()...)
	if err != nil {
		log.Printf("ERROR: event cleanup: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Event cleanup: deleted %d old events", n)
	}
}

// RunCleanupLoop purges old events once at startup and then daily, until the
// context is cancelled.
func RunCleanupLoop(ctx context.Context, db *store.Store, retentionDays int) {
	CleanupOldEvents(ctx, db, retentionDays)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CleanupOldEvents(ctx, db, retentionDays)
		}
	}
}

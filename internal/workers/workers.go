package workers

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartSessionReaper marks meditation sessions that have been sitting in a
// non-terminal state for over a day as abandoned. Clients that lose
// connectivity mid-session never send the closing sync, so without the reaper
// those rows would stay active forever.
func StartSessionReaper(db *pgxpool.Pool) {
	ticker := time.NewTicker(1 * time.Hour)

	go func() {
		for range ticker.C {
			reapStaleSessions(db)
		}
	}()
}

func reapStaleSessions(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tag, err := db.Exec(ctx, `
		UPDATE meditation_sessions
		SET status = 'abandoned', abandoned_at = NOW(), updated_at = NOW()
		WHERE status IN ('active', 'paused')
		  AND started_at < NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		log.Printf("Session reaper failed: %v", err)
		return
	}

	if n := tag.RowsAffected(); n > 0 {
		log.Printf("Session reaper abandoned %d stale sessions", n)
	}
}

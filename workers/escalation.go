package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kampungalert/api/db"
	"github.com/kampungalert/api/services"
)

// EscalationWorker watches the incident intake queue and escalates SOS
// reports nobody has acted on. An sos incident still pending after the
// configured window is bumped to critical so it surfaces at the top of every
// dashboard.
type EscalationWorker struct {
	PG    *sql.DB
	Redis *redis.Client

	// EscalateAfter is how long an sos report may sit pending.
	EscalateAfter time.Duration
}

func NewEscalationWorker(pg *sql.DB, rdb *redis.Client, escalateAfter time.Duration) *EscalationWorker {
	return &EscalationWorker{PG: pg, Redis: rdb, EscalateAfter: escalateAfter}
}

// Start runs both loops until ctx is cancelled.
func (w *EscalationWorker) Start(ctx context.Context) {
	log.Println("Escalation worker started")

	go w.consumeIntake(ctx)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escalation worker stopped")
			return
		case <-ticker.C:
			w.sweepStaleSOS(ctx)
		}
	}
}

// consumeIntake drains the intake queue so every new report gets a log line
// the moment it lands, with SOS reports called out.
func (w *EscalationWorker) consumeIntake(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		result, err := w.Redis.BLPop(ctx, 5*time.Second, services.IncidentIntakeQueue).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Worker: failed to pop intake queue: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// BLPop returns [key, value]
		if len(result) < 2 {
			continue
		}
		var inc db.Incident
		if err := json.Unmarshal([]byte(result[1]), &inc); err != nil {
			log.Printf("Worker: failed to unmarshal queued incident: %v", err)
			continue
		}

		if inc.Type == db.IncidentTypeSOS {
			log.Printf("Worker: SOS received - incident %d in %s", inc.ID, inc.Kampung)
		} else {
			log.Printf("Worker: new %s report - incident %d in %s", inc.Type, inc.ID, inc.Kampung)
		}
	}
}

// sweepStaleSOS escalates sos incidents that stayed pending past the window.
func (w *EscalationWorker) sweepStaleSOS(ctx context.Context) {
	result, err := w.PG.ExecContext(ctx, `
		UPDATE incidents
		SET status = 'critical', updated_at = NOW()
		WHERE type = 'sos' AND status = 'pending' AND created_at < NOW() - make_interval(mins => $1)`,
		int(w.EscalateAfter.Minutes()))
	if err != nil {
		log.Printf("Worker: failed to escalate stale SOS incidents: %v", err)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return
	}
	if affected > 0 {
		log.Printf("Worker: escalated %d stale SOS incidents to critical", affected)
	}
}

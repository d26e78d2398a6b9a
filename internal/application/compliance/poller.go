package compliance

import (
	"context"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// DuePoller periodically delivers pending jobs whose NotBefore has passed:
// retries after backoff, jobs deferred by quiet hours and jobs whose
// deliverer died holding the claim.
type DuePoller struct {
	deliverer *Deliverer
	interval  time.Duration
	batch     int
	logger    logging.Logger
}

func NewDuePoller(deliverer *Deliverer, interval time.Duration, batch int, logger logging.Logger) *DuePoller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DuePoller{deliverer: deliverer, interval: interval, batch: batch, logger: logger}
}

// Poll runs one pass. A full batch is followed immediately by another.
func (p *DuePoller) Poll(ctx context.Context) (DeliveryStats, error) {
	var total DeliveryStats
	for {
		stats, err := p.deliverer.DeliverDue(ctx, p.batch)
		if err != nil {
			return total, err
		}
		total.merge(stats)

		// Jobs that failed to record stay due; they are not counted, so a
		// batch of them ends the pass instead of looping.
		if p.batch <= 0 || stats.handled() < p.batch || ctx.Err() != nil {
			return total, nil
		}
	}
}

// Run polls every interval until ctx is cancelled.
func (p *DuePoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		stats, err := p.Poll(ctx)
		switch {
		case err != nil:
			p.logger.Error("due-job poll failed", logging.Err(err))
		case stats != (DeliveryStats{}):
			p.logger.Info("delivered due notifications",
				logging.Int("sent", stats.Sent),
				logging.Int("retrying", stats.Retrying),
				logging.Int("failed", stats.Failed),
				logging.Int("skipped", stats.Skipped),
				logging.Int("deferred", stats.Deferred),
				logging.Int("contended", stats.Contended),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

//Personal.AI order the ending

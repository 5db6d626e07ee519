package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/absmach/fedcoord/pkg/cron"
	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
)

type TriggerConfig struct {
	// K is the number of pending submissions that closes a round. Zero
	// closes a round on every tick that has at least one submission.
	K        int           `env:"TRIGGER_K"        envDefault:"0"`
	Interval time.Duration `env:"TRIGGER_INTERVAL" envDefault:"0s"`
	// Schedule is a cron expression. It takes precedence over Interval.
	Schedule string `env:"TRIGGER_SCHEDULE" envDefault:""`
	Timezone string `env:"TRIGGER_TIMEZONE" envDefault:"UTC"`
}

func (c TriggerConfig) Enabled() bool {
	return c.Interval > 0 || c.Schedule != ""
}

// Trigger closes rounds on behalf of an operator by polling the service.
type Trigger struct {
	svc      Service
	cfg      TriggerConfig
	schedule *cron.Schedule
	logger   *slog.Logger
}

func NewTrigger(svc Service, cfg TriggerConfig, logger *slog.Logger) (*Trigger, error) {
	t := &Trigger{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Schedule != "" {
		schedule, err := cron.Parse(cfg.Schedule, cfg.Timezone)
		if err != nil {
			return nil, err
		}
		t.schedule = schedule
	}

	return t, nil
}

// Run polls until ctx is done. It returns nil on cancellation.
func (t *Trigger) Run(ctx context.Context) error {
	if !t.cfg.Enabled() {
		return nil
	}

	if t.schedule != nil {
		return t.runScheduled(ctx)
	}

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Trigger) runScheduled(ctx context.Context) error {
	for {
		next := t.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil
		case <-timer.C:
			t.tick(ctx)
		}
	}
}

func (t *Trigger) tick(ctx context.Context) {
	pending := t.svc.GetStatus(ctx).PendingSubmissions
	if pending == 0 || pending < t.cfg.K {
		return
	}

	res, err := t.svc.TriggerAggregation(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrNoSubmissions):
		return
	case err != nil:
		t.logger.WarnContext(ctx, "scheduled aggregation failed", slog.Any("error", err))

		return
	}

	t.logger.InfoContext(ctx, "scheduled aggregation committed round",
		slog.Uint64("round", res.Model.Round),
		slog.Int("participants", res.Model.Participants),
		slog.Float64("accuracy", res.Model.Accuracy),
	)
}

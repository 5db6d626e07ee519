package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/cenkalti/backoff/v5"
)

type DispatcherConfig struct {
	Workers     int           `env:"WORKERS"      envDefault:"2"`
	QueueSize   int           `env:"QUEUE_SIZE"   envDefault:"1024"`
	MaxTries    uint          `env:"MAX_TRIES"    envDefault:"5"`
	MaxInterval time.Duration `env:"MAX_INTERVAL" envDefault:"30s"`
}

// Dispatcher submits contribution records to a Ledger in the background.
// Dispatch never blocks the caller; a full queue drops the record.
type Dispatcher struct {
	ledger Ledger
	cfg    DispatcherConfig
	logger *slog.Logger

	queue     chan fl.ContributionRecord
	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(l Ledger, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 1
	}

	return &Dispatcher{
		ledger: l,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan fl.ContributionRecord, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Dispatch enqueues the records with a positive score.
func (d *Dispatcher) Dispatch(ctx context.Context, records []fl.ContributionRecord) {
	for _, rec := range records {
		if rec.Score <= 0 {
			continue
		}
		select {
		case <-d.done:
			d.logger.WarnContext(ctx, "dropping contribution, dispatcher closed",
				slog.String("node_id", rec.NodeID),
				slog.Uint64("round", rec.Round),
			)

			return
		default:
		}
		select {
		case d.queue <- rec:
		default:
			d.logger.WarnContext(ctx, "dropping contribution, dispatch queue full",
				slog.String("node_id", rec.NodeID),
				slog.Uint64("round", rec.Round),
			)
		}
	}
}

// Run starts the workers and blocks until ctx is cancelled or Close is
// called. Records still queued at that point are submitted once more
// before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for range d.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))

			return
		case <-d.done:
			d.drain(ctx)

			return
		case rec := <-d.queue:
			d.submit(ctx, rec)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case rec := <-d.queue:
			d.submitOnce(ctx, rec)
		default:
			return
		}
	}
}

func (d *Dispatcher) submit(ctx context.Context, rec fl.ContributionRecord) {
	b := backoff.NewExponentialBackOff()
	if d.cfg.MaxInterval > 0 {
		b.MaxInterval = d.cfg.MaxInterval
		b.InitialInterval = min(b.InitialInterval, d.cfg.MaxInterval)
	}

	op := func() (string, error) {
		txID, err := d.ledger.SubmitContribution(ctx, rec.NodeID, rec.Score)
		if err != nil && !retriable(err) {
			return "", backoff.Permanent(err)
		}

		return txID, err
	}

	txID, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(d.cfg.MaxTries))
	d.log(ctx, rec, txID, err)
}

func (d *Dispatcher) submitOnce(ctx context.Context, rec fl.ContributionRecord) {
	txID, err := d.ledger.SubmitContribution(ctx, rec.NodeID, rec.Score)
	d.log(ctx, rec, txID, err)
}

func (d *Dispatcher) log(ctx context.Context, rec fl.ContributionRecord, txID string, err error) {
	args := []any{
		slog.Group("contribution",
			slog.String("node_id", rec.NodeID),
			slog.Uint64("round", rec.Round),
			slog.Float64("score", rec.Score),
		),
	}
	if err != nil {
		args = append(args, slog.Any("error", err))
		d.logger.WarnContext(ctx, "failed to submit contribution to ledger", args...)

		return
	}
	args = append(args, slog.String("transaction_id", txID))
	d.logger.InfoContext(ctx, "submitted contribution to ledger", args...)
}

func retriable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every InvoiceBox task runs on.
	QueueDefault = "default"
	// TaskOverdueSweep moves pending invoices past their due date to overdue.
	TaskOverdueSweep = "invoice:overdue_sweep"
)

// OverdueSweepPayload optionally pins the reference time of a sweep.
type OverdueSweepPayload struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// NewOverdueSweepTask builds a sweep task. A zero asOf sweeps against the
// time the task runs.
func NewOverdueSweepTask(asOf time.Time) (*asynq.Task, error) {
	var payload OverdueSweepPayload
	if !asOf.IsZero() {
		payload.AsOf = &asOf
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding sweep payload: %w", err)
	}

	return asynq.NewTask(TaskOverdueSweep, data), nil
}

//go:generate mockgen -source=tasks.go -destination=marker_mock.go -package=jobs
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// OverdueSweepJob handles TaskOverdueSweep tasks.
type OverdueSweepJob struct {
	invoices OverdueMarker
	logger   *slog.Logger
	clock    func() time.Time
}

func NewOverdueSweepJob(invoices OverdueMarker, logger *slog.Logger) *OverdueSweepJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &OverdueSweepJob{
		invoices: invoices,
		logger:   logger.With(slog.String("job", TaskOverdueSweep)),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.invoices == nil {
		return errors.New("overdue sweep: handler not configured")
	}

	var payload OverdueSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decoding sweep payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	asOf := j.clock()
	if payload.AsOf != nil {
		asOf = *payload.AsOf
	}

	start := time.Now()

	n, err := j.invoices.MarkOverdue(ctx, asOf)
	if err != nil {
		j.logger.Error("sweep failed", slog.Time("as_of", asOf), slog.Any("error", err))
		return err
	}

	j.logger.Info("completed overdue sweep",
		slog.Time("as_of", asOf),
		slog.Int("marked", n),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

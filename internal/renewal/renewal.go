// Package renewal rolls auto-renewing contracts forward once their
// cancellation deadline has passed.
package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/contract-bot/internal/renewal"

// RunTimeout bounds a single pass started by Loop.
const RunTimeout = 5 * time.Minute

// Store is what the job reads and writes. *repository.ContractRepository satisfies it.
type Store interface {
	ListActive(ctx context.Context) ([]models.Contract, error)
	UpdateDates(ctx context.Context, id int, end, nextCancellation time.Time) error
}

// Options configures a Job. Nil providers fall back to the otel globals.
type Options struct {
	// CatchUp advances a contract as many periods as needed in one pass
	// instead of one period per pass.
	CatchUp        bool
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Result counts what one pass did.
type Result struct {
	Checked int
	Renewed int
}

// Job is the renewal batch pass.
type Job struct {
	store   Store
	catchUp bool
	tracer  trace.Tracer
	renewed metric.Int64Counter
}

// NewJob creates a Job.
func NewJob(store Store, opts Options) *Job {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	renewed, err := mp.Meter(instrumentationName).Int64Counter(
		"contracts.renewed",
		metric.WithDescription("Contracts advanced by the renewal job"),
	)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create renewal counter")
		renewed = noop.Int64Counter{}
	}

	return &Job{
		store:   store,
		catchUp: opts.CatchUp,
		tracer:  tp.Tracer(instrumentationName),
		renewed: renewed,
	}
}

// Run advances every active contract whose next cancellation date is before
// today. A failing contract does not stop the pass; all failures are joined
// into the returned error.
func (j *Job) Run(ctx context.Context, today time.Time) (Result, error) {
	ctx, span := j.tracer.Start(ctx, "renewal.run")
	defer span.End()

	today = calendar.Date(today)
	span.SetAttributes(
		attribute.String("renewal.today", calendar.Format(today)),
		attribute.Bool("renewal.catch_up", j.catchUp),
	)

	contracts, err := j.store.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list active contracts")
		return Result{}, fmt.Errorf("failed to list active contracts: %w", err)
	}

	var (
		res  Result
		errs []error
	)
	for _, c := range contracts {
		res.Checked++

		end, next, periods := Advance(c, today, j.catchUp)
		if periods == 0 {
			continue
		}

		if err := j.store.UpdateDates(ctx, c.ID, end, next); err != nil {
			errs = append(errs, fmt.Errorf("failed to renew contract %d: %w", c.ID, err))
			continue
		}

		res.Renewed++
		logger.Log.Info().
			Int("contract_id", c.ID).
			Int("periods", periods).
			Str("end", calendar.Format(end)).
			Str("next_cancellation", calendar.Format(next)).
			Msg("Contract renewed")
	}

	j.renewed.Add(ctx, int64(res.Renewed))
	span.SetAttributes(
		attribute.Int("renewal.checked", res.Checked),
		attribute.Int("renewal.renewed", res.Renewed),
	)

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some renewals failed")
		return res, err
	}
	return res, nil
}

// Advance computes the dates of c after renewal on today. periods is the
// number of renewal periods applied; zero means c is not due. Dates are
// always offset from the stored ones so month-end clamping does not drift
// across several periods.
func Advance(c models.Contract, today time.Time, catchUp bool) (end, next time.Time, periods int) {
	end, next = c.EndDate, c.NextCancellationDate
	if c.RenewalPeriodMonths <= 0 {
		return end, next, 0
	}

	today = calendar.Date(today)
	for today.After(next) {
		periods++
		months := periods * c.RenewalPeriodMonths
		end = calendar.AddMonths(c.EndDate, months)
		next = calendar.AddMonths(c.NextCancellationDate, months)
		if !catchUp {
			break
		}
	}
	return end, next, periods
}

// Loop runs the job immediately and then every interval until ctx is done.
func (j *Job) Loop(ctx context.Context, interval time.Duration, loc *time.Location) {
	logger.Log.Info().
		Dur("interval", interval).
		Bool("catch_up", j.catchUp).
		Msg("Renewal loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		j.runOnce(ctx, calendar.Today(time.Now(), loc))

		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Renewal loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (j *Job) runOnce(ctx context.Context, today time.Time) {
	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	res, err := j.Run(runCtx, today)
	if err != nil {
		logger.Log.Error().Err(err).
			Int("checked", res.Checked).
			Int("renewed", res.Renewed).
			Msg("Renewal pass finished with errors")
		return
	}
	logger.Log.Info().
		Int("checked", res.Checked).
		Int("renewed", res.Renewed).
		Msg("Renewal pass finished")
}

package renewal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/models"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type memStore struct {
	contracts map[int]*models.Contract
	updates   int
	failID    int
	listErr   error
}

func newMemStore(cs ...models.Contract) *memStore {
	s := &memStore{contracts: map[int]*models.Contract{}}
	for i := range cs {
		c := cs[i]
		s.contracts[c.ID] = &c
	}
	return s
}

func (s *memStore) ListActive(context.Context) ([]models.Contract, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateDates(_ context.Context, id int, end, next time.Time) error {
	if id == s.failID {
		return errors.New("write failed")
	}
	s.updates++
	s.contracts[id].EndDate = end
	s.contracts[id].NextCancellationDate = next
	return nil
}

func contract(id int, end time.Time, notice, renewal int) models.Contract {
	return models.Contract{
		ID:                   id,
		IsActive:             true,
		NoticePeriodMonths:   notice,
		RenewalPeriodMonths:  renewal,
		EndDate:              end,
		NextCancellationDate: calendar.NextCancellationDate(end, notice),
	}
}

func TestJob_NotDueIsUntouched(t *testing.T) {
	t.Parallel()

	store := newMemStore(contract(1, date(2024, 12, 31), 3, 12))
	job := NewJob(store, Options{})

	for range 2 {
		res, err := job.Run(context.Background(), date(2024, 9, 30))
		require.NoError(t, err)
		require.Equal(t, Result{Checked: 1, Renewed: 0}, res)
	}

	require.Zero(t, store.updates)
	require.Equal(t, date(2024, 12, 31), store.contracts[1].EndDate)
	require.Equal(t, date(2024, 9, 30), store.contracts[1].NextCancellationDate)
}

func TestJob_AdvancesByRenewalPeriod(t *testing.T) {
	t.Parallel()

	store := newMemStore(contract(1, date(2024, 3, 31), 1, 12))
	job := NewJob(store, Options{})

	res, err := job.Run(context.Background(), date(2024, 3, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.Renewed)
	require.Equal(t, date(2025, 3, 31), store.contracts[1].EndDate)
	require.Equal(t, date(2025, 2, 28), store.contracts[1].NextCancellationDate)

	res, err = job.Run(context.Background(), date(2024, 3, 1))
	require.NoError(t, err)
	require.Zero(t, res.Renewed, "second run on the same day is a no-op")
}

func TestJob_SinglePeriodPerRunByDefault(t *testing.T) {
	t.Parallel()

	store := newMemStore(contract(1, date(2020, 1, 31), 0, 1))
	job := NewJob(store, Options{})

	_, err := job.Run(context.Background(), date(2020, 6, 15))
	require.NoError(t, err)
	require.Equal(t, date(2020, 2, 29), store.contracts[1].EndDate)
}

func TestJob_CatchUp(t *testing.T) {
	t.Parallel()

	store := newMemStore(contract(1, date(2020, 1, 31), 0, 1))
	job := NewJob(store, Options{CatchUp: true})

	res, err := job.Run(context.Background(), date(2020, 6, 15))
	require.NoError(t, err)
	require.Equal(t, 1, res.Renewed)
	require.Equal(t, date(2020, 6, 30), store.contracts[1].EndDate)
	require.Equal(t, date(2020, 6, 30), store.contracts[1].NextCancellationDate)
}

func TestJob_DeadlineDayIsNotDue(t *testing.T) {
	t.Parallel()

	store := newMemStore(contract(1, date(2024, 6, 30), 1, 12))
	job := NewJob(store, Options{})

	res, err := job.Run(context.Background(), date(2024, 5, 30))
	require.NoError(t, err)
	require.Zero(t, res.Renewed)

	res, err = job.Run(context.Background(), date(2024, 5, 31))
	require.NoError(t, err)
	require.Equal(t, 1, res.Renewed)
}

func TestJob_FailureDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		contract(1, date(2024, 1, 31), 0, 1),
		contract(2, date(2024, 1, 31), 0, 1),
		contract(3, date(2024, 1, 31), 0, 1),
	)
	store.failID = 2
	job := NewJob(store, Options{})

	res, err := job.Run(context.Background(), date(2024, 2, 10))
	require.Error(t, err)
	require.Contains(t, err.Error(), "contract 2")
	require.Equal(t, Result{Checked: 3, Renewed: 2}, res)
	require.Equal(t, date(2024, 2, 29), store.contracts[1].EndDate)
	require.Equal(t, date(2024, 1, 31), store.contracts[2].EndDate)
	require.Equal(t, date(2024, 2, 29), store.contracts[3].EndDate)
}

func TestJob_ListFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.listErr = errors.New("db down")

	_, err := NewJob(store, Options{}).Run(context.Background(), date(2024, 1, 1))
	require.ErrorContains(t, err, "failed to list active contracts")
}

func TestJob_RecordsTelemetry(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	store := newMemStore(
		contract(1, date(2024, 1, 31), 0, 1),
		contract(2, date(2030, 1, 31), 0, 1),
	)
	job := NewJob(store, Options{TracerProvider: tp, MeterProvider: mp})

	_, err := job.Run(context.Background(), date(2024, 3, 1))
	require.NoError(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "renewal.run", ended[0].Name())

	attrs := map[string]int64{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	require.Equal(t, int64(2), attrs["renewal.checked"])
	require.Equal(t, int64(1), attrs["renewal.renewed"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	m := rm.ScopeMetrics[0].Metrics[0]
	require.Equal(t, "contracts.renewed", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	require.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestAdvance_ZeroRenewalPeriodNeverLoops(t *testing.T) {
	t.Parallel()

	c := contract(1, date(2020, 1, 1), 0, 0)
	end, next, periods := Advance(c, date(2024, 1, 1), true)
	require.Zero(t, periods)
	require.Equal(t, c.EndDate, end)
	require.Equal(t, c.NextCancellationDate, next)
}

func TestAdvanceProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		y := rapid.IntRange(2000, 2030).Draw(t, "year")
		m := time.Month(rapid.IntRange(1, 12).Draw(t, "month"))
		d := rapid.IntRange(1, calendar.DaysIn(y, m)).Draw(t, "day")
		notice := rapid.IntRange(0, 12).Draw(t, "notice")
		renewal := rapid.IntRange(1, 24).Draw(t, "renewal")
		offset := rapid.IntRange(-400, 4000).Draw(t, "offset")

		c := contract(1, date(y, m, d), notice, renewal)
		today := c.NextCancellationDate.AddDate(0, 0, offset)

		end, next, periods := Advance(c, today, false)
		if offset <= 0 {
			if periods != 0 || !end.Equal(c.EndDate) || !next.Equal(c.NextCancellationDate) {
				t.Fatalf("contract not yet due was advanced")
			}
		} else {
			if periods != 1 {
				t.Fatalf("single-step advance applied %d periods", periods)
			}
			if !end.Equal(calendar.AddMonths(c.EndDate, renewal)) {
				t.Fatalf("end %s not advanced by %d months from %s", calendar.Format(end), renewal, calendar.Format(c.EndDate))
			}
			if !next.Equal(calendar.AddMonths(c.NextCancellationDate, renewal)) {
				t.Fatalf("next %s not advanced by %d months", calendar.Format(next), renewal)
			}
		}

		_, caughtUp, _ := Advance(c, today, true)
		if today.After(caughtUp) {
			t.Fatalf("catch-up left deadline %s before today %s", calendar.Format(caughtUp), calendar.Format(today))
		}
	})
}

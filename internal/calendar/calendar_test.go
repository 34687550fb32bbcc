package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain forward", date(2024, 1, 15), 1, date(2024, 2, 15)},
		{"plain backward", date(2024, 5, 10), -3, date(2024, 2, 10)},
		{"zero months", date(2024, 5, 31), 0, date(2024, 5, 31)},
		{"clamps to leap february", date(2024, 3, 31), -1, date(2024, 2, 29)},
		{"clamps to common february", date(2023, 3, 31), -1, date(2023, 2, 28)},
		{"clamps forward to april", date(2024, 1, 31), 3, date(2024, 4, 30)},
		{"crosses year forward", date(2024, 11, 30), 3, date(2025, 2, 28)},
		{"crosses year backward", date(2024, 1, 31), -2, date(2023, 11, 30)},
		{"twelve months", date(2024, 2, 29), 12, date(2025, 2, 28)},
		{"many years back", date(2024, 6, 1), -30, date(2021, 12, 1)},
		{"exact multiple of twelve backward", date(2024, 1, 1), -12, date(2023, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, AddMonths(tt.in, tt.n))
		})
	}
}

func TestAddMonthsDropsTimeOfDay(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	require.Equal(t, date(2024, 4, 30), AddMonths(in, 1))
}

func TestNextCancellationDate(t *testing.T) {
	t.Parallel()

	require.Equal(t, date(2024, 2, 29), NextCancellationDate(date(2024, 3, 31), 1))
	require.Equal(t, date(2023, 2, 28), NextCancellationDate(date(2023, 3, 31), 1))
	require.Equal(t, date(2024, 9, 30), NextCancellationDate(date(2024, 12, 31), 3))
	require.Equal(t, date(2024, 12, 31), NextCancellationDate(date(2024, 12, 31), 0))
}

func TestDaysUntil(t *testing.T) {
	t.Parallel()

	today := date(2024, 6, 1)

	require.Equal(t, 0, DaysUntil(today, today))
	require.Equal(t, 14, DaysUntil(date(2024, 6, 15), today))
	require.Equal(t, -1, DaysUntil(date(2024, 5, 31), today))
	require.Equal(t, 365, DaysUntil(date(2025, 6, 1), today))

	t.Run("ignores time of day", func(t *testing.T) {
		t.Parallel()
		late := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
		require.Equal(t, 1, DaysUntil(date(2024, 6, 2), late))
	})

	t.Run("counts beyond the duration range", func(t *testing.T) {
		t.Parallel()
		far, err := ParseDate("31.12.9999")
		require.NoError(t, err)
		require.Equal(t, 2913021, DaysUntil(far, today))
		require.Equal(t, -2913021, DaysUntil(today, far))
	})
}

func TestToday(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on June 1st is already June 2nd in Berlin.
	now := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, date(2024, 6, 2), Today(now, berlin))
	require.Equal(t, date(2024, 6, 1), Today(now, nil))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	valid := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-31", date(2024, 3, 31)},
		{"31.03.2024", date(2024, 3, 31)},
		{"  2021-12-01 ", date(2021, 12, 1)},
		{"29.02.2024", date(2024, 2, 29)},
	}
	for _, tt := range valid {
		got, err := ParseDate(tt.input)
		require.NoError(t, err, tt.input)
		require.Equal(t, tt.want, got)
	}

	invalid := []string{
		"",
		"tomorrow",
		"2024-02-30",
		"29.02.2023",
		"2024/03/31",
		"31-03-2024",
		"3.1.2024",
		"2024-3-1",
		"31.03.24",
	}
	for _, input := range invalid {
		_, err := ParseDate(input)
		require.ErrorIs(t, err, ErrInvalidDate, input)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()
	require.Equal(t, "2024-02-29", Format(date(2024, 2, 29)))
}

func TestDaysIn(t *testing.T) {
	t.Parallel()

	require.Equal(t, 29, DaysIn(2024, time.February))
	require.Equal(t, 28, DaysIn(2100, time.February))
	require.Equal(t, 31, DaysIn(2024, time.December))
	require.Equal(t, 30, DaysIn(2024, time.April))
}

func genDate(t *rapid.T) time.Time {
	y := rapid.IntRange(1990, 2100).Draw(t, "year")
	m := time.Month(rapid.IntRange(1, 12).Draw(t, "month"))
	d := rapid.IntRange(1, DaysIn(y, m)).Draw(t, "day")
	return date(y, m, d)
}

func TestAddMonthsProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		start := genDate(t)
		n := rapid.IntRange(-240, 240).Draw(t, "months")

		got := AddMonths(start, n)

		// Lands in the arithmetically expected month.
		wantIndex := start.Year()*12 + int(start.Month()) - 1 + n
		gotIndex := got.Year()*12 + int(got.Month()) - 1
		if gotIndex != wantIndex {
			t.Fatalf("AddMonths(%s, %d) = %s: wrong month", Format(start), n, Format(got))
		}

		// Keeps the day unless the target month is too short, then clamps.
		wantDay := min(start.Day(), DaysIn(got.Year(), got.Month()))
		if got.Day() != wantDay {
			t.Fatalf("AddMonths(%s, %d) = %s: want day %d", Format(start), n, Format(got), wantDay)
		}
	})
}

func TestAddMonthsRoundTripWithoutClamping(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		y := rapid.IntRange(1990, 2100).Draw(t, "year")
		m := time.Month(rapid.IntRange(1, 12).Draw(t, "month"))
		d := rapid.IntRange(1, 28).Draw(t, "day")
		n := rapid.IntRange(-120, 120).Draw(t, "months")

		start := date(y, m, d)
		if back := AddMonths(AddMonths(start, n), -n); !back.Equal(start) {
			t.Fatalf("round trip of %s by %d months gave %s", Format(start), n, Format(back))
		}
	})
}

func TestNextCancellationDateNeverAfterEnd(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		end := genDate(t)
		notice := rapid.IntRange(0, 36).Draw(t, "notice")

		next := NextCancellationDate(end, notice)
		if next.After(end) {
			t.Fatalf("cancellation %s after end %s", Format(next), Format(end))
		}
		if notice > 0 && DaysUntil(end, next) < 28*notice {
			t.Fatalf("cancellation %s less than %d months before %s", Format(next), notice, Format(end))
		}
	})
}

func FuzzParseDate(f *testing.F) {
	f.Add("2024-03-31")
	f.Add("31.03.2024")
	f.Add("")
	f.Add("2024-02-30")
	f.Add("99.99.9999")
	f.Add("0000-00-00")

	f.Fuzz(func(t *testing.T, input string) {
		got, err := ParseDate(input)
		if err != nil {
			if !got.IsZero() {
				t.Errorf("ParseDate(%q) returned %v with error", input, got)
			}
			return
		}
		if !got.Equal(Date(got)) {
			t.Errorf("ParseDate(%q) = %v is not a bare date", input, got)
		}
	})
}

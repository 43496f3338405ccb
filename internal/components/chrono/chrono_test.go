package chrono

import (
	"casestatus-backend/internal/components/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedImpl(t *testing.T) {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	clock := &FixedImpl{Current: start, Step: time.Second}

	require.Equal(t, start, clock.Now())
	require.Equal(t, start.Add(time.Second), clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}

func TestFilingYears(t *testing.T) {
	clock := &FixedImpl{Current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.Equal(t, []int{2024, 2023, 2022}, FilingYears(clock, 3))
}

func TestTimestampSortsLexically(t *testing.T) {
	earlier := time.Date(2024, 3, 5, 9, 59, 59, 999_000, time.UTC)
	later := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	require.Less(t, Timestamp(earlier), Timestamp(later))
	require.Equal(t, "2024-03-05T10:00:00.000000Z", Timestamp(later))
}

func TestCronRejectsInvalidSpec(t *testing.T) {
	cron := NewStandardCron(&FixedImpl{Current: time.Now().UTC()}, telemetry.NewRecorderAPI())
	defer cron.Stop()

	require.Error(t, cron.Cron("not a schedule", func() {}))
	require.NoError(t, cron.Cron("@every 1h", func() {}))
}

package chrono

import (
	"time"
	_ "time/tzdata"
)

// the portal and the court both run on IST, filing years and hearing dates
// should be interpreted there regardless of where the process is deployed.
const portalZone = "Asia/Kolkata"

// TimestampLayout is the ISO-8601 layout attempt timestamps are stored with.
// It is fixed-width so that timestamps in the same zone sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation(portalZone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is a clock that returns a preset time, advancing by Step on every
// call to Now when Step is set.
type FixedImpl struct {
	Current time.Time
	Step    time.Duration
}

func (f *FixedImpl) Now() time.Time {
	now := f.Current
	f.Current = f.Current.Add(f.Step)
	return now
}

func (f *FixedImpl) Location() *time.Location {
	return f.Current.Location()
}

// Timestamp formats t with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FilingYears returns the last `count` calendar years, newest first.
func FilingYears(clock API, count int) []int {
	current := clock.Now().Year()
	years := make([]int, count)
	for i := range years {
		years[i] = current - i
	}
	return years
}

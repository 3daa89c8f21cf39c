package clock

import "time"

// Clock abstracts the time source so cooldown logic stays testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the wall clock in UTC.
func System() Clock {
	return systemClock{}
}

// Fake is a settable clock for tests.
type Fake struct {
	Current time.Time
}

// NewFake returns a fake clock pinned to the given instant.
func NewFake(t time.Time) *Fake {
	return &Fake{Current: t.UTC()}
}

// Now returns the pinned instant.
func (f *Fake) Now() time.Time {
	return f.Current
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

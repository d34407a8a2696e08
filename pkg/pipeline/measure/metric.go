package measure

import (
	"sync"
	"time"
)

type DefaultMetric struct {
	mu      *sync.Mutex
	elapsed time.Duration
	total   int64
	skipped bool
	err     error
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.elapsed += elapsed
}

func (mt *DefaultMetric) TotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.elapsed
}

func (mt *DefaultMetric) Runs() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return Round(time.Duration(float64(mt.elapsed) / float64(mt.total)))
}

func (mt *DefaultMetric) SetFailed(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.err = err
}

func (mt *DefaultMetric) Err() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.err
}

func (mt *DefaultMetric) SetSkipped() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.skipped = true
}

func (mt *DefaultMetric) Skipped() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.skipped
}

// Round trims d to a precision that reads well next to its magnitude.
func Round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

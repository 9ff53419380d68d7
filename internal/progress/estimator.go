// Package progress produces a synthetic upload progress signal for operations
// whose real progress cannot be observed.
package progress

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// Ceiling is the highest value reported while the operation is in flight.
	Ceiling = 95.0
	// Done is reported exactly once when the operation succeeds.
	Done = 100.0

	defaultInterval = 300 * time.Millisecond
	defaultMaxStep  = 10.0
)

// Option customizes an Estimator.
type Option func(*Estimator)

// WithStep overrides the increment source. Negative steps are treated as zero.
func WithStep(step func() float64) Option {
	return func(e *Estimator) {
		if step != nil {
			e.step = step
		}
	}
}

// Estimator ticks a value upward on a fixed interval until Stop or Complete.
// The reporting goroutine is owned by the Estimator and has always exited
// when Stop or Complete returns.
type Estimator struct {
	mu     sync.Mutex
	value  float64
	report func(float64)
	step   func() float64
	stopCh chan struct{}
	exited chan struct{}
	once   sync.Once
}

// Start launches an estimator. report may be nil; it is never called concurrently.
func Start(interval time.Duration, report func(float64), opts ...Option) *Estimator {
	if interval <= 0 {
		interval = defaultInterval
	}
	if report == nil {
		report = func(float64) {}
	}
	e := &Estimator{
		report: report,
		step:   func() float64 { return rand.Float64() * defaultMaxStep },
		stopCh: make(chan struct{}),
		exited: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.run(interval)
	return e
}

func (e *Estimator) run(interval time.Duration) {
	defer close(e.exited)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			next, capped := e.advance()
			e.report(next)
			if capped {
				// Nothing left to estimate; wait for the owner to finish.
				<-e.stopCh
				return
			}
		}
	}
}

func (e *Estimator) advance() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inc := e.step()
	if inc < 0 {
		inc = 0
	}
	e.value += inc
	if e.value >= Ceiling {
		e.value = Ceiling
		return e.value, true
	}
	return e.value, false
}

// Value returns the last estimate.
func (e *Estimator) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Stop tears the estimator down without a final report. Safe to call repeatedly.
func (e *Estimator) Stop() {
	e.shutdown()
}

// Complete tears the estimator down and reports Done. Only the first call
// to Stop or Complete has any effect on what is reported.
func (e *Estimator) Complete() {
	first := e.shutdown()
	if !first {
		return
	}
	e.mu.Lock()
	e.value = Done
	e.mu.Unlock()
	e.report(Done)
}

func (e *Estimator) shutdown() bool {
	first := false
	e.once.Do(func() {
		first = true
		close(e.stopCh)
	})
	<-e.exited
	return first
}

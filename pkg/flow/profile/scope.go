package profile

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Scope measures the wall-clock time of a block of work. Start emits a
// "PROFILE: <label> starting" line, End emits "PROFILE: <label> completed in
// <N>ms" and merges the measurement into the shared stats collection.
//
// End is idempotent: the completion line and the merge happen exactly once
// per scope, whichever exit path triggers them first.
type Scope struct {
	label   string
	log     hclog.Logger
	stats   Stats
	start   time.Time
	once    sync.Once
	elapsed time.Duration
}

// Start opens a scope. A nil logger is replaced with a null logger, a nil
// stats collection disables the merge.
func Start(log hclog.Logger, label string, stats Stats) *Scope {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	log.Info(fmt.Sprintf("PROFILE: %s starting", label))

	return &Scope{
		label: label,
		log:   log,
		stats: stats,
		start: time.Now(),
	}
}

// End closes the scope.
func (s *Scope) End() {
	s.once.Do(func() {
		s.elapsed = time.Since(s.start)
		s.log.Info(fmt.Sprintf("PROFILE: %s completed in %dms", s.label, s.elapsed.Milliseconds()))

		if s.stats != nil {
			s.stats.Merge(s.label, s.elapsed)
		}
	})
}

// Elapsed returns the measured duration. It is zero until End is called.
func (s *Scope) Elapsed() time.Duration {
	return s.elapsed
}

// Do runs fn inside a scope. The scope is closed on every exit path,
// including when fn returns an error or panics.
func Do(log hclog.Logger, label string, stats Stats, fn func() error) error {
	scope := Start(log, label, stats)
	defer scope.End()

	return fn()
}

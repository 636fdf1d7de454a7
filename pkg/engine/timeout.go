package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer Evaluate call started before this
// one finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

type evalResult struct {
	config *Config
	errors []EvalError
	err    error
}

// waitWithTimeout returns the result sent on ch unless limit passes first.
// A result whose generation gen is no longer current is dropped; the
// evaluating goroutine may outlive a timeout, and its late result is
// discarded the same way.
func waitWithTimeout(ch <-chan evalResult, gen uint64, mu *sync.Mutex, current *uint64, limit time.Duration) (*Config, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *current
		mu.Unlock()
		if stale {
			return nil, nil, ErrSuperseded
		}
		return res.config, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", limit)
	}
}

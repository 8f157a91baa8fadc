package engine

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	result *EvalResult
	err    error
}

// waitWithTimeout returns the first result from ch, or an error once limit
// elapses. A result whose generation is no longer current is discarded; a
// timed out goroutine may still finish later and is discarded the same way.
func waitWithTimeout(ch <-chan evalResult, limit time.Duration, gen uint64, mu *sync.Mutex, current *uint64) (*EvalResult, error) {
	if limit <= 0 {
		limit = EvalTimeout
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		stale := gen != *current
		mu.Unlock()
		if stale {
			return nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.result, res.err
	case <-timer.C:
		return nil, fmt.Errorf("evaluation timed out after %s", limit)
	}
}

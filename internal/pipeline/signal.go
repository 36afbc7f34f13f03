package pipeline

import "sync"

// Signal is the shared stop flag of a pool. Any worker may set it;
// setting is idempotent and visible to every reader without a data
// race. Once set, no worker starts processing another item.
type Signal struct {
	once sync.Once
	done chan struct{}
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set trips the signal. Safe to call from any number of goroutines;
// only the first call has an effect.
func (s *Signal) Set() {
	s.once.Do(func() { close(s.done) })
}

// IsSet reports whether the signal has been tripped.
func (s *Signal) IsSet() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the signal is set, for use in
// select loops.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

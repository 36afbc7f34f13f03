package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalSetOnce(t *testing.T) {
	s := NewSignal()
	assert.False(t, s.IsSet())

	// Concurrent sets must not panic and leave the signal set.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set()
		}()
	}
	wg.Wait()

	assert.True(t, s.IsSet())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel not closed after Set")
	}
}

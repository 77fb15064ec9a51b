package fs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_Coalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := int32(1); i <= 5; i++ {
		v := i
		d.add("room", func() {
			calls.Add(1)
			last.Store(v)
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 5, last.Load())
}

func TestDebouncer_StopAndWait(t *testing.T) {
	d := newDebouncer(time.Hour)
	var calls atomic.Int32
	d.add("a", func() { calls.Add(1) })
	d.add("b", func() { calls.Add(1) })

	start := time.Now()
	d.stopAndWait(time.Second)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	d.add("c", func() { calls.Add(1) })
	assert.EqualValues(t, 0, calls.Load())
}

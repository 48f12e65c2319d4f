package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicEvent_SendsCoalesce(t *testing.T) {
	ae := NewAtomicEvent[[]int]()
	assert.False(t, ae.HasPending())

	ae.Send([]int{1})
	ae.Send([]int{1, 2})
	assert.True(t, ae.HasPending())

	<-ae.Channel()
	assert.False(t, ae.HasPending(), "one notification for both sends")
	assert.Equal(t, []int{1, 2}, ae.Value())
}

func TestAtomicEvent_ConsumeSeesLatestValue(t *testing.T) {
	ae := NewAtomicEvent[int]()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan int, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ae.Consume(ctx, func(v int) { got <- v })
	}()

	for i := 1; i <= 100; i++ {
		ae.Send(i)
	}
	last := 0
	for last != 100 {
		select {
		case v := <-got:
			require.GreaterOrEqual(t, v, last, "values never go back")
			last = v
		case <-time.After(time.Second):
			t.Fatalf("latest value not consumed, last was %d", last)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

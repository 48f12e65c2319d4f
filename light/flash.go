package light

import (
	"github.com/gammazero/deque"

	"lautenbacher.net/neostrip/color"
	"lautenbacher.net/neostrip/schedule"
)

// flashSequence is the pending part of a mode acknowledgment: the colours
// still to show, one per FlashDelay. A nil *flashSequence means idle.
type flashSequence struct {
	steps  deque.Deque[color.Color]
	cancel schedule.Cancel
}

// newFlashSequence alternates off and c, count times.
func newFlashSequence(count int, c color.Color) *flashSequence {
	seq := &flashSequence{}
	for i := 0; i < count; i++ {
		seq.steps.PushBack(color.Black())
		seq.steps.PushBack(c)
	}
	return seq
}

func (s *flashSequence) next() (color.Color, bool) {
	if s.steps.Len() == 0 {
		return color.Color{}, false
	}
	return s.steps.PopFront(), true
}

func (s *flashSequence) remaining() int {
	return s.steps.Len()
}

func (s *flashSequence) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.steps.Clear()
}

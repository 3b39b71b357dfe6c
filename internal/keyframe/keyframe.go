// Package keyframe holds the authored settings records that anchor
// interpolation, and computes eased blends between them.
package keyframe

import (
	"errors"
	"fmt"
	"sort"

	"github.com/odemakov/rawtherapee-timelapse/internal/pp3"
)

var (
	// ErrMissingKeyframes means fewer than two valid keyframes were supplied.
	ErrMissingKeyframes = errors.New("at least 2 keyframes required")
	// ErrNonMonotonicIndex means keyframe indices are not in increasing order.
	ErrNonMonotonicIndex = errors.New("keyframe indices not increasing")
	// ErrDuplicateIndex means two keyframes share a frame index.
	ErrDuplicateIndex = errors.New("duplicate keyframe index")
)

// Scalars are the interpolated develop settings of one frame.
type Scalars struct {
	Temperature  float64 // white balance, Kelvin
	Green        float64 // tint multiplier
	Compensation float64 // exposure, stops
}

// Keyframe is an authored settings record at a specific frame index.
// Settings carries the full parsed profile for field passthrough.
type Keyframe struct {
	Index int
	Scalars
	Settings *pp3.File
}

// Store holds the validated, ordered keyframe set. Immutable after
// construction, safe for concurrent readers.
type Store struct {
	frames []Keyframe
}

// NewStore validates the supplied keyframes. The list must hold at
// least two records with strictly increasing, non-negative indices.
func NewStore(frames []Keyframe) (*Store, error) {
	if len(frames) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrMissingKeyframes, len(frames))
	}
	for i, kf := range frames {
		if kf.Index < 0 {
			return nil, fmt.Errorf("%w: negative index %d", ErrNonMonotonicIndex, kf.Index)
		}
		if i == 0 {
			continue
		}
		switch {
		case kf.Index == frames[i-1].Index:
			return nil, fmt.Errorf("%w: frame %d", ErrDuplicateIndex, kf.Index)
		case kf.Index < frames[i-1].Index:
			return nil, fmt.Errorf("%w: frame %d after %d", ErrNonMonotonicIndex, kf.Index, frames[i-1].Index)
		}
	}
	own := make([]Keyframe, len(frames))
	copy(own, frames)
	return &Store{frames: own}, nil
}

// Len returns the number of keyframes.
func (s *Store) Len() int {
	return len(s.frames)
}

// All returns the keyframes in index order.
func (s *Store) All() []Keyframe {
	out := make([]Keyframe, len(s.frames))
	copy(out, s.frames)
	return out
}

// First returns the earliest keyframe.
func (s *Store) First() Keyframe {
	return s.frames[0]
}

// Last returns the latest keyframe.
func (s *Store) Last() Keyframe {
	return s.frames[len(s.frames)-1]
}

// MaxIndex returns the highest keyframe frame index.
func (s *Store) MaxIndex() int {
	return s.frames[len(s.frames)-1].Index
}

// Bracket returns the two keyframes straddling frame. Outside the
// keyframe range, or exactly on a keyframe, both returns are the same
// record; interpolation then clamps to it.
func (s *Store) Bracket(frame int) (prev, next Keyframe) {
	if frame <= s.frames[0].Index {
		return s.frames[0], s.frames[0]
	}
	last := s.frames[len(s.frames)-1]
	if frame >= last.Index {
		return last, last
	}

	// First keyframe with Index >= frame.
	i := sort.Search(len(s.frames), func(i int) bool {
		return s.frames[i].Index >= frame
	})
	if s.frames[i].Index == frame {
		return s.frames[i], s.frames[i]
	}
	return s.frames[i-1], s.frames[i]
}

// Nearer picks the bracketing keyframe closer to frame, ties going to
// prev. Non-interpolated fields are inherited from this record.
func Nearer(prev, next Keyframe, frame int) Keyframe {
	if frame-prev.Index <= next.Index-frame {
		return prev
	}
	return next
}

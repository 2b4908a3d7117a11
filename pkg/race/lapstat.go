package race

import (
	"fmt"
	"math"
	"time"
)

// Unset marks a timestamp that has not been recorded yet.
const Unset = time.Duration(math.MaxInt64)

// LapStat records the timestamps of one lap. Timestamps are durations since
// the start of the session. Use InvalidLapStat or LapStatFrom to create one.
type LapStat struct {
	start       time.Duration
	finish      time.Duration
	checkpoints map[uint8]time.Duration
}

// InvalidLapStat is a lap that has not started.
func InvalidLapStat() LapStat {
	return LapStat{start: Unset, finish: Unset, checkpoints: map[uint8]time.Duration{}}
}

// LapStatFrom is a lap started at top.
func LapStatFrom(top time.Duration) LapStat {
	return LapStat{start: top, finish: Unset, checkpoints: map[uint8]time.Duration{}}
}

func (s *LapStat) Start() time.Duration  { return s.start }
func (s *LapStat) Finish() time.Duration { return s.finish }
func (s *LapStat) Started() bool         { return s.start != Unset }

// Update moves the finish timestamp to top.
func (s *LapStat) Update(top time.Duration) {
	s.finish = top
}

// CompletedLap feeds a crossed checkpoint into the lap.
// Crossing the start gate (tag 0) starts a lap that has not started yet.
// Otherwise it completes the lap if every checkpoint in [1, count) has been
// recorded. Any other tag records its timestamp.
func (s *LapStat) CompletedLap(checkpoint, count uint8, top time.Duration) bool {
	if checkpoint != 0 {
		if s.checkpoints == nil {
			s.checkpoints = map[uint8]time.Duration{}
		}
		s.checkpoints[checkpoint] = top
		return false
	}
	if !s.Started() {
		s.start = top
		return false
	}
	for k := uint8(1); k < count; k++ {
		if _, ok := s.checkpoints[k]; !ok {
			return false
		}
	}
	return true
}

func (s *LapStat) IsValid() bool {
	return s.start != Unset && s.finish != Unset && s.start <= s.finish
}

// LapDuration panics if the lap is not valid. Check IsValid first.
func (s *LapStat) LapDuration() time.Duration {
	if !s.IsValid() {
		panic(fmt.Sprintf("lap duration of invalid lap (start=%d finish=%d)", s.start, s.finish))
	}
	return s.finish - s.start
}

// CheckpointDuration returns the split time of checkpoint k relative to the
// lap start. A checkpoint crossed before the start has no split.
func (s *LapStat) CheckpointDuration(k uint8) (time.Duration, bool) {
	if !s.Started() {
		return 0, false
	}
	top, ok := s.checkpoints[k]
	if !ok || top < s.start {
		return 0, false
	}
	return top - s.start, true
}

// Splits returns all recorded split times keyed by checkpoint.
func (s *LapStat) Splits() map[uint8]time.Duration {
	ret := make(map[uint8]time.Duration, len(s.checkpoints))
	for k := range s.checkpoints {
		if d, ok := s.CheckpointDuration(k); ok {
			ret[k] = d
		}
	}
	return ret
}

// Clone returns a copy that shares no state with s.
func (s *LapStat) Clone() LapStat {
	ret := LapStat{start: s.start, finish: s.finish, checkpoints: make(map[uint8]time.Duration, len(s.checkpoints))}
	for k, v := range s.checkpoints {
		ret.checkpoints[k] = v
	}
	return ret
}

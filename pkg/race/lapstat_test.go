package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type crossing struct {
	tag uint8
	at  time.Duration
}

func TestLapStat_CompletedLap(t *testing.T) {
	tests := []struct {
		name      string
		count     uint8
		crossings []crossing
		want      []bool
	}{
		{
			name:      "gate only completes on second crossing",
			count:     1,
			crossings: []crossing{{0, 1 * time.Second}, {0, 9 * time.Second}},
			want:      []bool{false, true},
		},
		{
			name:      "gate, checkpoint, gate",
			count:     2,
			crossings: []crossing{{0, 1 * time.Second}, {1, 4 * time.Second}, {0, 9 * time.Second}},
			want:      []bool{false, false, true},
		},
		{
			name:      "skipped checkpoint",
			count:     2,
			crossings: []crossing{{0, 1 * time.Second}, {0, 9 * time.Second}},
			want:      []bool{false, false},
		},
		{
			name:  "one of two checkpoints skipped",
			count: 3,
			crossings: []crossing{
				{0, 1 * time.Second}, {2, 4 * time.Second}, {0, 9 * time.Second},
			},
			want: []bool{false, false, false},
		},
		{
			name:      "checkpoint recorded before the start counts",
			count:     2,
			crossings: []crossing{{1, 1 * time.Second}, {0, 2 * time.Second}, {0, 9 * time.Second}},
			want:      []bool{false, false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InvalidLapStat()
			for i, c := range tt.crossings {
				assert.Equal(t, tt.want[i], s.CompletedLap(c.tag, tt.count, c.at), "crossing %d", i)
			}
		})
	}
}

func TestLapStat_validity(t *testing.T) {
	s := InvalidLapStat()
	assert.False(t, s.IsValid())
	assert.False(t, s.Started())
	assert.Panics(t, func() { s.LapDuration() })
	_, ok := s.CheckpointDuration(1)
	assert.False(t, ok)

	s.Update(3 * time.Second)
	assert.False(t, s.IsValid(), "finish without start")

	s = LapStatFrom(2 * time.Second)
	assert.True(t, s.Started())
	assert.False(t, s.IsValid(), "start without finish")
	s.Update(1 * time.Second)
	assert.False(t, s.IsValid(), "finish before start")
	s.Update(5 * time.Second)
	require.True(t, s.IsValid())
	assert.Equal(t, 3*time.Second, s.LapDuration())
}

func TestLapStat_splits(t *testing.T) {
	s := LapStatFrom(10 * time.Second)
	s.CompletedLap(1, 3, 12*time.Second)
	s.CompletedLap(2, 3, 15*time.Second)
	s.CompletedLap(1, 3, 13*time.Second) // overwrites

	d, ok := s.CheckpointDuration(1)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	_, ok = s.CheckpointDuration(3)
	assert.False(t, ok)
	assert.Equal(t, map[uint8]time.Duration{1: 3 * time.Second, 2: 5 * time.Second}, s.Splits())

	c := s.Clone()
	c.CompletedLap(2, 3, 20*time.Second)
	d, _ = s.CheckpointDuration(2)
	assert.Equal(t, 5*time.Second, d, "clone shares no state")
}

func TestLapStat_checkpointBeforeStart(t *testing.T) {
	s := InvalidLapStat()
	assert.False(t, s.CompletedLap(1, 2, 1*time.Second))
	assert.False(t, s.CompletedLap(0, 2, 2*time.Second))
	assert.True(t, s.CompletedLap(0, 2, 9*time.Second), "early checkpoint still counts")

	_, ok := s.CheckpointDuration(1)
	assert.False(t, ok)
	assert.Empty(t, s.Splits())
}

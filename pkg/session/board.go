package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/splash-track/pkg/race"
)

var rankNames = []string{"1st", "2nd", "3rd"}

// Standing is one line of the best lap board.
type Standing struct {
	Rank   string
	Player race.Player
	Best   time.Duration
}

// Leaderboard ranks vehicles with a valid best lap, fastest first.
func (s *Session) Leaderboard() []Standing {
	ranked := lo.Filter(s.ordered(), func(v *race.Vehicle, _ int) bool {
		return v.Best.IsValid()
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Best.LapDuration() < ranked[j].Best.LapDuration()
	})
	ret := make([]Standing, 0, len(ranked))
	for i, v := range ranked {
		rank := fmt.Sprintf("%dth", i+1)
		if i < len(rankNames) {
			rank = rankNames[i]
		}
		ret = append(ret, Standing{Rank: rank, Player: v.Player, Best: v.Best.LapDuration()})
	}
	return ret
}

// BoardText renders the leaderboard as shown on the best lap board.
func (s *Session) BoardText() string {
	lines := lo.Map(s.Leaderboard(), func(st Standing, _ int) string {
		return fmt.Sprintf("%s %6.3f %s", st.Player, st.Best.Seconds(), st.Rank)
	})
	return strings.Join(append(lines, "BEST LAP"), "\n")
}

func seconds(s *race.LapStat) float64 {
	if !s.IsValid() {
		return 0
	}
	return s.LapDuration().Seconds()
}

// compare renders a reference split: absent, the split itself when the
// current lap has not reached k yet, or the delta to the current split.
func compare(current, ref *race.LapStat, k uint8) string {
	refSplit, ok := ref.CheckpointDuration(k)
	if !ok {
		return "     _"
	}
	if cur, ok := current.CheckpointDuration(k); ok {
		return fmt.Sprintf("%+5.3f", (cur - refSplit).Seconds())
	}
	return fmt.Sprintf("%6.3f", refSplit.Seconds())
}

// Status renders the timing panel of one vehicle.
func (s *Session) Status(id race.EntityID) (string, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	lines := []string{fmt.Sprintf("%s layer%d lap%d\ncurrent   last   best\n%6.3f %6.3f %6.3f",
		v.Player, v.Layer, v.LapCount,
		seconds(&v.Current), seconds(&v.Last), seconds(&v.Best))}
	for k := uint8(1); k < s.track.CheckpointCount; k++ {
		current := "     _"
		if d, ok := v.Current.CheckpointDuration(k); ok {
			current = fmt.Sprintf("%6.3f", d.Seconds())
		}
		lines = append(lines, fmt.Sprintf("#%d %s %s %s", k, current,
			compare(&v.Current, &v.Last, k), compare(&v.Current, &v.Best, k)))
	}
	return strings.Join(lines, "\n"), nil
}

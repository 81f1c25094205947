package game

import (
	"fmt"
	"math"
)

// Risk estimation. Pure functions over a snapshot: no mutation, no stored
// state, cheap enough to run per player on every render. The figures are
// advisory only and never feed back into the engine's transitions.

// assumedGainPerTurn is the fallback per-turn gain when the current turn has
// produced no scoring data at all.
const assumedGainPerTurn = 12

// LossProbability estimates, as an integer percentage 0-100, how likely the
// player is to end up the loser.
//
// Finished games are certain: 100 for the recorded loser, 0 for the rest.
// Before anyone has scored there is no signal and every player gets 0. A
// player already at or over the ceiling mid-turn gets 100. Otherwise the
// result is the strongest of three signals: the player's remaining headroom
// normalized against the field's headroom spread, a leader floor (70 when
// leading, 65 when tied with the leader), and a closeness floor (80 within 5
// points of the ceiling, 60 within 10).
func LossProbability(st *State, playerID string) int {
	if st == nil {
		return 0
	}
	idx := st.playerIndex(playerID)
	if idx < 0 {
		return 0
	}
	p := st.Players[idx]

	if st.Status == StatusFinished {
		if p.ID == st.LoserID {
			return 100
		}
		return 0
	}

	allZero := true
	for i := range st.Players {
		if st.Players[i].Score != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return 0
	}

	remaining := st.MaxScore - p.Score
	if remaining <= 0 {
		return 100
	}

	maxRemaining := st.MaxScore - st.Players[0].Score
	minRemaining := maxRemaining
	for i := range st.Players {
		r := st.MaxScore - st.Players[i].Score
		if r > maxRemaining {
			maxRemaining = r
		}
		if r < minRemaining {
			minRemaining = r
		}
	}

	prob := 100.0
	if spread := maxRemaining - minRemaining; spread > 0 {
		prob = float64(maxRemaining-remaining) / float64(spread) * 100
	}

	// Leader floors: first player holding the highest score counts as the
	// leader, everyone else on the same score is merely tied with them.
	leader := st.Players[0]
	for i := range st.Players {
		if st.Players[i].Score > leader.Score {
			leader = st.Players[i]
		}
	}
	if p.Score == leader.Score {
		if p.ID == leader.ID {
			prob = math.Max(prob, 70)
		} else {
			prob = math.Max(prob, 65)
		}
	}

	if remaining <= 5 {
		prob = math.Max(prob, 80)
	} else if remaining <= 10 {
		prob = math.Max(prob, 60)
	}

	return int(math.Min(100, math.Max(0, math.Round(prob))))
}

// ExpectedTurnsToFinish estimates how many more turns until the player
// crosses the ceiling. The second return is false when no estimate exists:
// the game is finished, the player has not scored yet, or there is no
// positive average gain to extrapolate from.
//
// The average per-turn gain prefers the player's own actions this turn,
// falls back to all players' actions, and finally to a fixed assumed gain.
func ExpectedTurnsToFinish(st *State, playerID string) (int, bool) {
	if st == nil {
		return 0, false
	}
	idx := st.playerIndex(playerID)
	if idx < 0 {
		return 0, false
	}
	p := st.Players[idx]

	if st.Status == StatusFinished || p.Score == 0 {
		return 0, false
	}
	remaining := st.MaxScore - p.Score
	if remaining <= 0 {
		return 0, true
	}

	avg := averageGainPerTurn(st.TurnActions, p.ID)
	if avg == 0 {
		avg = averageGainPerTurn(st.TurnActions, "")
	}
	if avg == 0 && len(st.TurnActions) == 0 {
		avg = assumedGainPerTurn
	}
	if avg <= 0 {
		return 0, false
	}
	return int(math.Ceil(float64(remaining) / avg)), true
}

// averageGainPerTurn sums actions per (turn, player) bucket and averages the
// bucket totals. An empty playerID widens the filter to every player. Zero
// means no matching data.
func averageGainPerTurn(actions []ScoreAction, playerID string) float64 {
	buckets := map[string]int{}
	for _, a := range actions {
		if playerID != "" && a.PlayerID != playerID {
			continue
		}
		key := fmt.Sprintf("%d-%s", a.Turn, a.PlayerID)
		buckets[key] += a.Delta
	}
	if len(buckets) == 0 {
		return 0
	}
	total := 0
	for _, sum := range buckets {
		total += sum
	}
	return float64(total) / float64(len(buckets))
}

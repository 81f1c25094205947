package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------- Types & Constants ----------

// Status indicates whether a game is still being played or has ended.
type Status string

const (
	// StatusPlaying means the game accepts score additions and turn advances.
	StatusPlaying Status = "playing"
	// StatusFinished means a player crossed the ceiling at a turn boundary.
	// Terminal for forward play, but reversible through UndoLast.
	StatusFinished Status = "finished"
)

const (
	// MinPlayers is the minimum number of players a game needs.
	MinPlayers = 2
	// DefaultMaxScore is the ceiling used when none is configured.
	DefaultMaxScore = 100
)

// StorageKey is where the persistence adapter keeps the current snapshot.
// Kept identical to the key used by earlier releases so stored games survive.
const StorageKey = "death-point-game-config"

// Player is a participant with an accumulated score. Players are fixed for
// the lifetime of a game; only the engine mutates Score.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// TurnProgress records which players have already scored in the current turn.
type TurnProgress map[string]bool

// ScoreAction is one undo-log entry: a recorded score addition plus the
// snapshot fields needed to invert it exactly once.
type ScoreAction struct {
	PlayerID     string       `json:"playerId"`
	Delta        int          `json:"delta"`
	Turn         int          `json:"turn"`
	Timestamp    int64        `json:"timestamp"`
	PrevProgress TurnProgress `json:"previousTurnProgress"`
	PrevStatus   Status       `json:"previousStatus"`
	PrevLoserID  string       `json:"previousLoserId,omitempty"`
}

// State is the full game state. The engine owns it exclusively; everything
// handed outside is a deep copy. JSON tags reproduce the persisted snapshot
// shape, one object per game under StorageKey.
type State struct {
	Players      []Player      `json:"players"`
	MaxScore     int           `json:"maxScore"`
	Status       Status        `json:"status"`
	LoserID      string        `json:"loserId,omitempty"`
	Turn         int           `json:"turn"`
	TurnProgress TurnProgress  `json:"turnProgress"`
	TurnActions  []ScoreAction `json:"turnActions"`
	StartTime    int64         `json:"startTime"`
}

// ---------- Errors ----------

// ValidationError reports expected misuse: bad input or an operation that
// the current state does not allow. Carried inside operation results, never
// panicked.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StorageError reports a persistence fault. Distinct from ValidationError so
// callers can tell "your input was invalid" from "the system could not save".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// ---------- Constructors ----------

// TrimNames trims every name and drops the empty ones, preserving order.
func TrimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if t := strings.TrimSpace(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CreatePlayers builds the initial roster: one player per name, each with a
// fresh unique id and a zero score. Order defines the loser tie-break.
func CreatePlayers(names []string) []Player {
	players := make([]Player, len(names))
	for i, name := range names {
		players[i] = Player{ID: uuid.NewString(), Name: name}
	}
	return players
}

// ---------- Load-Time Normalization ----------

// Normalize validates a snapshot coming back from the store and repairs the
// parts that may legitimately be stale. A structurally invalid snapshot is
// reported as absent (nil, false), never patched into a partial game.
//
// Repairs: turnProgress entries for unknown player ids are dropped, Turn
// defaults to 1, StartTime to now, negative scores clamp to zero, and an
// action log with any malformed entry resets to empty.
func Normalize(st *State, now time.Time) (*State, bool) {
	if st == nil {
		return nil, false
	}
	if len(st.Players) < MinPlayers || st.MaxScore < 1 {
		return nil, false
	}
	if st.Status != StatusPlaying && st.Status != StatusFinished {
		return nil, false
	}

	out := st.Clone()

	ids := make(map[string]bool, len(out.Players))
	for i := range out.Players {
		p := &out.Players[i]
		if p.ID == "" || ids[p.ID] {
			return nil, false
		}
		ids[p.ID] = true
		if p.Score < 0 {
			p.Score = 0
		}
	}

	// A finished game without a resolvable loser is not trustworthy.
	if out.Status == StatusFinished && !ids[out.LoserID] {
		return nil, false
	}

	if out.Turn < 1 {
		out.Turn = 1
	}
	if out.StartTime <= 0 {
		out.StartTime = now.UnixMilli()
	}

	progress := TurnProgress{}
	for id, scored := range out.TurnProgress {
		if scored && ids[id] {
			progress[id] = true
		}
	}
	out.TurnProgress = progress

	if out.TurnActions == nil {
		out.TurnActions = []ScoreAction{}
	}
	for _, a := range out.TurnActions {
		if !ids[a.PlayerID] || a.Delta <= 0 || a.Turn < 1 ||
			(a.PrevStatus != StatusPlaying && a.PrevStatus != StatusFinished) {
			out.TurnActions = []ScoreAction{}
			break
		}
	}

	return out, true
}

// ---------- Copy Helpers ----------

// Clone returns a deep copy of the progress map. A nil receiver clones to an
// empty, non-nil map.
func (tp TurnProgress) Clone() TurnProgress {
	out := make(TurnProgress, len(tp))
	for id, scored := range tp {
		out[id] = scored
	}
	return out
}

func (a ScoreAction) clone() ScoreAction {
	out := a
	out.PrevProgress = a.PrevProgress.Clone()
	return out
}

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	if st == nil {
		return nil
	}
	out := *st
	out.Players = make([]Player, len(st.Players))
	copy(out.Players, st.Players)
	out.TurnProgress = st.TurnProgress.Clone()
	out.TurnActions = make([]ScoreAction, len(st.TurnActions))
	for i, a := range st.TurnActions {
		out.TurnActions[i] = a.clone()
	}
	return &out
}

// playerIndex finds a player by id, -1 when absent.
func (st *State) playerIndex(id string) int {
	for i := range st.Players {
		if st.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// anyAtCeiling reports whether some player currently meets the loss condition.
func (st *State) anyAtCeiling() bool {
	for i := range st.Players {
		if st.Players[i].Score >= st.MaxScore {
			return true
		}
	}
	return false
}

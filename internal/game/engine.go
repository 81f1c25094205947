package game

import (
	"time"

	result "github.com/JustinKnueppel/go-result"
)

// Store is the durable key-value collaborator the engine writes through.
// Load returns (nil, nil) when no snapshot exists.
type Store interface {
	Load() (*State, error)
	Save(*State) error
	Clear() error
}

// Engine owns the authoritative game state and exposes the only way to
// mutate it. Operations are synchronous: validate, mutate in memory, then
// mirror to the store as the final step. Expected misuse comes back as a
// ValidationError inside the result; persistence faults as a StorageError.
//
// The engine itself is not goroutine safe. Callers running it from several
// goroutines must serialize access (the web shell holds a mutex).
type Engine struct {
	store Store
	state *State
	now   func() time.Time
}

// NewEngine loads whatever the store holds, normalizes it, and discards it
// as absent when it fails normalization. Only a store read fault is an error.
func NewEngine(store Store) (*Engine, error) {
	e := &Engine{store: store, now: time.Now}
	stored, err := store.Load()
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	if st, ok := Normalize(stored, e.now()); ok {
		e.state = st
	}
	return e, nil
}

// Snapshot returns a deep copy of the current state, nil when no game is
// active.
func (e *Engine) Snapshot() *State {
	return e.state.Clone()
}

// Loser returns a copy of the recorded loser, nil while nobody has lost.
func (e *Engine) Loser() *Player {
	if e.state == nil || e.state.LoserID == "" {
		return nil
	}
	if i := e.state.playerIndex(e.state.LoserID); i >= 0 {
		p := e.state.Players[i]
		return &p
	}
	return nil
}

// Start creates a fresh game from the given names and ceiling, replacing any
// game in progress. Names are trimmed and empties dropped before counting.
func (e *Engine) Start(names []string, maxScore int) result.Result[*State] {
	trimmed := TrimNames(names)
	if len(trimmed) < MinPlayers {
		return result.Err[*State](validationf("need at least %d players", MinPlayers))
	}
	if maxScore < 1 {
		return result.Err[*State](validationf("max score must be greater than zero"))
	}

	e.state = &State{
		Players:      CreatePlayers(trimmed),
		MaxScore:     maxScore,
		Status:       StatusPlaying,
		Turn:         1,
		TurnProgress: TurnProgress{},
		TurnActions:  []ScoreAction{},
		StartTime:    e.now().UnixMilli(),
	}
	return e.persist()
}

// AddScore adds delta to a player's score and records the inversion entry in
// the turn's action log. The loss condition is deliberately not evaluated
// here; only NextTurn can finish a game.
func (e *Engine) AddScore(playerID string, delta int) result.Result[*State] {
	if e.state == nil {
		return result.Err[*State](validationf("no active game"))
	}
	if e.state.Status == StatusFinished {
		return result.Err[*State](validationf("game is already finished"))
	}
	if delta <= 0 {
		return result.Err[*State](validationf("score delta must be positive"))
	}
	idx := e.state.playerIndex(playerID)
	if idx < 0 {
		return result.Err[*State](validationf("unknown player %q", playerID))
	}

	st := e.state
	st.TurnActions = append(st.TurnActions, ScoreAction{
		PlayerID:     playerID,
		Delta:        delta,
		Turn:         st.Turn,
		Timestamp:    e.now().UnixMilli(),
		PrevProgress: st.TurnProgress.Clone(),
		PrevStatus:   st.Status,
		PrevLoserID:  st.LoserID,
	})
	st.Players[idx].Score += delta
	st.TurnProgress[playerID] = true
	return e.persist()
}

// UndoLast inverts the most recent score addition of the turn in progress:
// the delta comes back off (floored at zero) and progress, status, and loser
// are restored from the action's snapshot. Undoing can move a finished game
// back to playing when the subtraction clears the only player over the
// ceiling. The log is scoped to the current turn, so nothing recorded before
// the last turn advance can be undone.
func (e *Engine) UndoLast() result.Result[*State] {
	if e.state == nil || len(e.state.TurnActions) == 0 {
		return result.Err[*State](validationf("nothing to undo"))
	}
	st := e.state
	last := st.TurnActions[len(st.TurnActions)-1]
	if last.Turn != st.Turn {
		// Structurally unreachable: NextTurn clears the log. Kept as a guard.
		return result.Err[*State](validationf("cannot undo a previous turn"))
	}
	idx := st.playerIndex(last.PlayerID)
	if idx < 0 {
		return result.Err[*State](validationf("unknown player %q", last.PlayerID))
	}

	st.Players[idx].Score -= last.Delta
	if st.Players[idx].Score < 0 {
		st.Players[idx].Score = 0
	}

	st.Status = last.PrevStatus
	st.LoserID = last.PrevLoserID
	if st.Status == StatusFinished && !st.anyAtCeiling() {
		st.Status = StatusPlaying
		st.LoserID = ""
	}

	st.Turn = last.Turn
	st.TurnProgress = last.PrevProgress.Clone()
	st.TurnActions = st.TurnActions[:len(st.TurnActions)-1]
	return e.persist()
}

// NextTurn commits the turn in progress. The first player in creation order
// at or over the ceiling becomes the loser; ties among several players over
// the ceiling resolve by that order, not by score. Whatever the outcome, the
// turn counter advances and the progress map and action log are cleared.
func (e *Engine) NextTurn() result.Result[*State] {
	if e.state == nil {
		return result.Err[*State](validationf("no active game"))
	}
	st := e.state
	if st.Status == StatusFinished {
		return result.Err[*State](validationf("game is already finished"))
	}
	if len(st.TurnProgress) == 0 {
		return result.Err[*State](validationf("no one has scored this turn"))
	}

	for i := range st.Players {
		if st.Players[i].Score >= st.MaxScore {
			st.Status = StatusFinished
			st.LoserID = st.Players[i].ID
			break
		}
	}

	st.Turn++
	st.TurnProgress = TurnProgress{}
	st.TurnActions = []ScoreAction{}
	return e.persist()
}

// Restart unconditionally discards the game and clears the store. The only
// possible failure is the store itself.
func (e *Engine) Restart() error {
	e.state = nil
	if err := e.store.Clear(); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// persist mirrors the already-mutated in-memory state to the store and
// returns the operation result. A save fault surfaces as an error result so
// memory and storage never diverge silently.
func (e *Engine) persist() result.Result[*State] {
	if err := e.store.Save(e.state); err != nil {
		return result.Err[*State](&StorageError{Op: "save", Err: err})
	}
	return result.Ok(e.state.Clone())
}

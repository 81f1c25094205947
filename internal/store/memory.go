package store

import "github.com/stop1love1/death-point/internal/game"

// Memory is an in-memory game.Store. Tests use it in place of the durable
// adapter; SaveErr and ClearErr, when set, force the corresponding call to
// fail so the engine's storage-fault path can be exercised.
type Memory struct {
	state    *game.State
	SaveErr  error
	ClearErr error
	Saves    int
}

// NewMemory returns an empty store.
func NewMemory() *Memory { return &Memory{} }

// Seed pre-loads a snapshot, as if a previous session had persisted it.
func (m *Memory) Seed(st *game.State) { m.state = st.Clone() }

func (m *Memory) Load() (*game.State, error) {
	return m.state.Clone(), nil
}

func (m *Memory) Save(st *game.State) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = st.Clone()
	m.Saves++
	return nil
}

func (m *Memory) Clear() error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.state = nil
	return nil
}

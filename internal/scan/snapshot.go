package scan

import (
	"foozam/internal/filter"
	"foozam/internal/places"
	"foozam/internal/recognition"
)

// Snapshot is a consistent copy of the machine plus the filtered lists.
type Snapshot struct {
	State      State               `json:"state"`
	Generation uint64              `json:"generation"`
	Outcome    recognition.Outcome `json:"outcome,omitempty"`
	Filters    filter.Filters      `json:"filters"`
	Tags       []string            `json:"tags"`
	Places     []places.Place      `json:"places"`

	CanRetry        bool `json:"canRetry"`
	CanAddToDataset bool `json:"canAddToDataset"`
	CanChoose       bool `json:"canChooseCandidate"`
}

// Resolved returns the resolved outcome, if that is the active variant.
func (s Snapshot) Resolved() (*recognition.Resolved, bool) {
	r, ok := s.Outcome.(*recognition.Resolved)
	return r, ok
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(m.filters)
}

// View is Snapshot with f applied instead of the stored filters.
func (m *Machine) View(f filter.Filters) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(f)
}

func (m *Machine) snapshotLocked(f filter.Filters) Snapshot {
	s := Snapshot{
		State:           m.state,
		Generation:      m.gen,
		Outcome:         m.outcome,
		Filters:         f,
		CanRetry:        m.state == StateFailed && m.last != nil,
		CanAddToDataset: m.state == StateUnregistered && !m.adding,
		CanChoose:       m.state == StateAmbiguous || m.state == StateUnregistered,
	}
	if res, ok := m.outcome.(*recognition.Resolved); ok {
		s.Tags = filter.Tags(res.DietTags(), f.Diet)
		s.Places = filter.Places(m.places, f.City)
	}
	return s
}

package editor

import (
	"encoding/json"
	"fmt"
	"sync"
)

// SelectionSet tracks which of a document's images are selected for the
// case study. Listings always come back in the document's own image order,
// independent of the order toggles happened in.
type SelectionSet struct {
	mu       sync.Mutex
	order    []string
	selected map[string]bool
}

// NewSelectionSet creates a SelectionSet over the given document-ordered
// image IDs, with nothing selected.
func NewSelectionSet(orderedIDs []string) *SelectionSet {
	s := &SelectionSet{
		order:    append([]string(nil), orderedIDs...),
		selected: make(map[string]bool, len(orderedIDs)),
	}
	for _, id := range orderedIDs {
		s.selected[id] = false
	}
	return s
}

// Toggle flips the selection state of an image, returning the new state.
func (s *SelectionSet) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.selected[id]
	if !ok {
		return false, fmt.Errorf("unknown image: %s", id)
	}
	s.selected[id] = !state
	return !state, nil
}

// Selected reports whether an image is currently selected.
func (s *SelectionSet) Selected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[id]
}

// IDs returns the selected image IDs in document order.
func (s *SelectionSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for _, id := range s.order {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Count returns the number of selected images.
func (s *SelectionSet) Count() int {
	return len(s.IDs())
}

// JSON encodes the selected IDs, in document order, as a JSON array. This is
// the value the editor submits alongside the content.
func (s *SelectionSet) JSON() (string, error) {
	data, err := json.Marshal(s.IDs())
	if err != nil {
		return "", fmt.Errorf("encoding selection: %w", err)
	}
	return string(data), nil
}

// Restore marks the given IDs selected, ignoring unknown ones.
func (s *SelectionSet) Restore(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.selected[id]; ok {
			s.selected[id] = true
		}
	}
}

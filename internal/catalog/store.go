package catalog

import (
	"slices"
	"sync"
)

// Store holds the user's favorites and local edits for the session.
// It is safe for concurrent use. Operations never fail: they act on
// already-validated in-memory data.
type Store struct {
	mu        sync.RWMutex
	order     []string // favorite IDs in insertion order
	favorites map[string]*FavoriteEntry
	edits     map[string][]LocalEdit
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		favorites: make(map[string]*FavoriteEntry),
		edits:     make(map[string][]LocalEdit),
	}
}

// AddFavorite snapshots detail's displayed fields. Adding an entity that is
// already a favorite is a no-op.
func (s *Store) AddFavorite(detail EntityDetail) {
	if detail.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[detail.ID]; ok {
		return
	}
	fields := detail.Display()
	for _, e := range s.edits[detail.ID] {
		fields[e.Field] = e.Value
	}
	s.favorites[detail.ID] = &FavoriteEntry{EntityID: detail.ID, Fields: fields}
	s.order = append(s.order, detail.ID)
}

// RemoveFavorite deletes the favorite for entityID, if any.
func (s *Store) RemoveFavorite(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[entityID]; !ok {
		return
	}
	delete(s.favorites, entityID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == entityID })
}

// IsFavorite reports whether entityID is a favorite.
func (s *Store) IsFavorite(entityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[entityID]
	return ok
}

// ListFavorites returns copies of all favorites in insertion order.
func (s *Store) ListFavorites() []FavoriteEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FavoriteEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.favorites[id].clone())
	}
	return out
}

// ApplyEdit records a local override for one field. It is visible to the
// next Overlay call and, for favorites, updates the snapshot in place so
// the favorites view and the detail view never diverge.
func (s *Store) ApplyEdit(entityID, field, value string) {
	if entityID == "" || field == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edits[entityID] = append(s.edits[entityID], LocalEdit{EntityID: entityID, Field: field, Value: value})
	if fav, ok := s.favorites[entityID]; ok {
		fav.Fields[field] = value
	}
}

// Edits returns the edits for entityID in the order they were applied.
func (s *Store) Edits(entityID string) []LocalEdit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edits[entityID])
}

// Effective applies the merge rule for one field: the latest edit, else the
// fetched value, else Unknown.
func (s *Store) Effective(entityID, field string, fetched map[string]string) string {
	s.mu.RLock()
	edits := s.edits[entityID]
	s.mu.RUnlock()

	for i := len(edits) - 1; i >= 0; i-- {
		if edits[i].Field == field {
			return edits[i].Value
		}
	}
	if v := fetched[field]; v != "" {
		return v
	}
	return Unknown
}

// Overlay returns a copy of d with the entity's edits applied in order.
// An edit to the related field also replaces the resolved related name.
func (s *Store) Overlay(d EntityDetail) EntityDetail {
	out := d.clone()

	s.mu.RLock()
	edits := s.edits[d.ID]
	s.mu.RUnlock()

	if len(edits) == 0 {
		return out
	}
	if out.Fields == nil {
		out.Fields = make(map[string]string, len(edits))
	}
	for _, e := range edits {
		out.Fields[e.Field] = e.Value
		if e.Field == out.RelatedField && out.RelatedField != "" {
			out.RelatedName = e.Value
		}
	}
	return out
}

// Forget drops the edits of a non-favorite entity and reports whether it did.
// Favorites keep their edits.
func (s *Store) Forget(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[entityID]; ok {
		return false
	}
	if _, ok := s.edits[entityID]; !ok {
		return false
	}
	delete(s.edits, entityID)
	return true
}

// Reset clears all favorites and edits.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	clear(s.favorites)
	clear(s.edits)
}


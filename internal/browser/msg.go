// Package browser implements the interactive catalog TUI: a paginated,
// searchable list, an editable detail view and a favorites view.
package browser

import (
	"context"

	"github.com/smileynet/roster/internal/catalog"
)

// Mode represents the current browser view.
type Mode int

const (
	ModeList      Mode = iota // Paginated entity list with search.
	ModeDetail                // One resolved entity with editable fields.
	ModeFavorites             // Session favorites.
)

// Catalog is the session as seen by the browser.
// *catalog.Session satisfies it.
type Catalog interface {
	GetPage(ctx context.Context, pageNumber, pageSize int, searchTerm string) (catalog.Page, error)
	Resolve(ctx context.Context, entityID string) (catalog.EntityDetail, error)
	AddFavorite(detail catalog.EntityDetail)
	RemoveFavorite(entityID string)
	IsFavorite(entityID string) bool
	ListFavorites() []catalog.FavoriteEntry
	ApplyEdit(entityID, field, value string)
}

var _ Catalog = (*catalog.Session)(nil)

// --- tea.Msg types ---

// PageMsg carries the result of a Catalog.GetPage call. Number and Search
// echo the request so stale answers can be dropped.
type PageMsg struct {
	Number int
	Search string
	Page   catalog.Page
	Err    error
}

// RowResolvedMsg carries the resolution of one list row.
type RowResolvedMsg struct {
	ID     string
	Detail catalog.EntityDetail
	Err    error
}

// DetailMsg carries the resolution of the entity opened in detail mode.
type DetailMsg struct {
	ID     string
	Detail catalog.EntityDetail
	Err    error
}

// OpenDetailMsg signals that the user selected an entity to inspect.
type OpenDetailMsg struct {
	ID   string
	Name string
}

// ReloadMsg signals that the current page should be fetched again.
// listState emits this on 'r'; Model.Update intercepts it and calls loadPage.
type ReloadMsg struct{}

// EditMsg signals that the user saved a new value for one field.
type EditMsg struct {
	ID    string
	Field string
	Value string
}

// AddFavoriteMsg signals that the user favorited the entity in detail mode.
type AddFavoriteMsg struct {
	ID string
}

// RemoveFavoriteMsg signals that the user removed a favorite.
type RemoveFavoriteMsg struct {
	ID string
}

// BackMsg signals that the current view should return to the list.
type BackMsg struct{}

package browser

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/roster/internal/catalog"
)

// EmptyFavorites is shown when no favorites exist.
const EmptyFavorites = "No favorites added yet!"

// favoritesState manages the favorites list and its cursor.
type favoritesState struct {
	entries []catalog.FavoriteEntry
	cursor  int
}

// newFavoritesState snapshots entries for display.
func newFavoritesState(entries []catalog.FavoriteEntry) favoritesState {
	return favoritesState{entries: entries}
}

// Update processes messages for the favorites state.
func (fs favoritesState) Update(msg tea.Msg) (favoritesState, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return fs, nil
	}
	switch key.String() {
	case "up", "k":
		if len(fs.entries) > 0 {
			fs.cursor--
			if fs.cursor < 0 {
				fs.cursor = len(fs.entries) - 1
			}
		}
	case "down", "j":
		if len(fs.entries) > 0 {
			fs.cursor = (fs.cursor + 1) % len(fs.entries)
		}
	case "d":
		if fs.cursor < len(fs.entries) {
			id := fs.entries[fs.cursor].EntityID
			return fs, func() tea.Msg { return RemoveFavoriteMsg{ID: id} }
		}
	case "esc":
		return fs, func() tea.Msg { return BackMsg{} }
	}
	return fs, nil
}

// refresh replaces the entries after a change, keeping the cursor in range.
func (fs favoritesState) refresh(entries []catalog.FavoriteEntry) favoritesState {
	fs.entries = entries
	if fs.cursor >= len(entries) {
		fs.cursor = max(len(entries)-1, 0)
	}
	return fs
}

// View renders favorites as cards showing name, height, gender and the
// related entity's name.
func (fs favoritesState) View(relatedField, relatedLabel string) string {
	if len(fs.entries) == 0 {
		return mutedText.Render(EmptyFavorites)
	}
	cards := make([]string, 0, len(fs.entries))
	for i, e := range fs.entries {
		var b strings.Builder
		b.WriteString(titleStyle.Render(e.Value("name")))
		for _, field := range editableFields {
			fmt.Fprintf(&b, "\n%s %s", labelStyle.Render(titleCase(field)+":"), e.Value(field))
		}
		if relatedField != "" {
			fmt.Fprintf(&b, "\n%s %s", labelStyle.Render(titleCase(relatedLabel)+":"), e.Value(relatedField))
		}
		cards = append(cards, Card(b.String(), i == fs.cursor))
	}
	return strings.Join(cards, "\n")
}

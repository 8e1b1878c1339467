package browser

import "github.com/charmbracelet/bubbles/help"

// HelpBindings returns the help.KeyMap for the given mode. typing is true
// while the search box or a field editor has focus.
func HelpBindings(mode Mode, typing bool) help.KeyMap {
	switch mode {
	case ModeDetail:
		if typing {
			return EditKeyMap()
		}
		return DetailKeyMap()
	case ModeFavorites:
		return FavoritesKeyMap()
	default:
		if typing {
			return SearchKeyMap()
		}
		return ListKeyMap()
	}
}

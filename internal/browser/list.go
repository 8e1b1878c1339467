package browser

import (
	"context"
	"fmt"
	"maps"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/roster/internal/catalog"
)

// rowState is the resolution progress of one list row.
type rowState struct {
	detail   catalog.EntityDetail
	err      error
	resolved bool
}

// listState manages the current page, its row resolutions, the cursor and
// the loading/error states for list mode.
type listState struct {
	number  int    // requested page number
	search  string // applied search term
	page    catalog.Page
	rows    map[string]rowState
	cursor  int
	loading bool
	err     error
}

// newListState returns a listState loading page 1 without a search.
func newListState() listState {
	return listState{number: 1, loading: true, rows: make(map[string]rowState)}
}

// loadPage returns a tea.Cmd that fetches one page asynchronously and wraps
// the result in a PageMsg.
func loadPage(ctx context.Context, cat Catalog, number, size int, search string) tea.Cmd {
	return func() tea.Msg {
		page, err := cat.GetPage(ctx, number, size, search)
		return PageMsg{Number: number, Search: search, Page: page, Err: err}
	}
}

// resolveRow returns a tea.Cmd that resolves one list row.
func resolveRow(ctx context.Context, cat Catalog, id string) tea.Cmd {
	return func() tea.Msg {
		d, err := cat.Resolve(ctx, id)
		return RowResolvedMsg{ID: id, Detail: d, Err: err}
	}
}

// Update processes messages for the list state.
func (ls listState) Update(msg tea.Msg) (listState, tea.Cmd) {
	switch msg := msg.(type) {
	case PageMsg:
		if msg.Number != ls.number || msg.Search != ls.search {
			return ls, nil
		}
		return ls.applyPage(msg.Page, msg.Err), nil

	case RowResolvedMsg:
		if _, ok := ls.rows[msg.ID]; !ok {
			return ls, nil
		}
		ls.rows = maps.Clone(ls.rows)
		ls.rows[msg.ID] = rowState{detail: msg.Detail, err: msg.Err, resolved: true}
		return ls, nil

	case tea.KeyMsg:
		if ls.loading {
			return ls, nil
		}
		return ls.handleKey(msg)
	}

	return ls, nil
}

// applyPage applies a fetched page (or error) to the list state, clearing
// the loading indicator and resetting the cursor.
func (ls listState) applyPage(page catalog.Page, err error) listState {
	ls.loading = false
	if err != nil {
		ls.err = err
		ls.page = catalog.Page{}
		ls.rows = make(map[string]rowState)
		return ls
	}
	ls.err = nil
	ls.page = page
	ls.cursor = 0
	rows := make(map[string]rowState, len(page.Items))
	for _, it := range page.Items {
		rows[it.ID] = ls.rows[it.ID]
	}
	ls.rows = rows
	return ls
}

// pending returns the IDs on the page that have no resolution yet.
func (ls listState) pending() []string {
	var ids []string
	for _, it := range ls.page.Items {
		if !ls.rows[it.ID].resolved {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// goTo switches to page number with the given search and marks it loading.
func (ls listState) goTo(number int, search string) listState {
	ls.number = number
	ls.search = search
	ls.loading = true
	ls.err = nil
	return ls
}

func (ls listState) handleKey(msg tea.KeyMsg) (listState, tea.Cmd) {
	items := ls.page.Items
	switch msg.String() {
	case "up", "k":
		if len(items) > 0 {
			ls.cursor--
			if ls.cursor < 0 {
				ls.cursor = len(items) - 1
			}
		}
		return ls, nil

	case "down", "j":
		if len(items) > 0 {
			ls.cursor++
			if ls.cursor >= len(items) {
				ls.cursor = 0
			}
		}
		return ls, nil

	case "left", "h":
		if ls.page.HasPrevious && ls.number > 1 {
			return ls.goTo(ls.number-1, ls.search), reload
		}
		return ls, nil

	case "right", "l":
		if ls.page.HasNext {
			return ls.goTo(ls.number+1, ls.search), reload
		}
		return ls, nil

	case "enter":
		if it, ok := ls.Selected(); ok {
			return ls, func() tea.Msg { return OpenDetailMsg{ID: it.ID, Name: it.Name} }
		}
		return ls, nil

	case "r":
		return ls.goTo(ls.number, ls.search), reload
	}

	return ls, nil
}

func reload() tea.Msg { return ReloadMsg{} }

// Selected returns the reference under the cursor.
func (ls listState) Selected() (catalog.EntityReference, bool) {
	items := ls.page.Items
	if len(items) == 0 || ls.cursor < 0 || ls.cursor >= len(items) {
		return catalog.EntityReference{}, false
	}
	return items[ls.cursor], true
}

// updateRow replaces a resolved row, if it is on the current page.
func (ls listState) updateRow(d catalog.EntityDetail) listState {
	if _, ok := ls.rows[d.ID]; !ok {
		return ls
	}
	ls.rows = maps.Clone(ls.rows)
	ls.rows[d.ID] = rowState{detail: d, resolved: true}
	return ls
}

// Footer renders the pagination line.
func (ls listState) Footer() string {
	total := "?"
	if ls.page.TotalPages > 0 {
		total = fmt.Sprint(ls.page.TotalPages)
	}
	prev, next := "← prev", "next →"
	if !ls.page.HasPrevious {
		prev = mutedText.Render(prev)
	}
	if !ls.page.HasNext {
		next = mutedText.Render(next)
	}
	return fmt.Sprintf("%s   Page %d of %s   %s", prev, ls.number, total, next)
}

// View renders the list body. spinnerView is the current spinner frame.
func (ls listState) View(width int, relatedLabel, spinnerView string) string {
	if ls.loading {
		return fmt.Sprintf("%s Loading...", spinnerView)
	}
	if ls.err != nil {
		return errorText.Render(fmt.Sprintf("Failed to load page %d: %s", ls.number, ls.err)) +
			"\n\n" + mutedText.Render("Press r to retry")
	}
	if len(ls.page.Items) == 0 {
		if ls.search != "" {
			return fmt.Sprintf("No results for %q. Press esc to go back.", ls.search)
		}
		return "No entries on this page."
	}

	nameW, genderW, relW := columnWidths(width)
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(Column("Name", nameW) + Column("Gender", genderW) + Column(titleCase(relatedLabel), relW)))
	for i, it := range ls.page.Items {
		b.WriteByte('\n')
		marker := "  "
		if i == ls.cursor {
			marker = CursorMarker
		}
		b.WriteString(marker)

		row := ls.rows[it.ID]
		var gender, related string
		switch {
		case !row.resolved:
			gender, related = spinnerView, spinnerView
		case row.err != nil:
			gender, related = "error", "error"
		default:
			gender, related = row.detail.Value("gender"), row.detail.Related()
		}
		name := it.Name
		if name == "" && row.resolved && row.err == nil {
			name = row.detail.Name()
		}
		line := Column(name, nameW) + Column(gender, genderW) + Column(related, relW)
		switch {
		case row.err != nil:
			line = errorText.Render(line)
		case i == ls.cursor:
			line = selected.Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

// columnWidths splits the usable width between the three list columns.
func columnWidths(width int) (name, gender, related int) {
	w := width - len(CursorMarker)
	if w < 36 {
		w = 36
	}
	name = w * 45 / 100
	gender = w * 20 / 100
	related = w - name - gender
	return name, gender, related
}

// titleCase upper-cases the first letter of a field name for display.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

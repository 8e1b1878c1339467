package browser

import (
	"context"
	"maps"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultPageSize is the number of rows per list page.
const DefaultPageSize = 12

// Model is the root Bubble Tea model for the catalog browser.
// It routes messages to the state of the active mode and performs the
// catalog side effects those states request.
type Model struct {
	ctx          context.Context
	cat          Catalog
	pageSize     int
	relatedField string

	mode      Mode
	list      listState
	detail    detailState
	favorites favoritesState

	search    textinput.Model
	searching bool
	spinner   spinner.Model
	help      help.Model
	banner    string // most recent failure
	width     int
	height    int
}

// Option configures a Model.
type Option func(*Model)

// WithPageSize sets the number of rows per page.
func WithPageSize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// WithRelatedField sets the field whose resolved name is shown in the
// third list column.
func WithRelatedField(field string) Option {
	return func(m *Model) { m.relatedField = field }
}

// WithContext sets the context passed to catalog calls.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// NewModel creates a browser Model in list mode on page 1.
func NewModel(cat Catalog, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := Model{
		ctx:          context.Background(),
		cat:          cat,
		pageSize:     DefaultPageSize,
		relatedField: "homeworld",
		mode:         ModeList,
		list:         newListState(),
		search:       ti,
		spinner:      s,
		help:         help.New(),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Init starts the spinner and loads the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCurrent())
}

// Mode returns the active mode.
func (m Model) Mode() Mode { return m.mode }

// Banner returns the most recent failure message, if any.
func (m Model) Banner() string { return m.banner }

func (m Model) loadCurrent() tea.Cmd {
	return loadPage(m.ctx, m.cat, m.list.number, m.pageSize, m.list.search)
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-4, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PageMsg:
		return m.applyPage(msg)

	case RowResolvedMsg:
		m.list, _ = m.list.Update(msg)
		if msg.Err != nil {
			m.banner = msg.Err.Error()
		}
		return m, nil

	case DetailMsg:
		m.detail, _ = m.detail.Update(msg)
		if msg.ID == m.detail.id {
			if msg.Err != nil {
				m.banner = msg.Err.Error()
			} else {
				m.detail.favorite = m.cat.IsFavorite(msg.ID)
				m.list = m.list.updateRow(msg.Detail)
			}
		}
		return m, nil

	case OpenDetailMsg:
		m.mode = ModeDetail
		m.detail = newDetailState(msg.ID, msg.Name)
		m.detail.favorite = m.cat.IsFavorite(msg.ID)
		return m, resolveDetail(m.ctx, m.cat, msg.ID)

	case ReloadMsg:
		return m, m.loadCurrent()

	case EditMsg:
		m.cat.ApplyEdit(msg.ID, msg.Field, msg.Value)
		if m.detail.id == msg.ID {
			d := m.detail.detail
			d.Fields = maps.Clone(d.Fields)
			if d.Fields == nil {
				d.Fields = make(map[string]string)
			}
			d.Fields[msg.Field] = msg.Value
			m.detail.detail = d
			m.list = m.list.updateRow(d)
		}
		return m, nil

	case AddFavoriteMsg:
		if m.detail.id == msg.ID && !m.detail.loading && m.detail.err == nil {
			m.cat.AddFavorite(m.detail.detail)
			m.detail.favorite = true
		}
		return m, nil

	case RemoveFavoriteMsg:
		m.cat.RemoveFavorite(msg.ID)
		m.favorites = m.favorites.refresh(m.cat.ListFavorites())
		if m.detail.id == msg.ID {
			m.detail.favorite = false
		}
		return m, nil

	case BackMsg:
		m.mode = ModeList
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and other textinput messages.
	var cmd tea.Cmd
	switch {
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.mode == ModeDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

// applyPage routes a page result and starts resolving its rows.
func (m Model) applyPage(msg PageMsg) (tea.Model, tea.Cmd) {
	if msg.Number != m.list.number || msg.Search != m.list.search {
		return m, nil
	}
	m.list, _ = m.list.Update(msg)
	if msg.Err != nil {
		m.banner = msg.Err.Error()
		return m, nil
	}
	m.banner = ""

	pending := m.list.pending()
	cmds := make([]tea.Cmd, 0, len(pending))
	for _, id := range pending {
		cmds = append(cmds, resolveRow(m.ctx, m.cat, id))
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeDetail:
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case ModeFavorites:
		m.favorites, cmd = m.favorites.Update(msg)
		return m, cmd
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.search.SetValue(m.list.search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "f":
		m.mode = ModeFavorites
		m.favorites = newFavoritesState(m.cat.ListFavorites())
		return m, nil
	case "esc":
		if m.list.search == "" {
			return m, nil
		}
		m.search.SetValue("")
		m.list = m.list.goTo(1, "")
		return m, m.loadCurrent()
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKey edits the search box. Applying a term always restarts
// at page 1.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		term := strings.TrimSpace(m.search.Value())
		m.list = m.list.goTo(1, term)
		return m, m.loadCurrent()
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.list.search)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) relatedLabel() string {
	if m.relatedField == "" {
		return "related"
	}
	return m.relatedField
}

// View renders the active mode with title, error banner and help bar.
func (m Model) View() string {
	var sections []string

	title := "Roster"
	switch m.mode {
	case ModeDetail:
		title += " › Details"
	case ModeFavorites:
		title += " › Favorites"
	}
	sections = append(sections, titleStyle.Render(title))

	if banner := ErrorBanner(m.banner, m.width); banner != "" {
		sections = append(sections, banner)
	}

	switch m.mode {
	case ModeDetail:
		sections = append(sections, m.detail.View(m.relatedLabel(), m.spinner.View()))
	case ModeFavorites:
		sections = append(sections, m.favorites.View(m.relatedField, m.relatedLabel()))
	default:
		switch {
		case m.searching:
			sections = append(sections, m.search.View())
		case m.list.search != "":
			sections = append(sections, mutedText.Render("Search: "+m.list.search+" (esc to clear)"))
		}
		sections = append(sections, m.list.View(m.width, m.relatedLabel(), m.spinner.View()))
		if !m.list.loading && m.list.err == nil {
			sections = append(sections, m.list.Footer())
		}
	}

	typing := m.searching || (m.mode == ModeDetail && m.detail.editing)
	sections = append(sections, m.help.View(HelpBindings(m.mode, typing)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

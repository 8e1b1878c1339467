package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/roster/internal/catalog"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	if _, isTick := msg.(spinner.TickMsg); isTick {
		return nil
	}
	return []tea.Msg{msg}
}

// drive feeds msg to m, then runs every resulting command and feeds its
// messages back until no commands remain.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("drive: too many steps")
		}
		next := queue[0]
		queue = queue[1:]
		updated, cmd := m.Update(next)
		m = updated.(Model)
		queue = append(queue, execBatch(t, cmd)...)
	}
	return m
}

// keyMsg builds a KeyMsg for a named key or a rune string.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// stubCatalog implements Catalog over fixed pages and details, with the
// real favorites/edit store.
type stubCatalog struct {
	*catalog.Store

	mu          sync.Mutex
	pages       map[string]catalog.Page // keyed by "page|search"
	pageErr     error
	details     map[string]catalog.EntityDetail
	resolveErrs map[string]error
	pageCalls   []string
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		Store:       catalog.NewStore(),
		pages:       make(map[string]catalog.Page),
		details:     make(map[string]catalog.EntityDetail),
		resolveErrs: make(map[string]error),
	}
}

func pageKey(number int, search string) string {
	return fmt.Sprintf("%d|%s", number, search)
}

func (s *stubCatalog) GetPage(_ context.Context, number, size int, search string) (catalog.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pageKey(number, search)
	s.pageCalls = append(s.pageCalls, k)
	if s.pageErr != nil {
		return catalog.Page{}, s.pageErr
	}
	p, ok := s.pages[k]
	if !ok {
		return catalog.Page{}, errors.New("no such page " + k)
	}
	return p, nil
}

func (s *stubCatalog) Resolve(_ context.Context, id string) (catalog.EntityDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resolveErrs[id]; err != nil {
		return catalog.EntityDetail{}, err
	}
	d, ok := s.details[id]
	if !ok {
		return catalog.EntityDetail{}, errors.New("no such entity " + id)
	}
	return s.Overlay(d), nil
}

func (s *stubCatalog) lastPageCall() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pageCalls) == 0 {
		return ""
	}
	return s.pageCalls[len(s.pageCalls)-1]
}

func person(id, name, gender, planet string) catalog.EntityDetail {
	return catalog.EntityDetail{
		ID: id,
		Fields: map[string]string{
			"name":       name,
			"height":     "172",
			"gender":     gender,
			"homeworld":  "https://www.swapi.tech/api/planets/" + id,
			"birth_year": "19BBY",
			"url":        "https://www.swapi.tech/api/people/" + id,
		},
		RelatedField: "homeworld",
		RelatedName:  planet,
	}
}

// sampleCatalog returns a catalog with two pages of people and a search.
func sampleCatalog() *stubCatalog {
	s := newStubCatalog()
	s.details["1"] = person("1", "Luke Skywalker", "male", "Tatooine")
	s.details["2"] = person("2", "C-3PO", "n/a", "Tatooine")
	s.details["3"] = person("3", "Leia Organa", "female", "Alderaan")
	s.pages[pageKey(1, "")] = catalog.Page{
		Number: 1, Size: 2, HasNext: true, TotalPages: 2,
		Items: []catalog.EntityReference{{ID: "1", Name: "Luke Skywalker"}, {ID: "2", Name: "C-3PO"}},
	}
	s.pages[pageKey(2, "")] = catalog.Page{
		Number: 2, Size: 2, HasPrevious: true, TotalPages: 2,
		Items: []catalog.EntityReference{{ID: "3", Name: "Leia Organa"}},
	}
	s.pages[pageKey(1, "Leia")] = catalog.Page{
		Number: 1, Size: 2, Search: "Leia", TotalPages: 1,
		Items: []catalog.EntityReference{{ID: "3", Name: "Leia Organa"}},
	}
	return s
}

// loadedModel returns a model with page 1 loaded and its rows resolved.
func loadedModel(t *testing.T, cat Catalog) Model {
	t.Helper()
	m := NewModel(cat, WithPageSize(2))
	m = drive(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	for _, msg := range execBatch(t, m.Init()) {
		m = drive(t, m, msg)
	}
	return m
}

// press feeds keys to m and discards the resulting commands. Use it for
// keys that focus or type into a text input, whose cursor blink commands
// would otherwise keep drive running.
func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

// typeText types s into the focused input one rune at a time.
func typeText(m Model, s string) Model {
	for _, r := range s {
		m = press(m, string(r))
	}
	return m
}

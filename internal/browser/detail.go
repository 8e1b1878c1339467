package browser

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/roster/internal/catalog"
)

// editableFields are the basic fields the detail view can edit, in order.
var editableFields = []string{"height", "gender"}

// hiddenAttributes are never listed under additional attributes.
var hiddenAttributes = []string{"name", "url", "created", "edited"}

// detailState manages one resolved entity, the selected editable field and
// the inline editor for detail mode.
type detailState struct {
	id       string
	name     string // list name, shown while loading
	detail   catalog.EntityDetail
	loading  bool
	err      error
	field    int
	editing  bool
	editor   textinput.Model
	favorite bool
}

// newDetailState returns a detailState loading entity id.
func newDetailState(id, name string) detailState {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Prompt = ""
	return detailState{id: id, name: name, loading: true, editor: ti}
}

// resolveDetail returns a tea.Cmd that resolves the entity for detail mode.
func resolveDetail(ctx context.Context, cat Catalog, id string) tea.Cmd {
	return func() tea.Msg {
		d, err := cat.Resolve(ctx, id)
		return DetailMsg{ID: id, Detail: d, Err: err}
	}
}

// Update processes messages for the detail state.
func (ds detailState) Update(msg tea.Msg) (detailState, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailMsg:
		if msg.ID != ds.id {
			return ds, nil
		}
		ds.loading = false
		ds.err = msg.Err
		if msg.Err == nil {
			ds.detail = msg.Detail
		}
		return ds, nil

	case tea.KeyMsg:
		if ds.editing {
			return ds.handleEditKey(msg)
		}
		return ds.handleKey(msg)
	}

	if ds.editing {
		var cmd tea.Cmd
		ds.editor, cmd = ds.editor.Update(msg)
		return ds, cmd
	}
	return ds, nil
}

func (ds detailState) handleKey(msg tea.KeyMsg) (detailState, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return ds, func() tea.Msg { return BackMsg{} }
	}
	if ds.loading || ds.err != nil {
		return ds, nil
	}

	switch msg.String() {
	case "up", "k":
		ds.field--
		if ds.field < 0 {
			ds.field = len(editableFields) - 1
		}
	case "down", "j":
		ds.field = (ds.field + 1) % len(editableFields)
	case "e":
		ds.editing = true
		ds.editor.SetValue(ds.detail.Value(editableFields[ds.field]))
		ds.editor.CursorEnd()
		return ds, ds.editor.Focus()
	case "a":
		if ds.favorite {
			return ds, nil
		}
		id := ds.id
		return ds, func() tea.Msg { return AddFavoriteMsg{ID: id} }
	}
	return ds, nil
}

func (ds detailState) handleEditKey(msg tea.KeyMsg) (detailState, tea.Cmd) {
	switch msg.String() {
	case "esc":
		ds.editing = false
		ds.editor.Blur()
		return ds, nil
	case "enter":
		ds.editing = false
		ds.editor.Blur()
		edit := EditMsg{ID: ds.id, Field: editableFields[ds.field], Value: strings.TrimSpace(ds.editor.Value())}
		return ds, func() tea.Msg { return edit }
	}
	var cmd tea.Cmd
	ds.editor, cmd = ds.editor.Update(msg)
	return ds, cmd
}

// Field returns the currently selected editable field.
func (ds detailState) Field() string {
	return editableFields[ds.field]
}

// View renders the detail body.
func (ds detailState) View(relatedLabel, spinnerView string) string {
	if ds.loading {
		return fmt.Sprintf("%s Loading %s...", spinnerView, ds.name)
	}
	if ds.err != nil {
		return errorText.Render(fmt.Sprintf("Failed to load %s: %s", ds.id, ds.err)) +
			"\n\n" + mutedText.Render("Press esc to go back")
	}

	d := ds.detail
	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Name()))
	if ds.favorite {
		b.WriteString("  " + favStyle.Render(FavoriteBadge))
	}
	b.WriteString("\n\n")

	for i, field := range editableFields {
		marker := "  "
		if i == ds.field {
			marker = CursorMarker
		}
		value := d.Value(field)
		if i == ds.field && ds.editing {
			value = ds.editor.View()
		}
		b.WriteString(marker + labelStyle.Render(titleCase(field)+":") + " " + value + "\n")
	}
	if d.RelatedField != "" {
		b.WriteString("  " + labelStyle.Render(titleCase(relatedLabel)+":") + " " + d.Related() + "\n")
	}

	extra := additionalAttributes(d)
	if len(extra) > 0 {
		b.WriteString("\n" + labelStyle.Render("Attributes") + "\n")
		for _, k := range extra {
			b.WriteString("  " + mutedText.Render(titleCase(k)+":") + " " + d.Value(k) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// additionalAttributes returns the sorted field names not shown above.
func additionalAttributes(d catalog.EntityDetail) []string {
	var keys []string
	for k := range d.Fields {
		if k == d.RelatedField || slices.Contains(editableFields, k) || slices.Contains(hiddenAttributes, k) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

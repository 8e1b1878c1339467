package browser

import (
	"errors"
	"slices"
	"testing"

	"github.com/smileynet/roster/internal/catalog"
)

func loadedDetail(t *testing.T) detailState {
	t.Helper()
	ds := newDetailState("1", "Luke Skywalker")
	ds, _ = ds.Update(DetailMsg{ID: "1", Detail: person("1", "Luke Skywalker", "male", "Tatooine")})
	return ds
}

func TestDetail_LoadingShowsName(t *testing.T) {
	ds := newDetailState("1", "Luke Skywalker")

	view := stripANSI(ds.View("homeworld", "⣾"))

	if !containsPlainText(view, "⣾ Loading Luke Skywalker...") {
		t.Errorf("view = %q", view)
	}
}

func TestDetail_IgnoresOtherEntity(t *testing.T) {
	ds := newDetailState("1", "Luke Skywalker")
	ds, _ = ds.Update(DetailMsg{ID: "2", Detail: person("2", "C-3PO", "n/a", "Tatooine")})

	if !ds.loading {
		t.Error("detail for another entity should not end loading")
	}
}

func TestDetail_FieldSelectionWraps(t *testing.T) {
	ds := loadedDetail(t)

	ds, _ = ds.Update(keyMsg("up"))
	if ds.Field() != "gender" {
		t.Errorf("field = %q after up from first, want gender", ds.Field())
	}
	ds, _ = ds.Update(keyMsg("down"))
	if ds.Field() != "height" {
		t.Errorf("field = %q after down from last, want height", ds.Field())
	}
}

func TestDetail_SaveEmitsEdit(t *testing.T) {
	ds := loadedDetail(t)
	ds, _ = ds.Update(keyMsg("e"))
	if !ds.editing {
		t.Fatal("e should start editing")
	}
	if ds.editor.Value() != "172" {
		t.Errorf("editor value = %q, want current height", ds.editor.Value())
	}

	ds.editor.SetValue(" 180 ")
	ds, cmd := ds.Update(keyMsg("enter"))

	if ds.editing {
		t.Error("enter should end editing")
	}
	msg, ok := cmd().(EditMsg)
	if !ok || msg != (EditMsg{ID: "1", Field: "height", Value: "180"}) {
		t.Errorf("msg = %#v", msg)
	}
}

func TestDetail_AddFavoriteOnlyOnce(t *testing.T) {
	ds := loadedDetail(t)

	_, cmd := ds.Update(keyMsg("a"))
	if _, ok := cmd().(AddFavoriteMsg); !ok {
		t.Fatal("a should request AddFavoriteMsg")
	}

	ds.favorite = true
	if _, cmd := ds.Update(keyMsg("a")); cmd != nil {
		t.Error("a on a favorite should do nothing")
	}
	if !containsPlainText(ds.View("homeworld", ""), FavoriteBadge) {
		t.Error("favorite badge missing")
	}
}

func TestDetail_ErrorAllowsBack(t *testing.T) {
	ds := newDetailState("1", "Luke Skywalker")
	ds, _ = ds.Update(DetailMsg{ID: "1", Err: errors.New("status 404")})

	if _, cmd := ds.Update(keyMsg("e")); cmd != nil {
		t.Error("e on a failed detail should do nothing")
	}
	_, cmd := ds.Update(keyMsg("esc"))
	if _, ok := cmd().(BackMsg); !ok {
		t.Error("esc should go back")
	}
}

func TestDetail_MissingRelatedShowsUnknown(t *testing.T) {
	d := person("1", "Luke Skywalker", "male", "")
	ds := newDetailState("1", "")
	ds, _ = ds.Update(DetailMsg{ID: "1", Detail: d})

	if !containsPlainText(ds.View("homeworld", ""), "Homeworld: "+catalog.Unknown) {
		t.Errorf("view:\n%s", stripANSI(ds.View("homeworld", "")))
	}
}

func TestAdditionalAttributes(t *testing.T) {
	d := person("1", "Luke Skywalker", "male", "Tatooine")
	d.Fields["mass"] = "77"

	got := additionalAttributes(d)

	want := []string{"birth_year", "mass"}
	if !slices.Equal(got, want) {
		t.Errorf("attributes = %v, want %v", got, want)
	}
}

func TestFavorites_EmptyState(t *testing.T) {
	fs := newFavoritesState(nil)

	if !containsPlainText(fs.View("homeworld", "homeworld"), EmptyFavorites) {
		t.Error("empty favorites should show the empty state")
	}
	if _, cmd := fs.Update(keyMsg("d")); cmd != nil {
		t.Error("d with no favorites should do nothing")
	}
}

func TestFavorites_RefreshClampsCursor(t *testing.T) {
	entries := []catalog.FavoriteEntry{
		{EntityID: "1", Fields: map[string]string{"name": "Luke Skywalker"}},
		{EntityID: "2", Fields: map[string]string{"name": "C-3PO"}},
	}
	fs := newFavoritesState(entries)
	fs, _ = fs.Update(keyMsg("down"))

	fs = fs.refresh(entries[:1])

	if fs.cursor != 0 {
		t.Errorf("cursor = %d, want 0", fs.cursor)
	}
}

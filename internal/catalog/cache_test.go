package catalog

import (
	"slices"
	"testing"
)

func TestCache_GetEmpty(t *testing.T) {
	c := NewCache(0, 0, nil)
	if _, ok := c.Get("1"); ok {
		t.Fatal("expected cache miss on empty cache")
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := NewCache(0, 0, nil)
	c.Set("1", EntityDetail{ID: "1", Fields: map[string]string{"name": "Luke Skywalker"}})

	got, ok := c.Get("1")
	if !ok {
		t.Fatal("expected cache hit after Set")
	}
	if got.Name() != "Luke Skywalker" {
		t.Errorf("got name %q, want %q", got.Name(), "Luke Skywalker")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(0, 0, nil)
	c.Set("1", EntityDetail{ID: "1"})
	c.Set("2", EntityDetail{ID: "2"})

	c.Invalidate()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Invalidate, want 0", c.Len())
	}
}

func TestCache_UnboundedKeepsEverything(t *testing.T) {
	c := NewCache(0, 0, nil)
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		c.Set(id, EntityDetail{ID: id})
	}
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}
}

func TestCache_BoundedEvictsOldestAndNotifies(t *testing.T) {
	// Given: a cache holding at most two entries
	var evicted []string
	c := NewCache(2, 0, func(id string) { evicted = append(evicted, id) })

	// When: a third entry is added
	c.Set("1", EntityDetail{ID: "1"})
	c.Set("2", EntityDetail{ID: "2"})
	c.Set("3", EntityDetail{ID: "3"})

	// Then: the oldest entry is evicted and reported
	if _, ok := c.Get("1"); ok {
		t.Error("expected entry 1 to be evicted")
	}
	if !slices.Equal(evicted, []string{"1"}) {
		t.Errorf("evicted = %v, want [1]", evicted)
	}
}

func TestCache_OverwriteDoesNotNotify(t *testing.T) {
	var evicted []string
	c := NewCache(0, 0, func(id string) { evicted = append(evicted, id) })
	c.Set("1", EntityDetail{ID: "1", Fields: map[string]string{"height": "172"}})
	c.Set("1", EntityDetail{ID: "1", Fields: map[string]string{"height": "180"}})

	got, _ := c.Get("1")
	if got.Value("height") != "180" {
		t.Errorf("height = %q, want 180", got.Value("height"))
	}
	if len(evicted) != 0 {
		t.Errorf("evicted = %v, want none", evicted)
	}
}

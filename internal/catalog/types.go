// Package catalog is the client-side cache and request-coalescing layer over
// the remote catalog. It merges paginated list data, per-entity detail
// fetches and related-entity name lookups, never issuing two concurrent
// requests for the same key, and overlays local edits and favorites on top
// of fetched data.
package catalog

import "maps"

// Unknown is displayed for any field with neither an edit nor a fetched value.
const Unknown = "unknown"

// EntityReference is the lightweight identifier returned by a list query.
type EntityReference struct {
	ID   string
	Name string
	URL  string
}

// Page is one page of list results.
type Page struct {
	Number       int
	Size         int
	Search       string
	Items        []EntityReference
	HasNext      bool
	HasPrevious  bool
	TotalPages   int // Zero when the remote did not report it.
	TotalRecords int // Zero when the remote did not report it.
}

func (p Page) clone() Page {
	p.Items = append([]EntityReference(nil), p.Items...)
	return p
}

// EntityDetail is a fully resolved entity.
type EntityDetail struct {
	ID     string
	Fields map[string]string
	// RelatedField names the field holding the related-entity reference
	// (e.g. "homeworld"). Empty when no related lookup is configured.
	RelatedField string
	// RelatedName is the resolved name of the related entity.
	RelatedName string
}

// Value returns the field value, or Unknown if absent or empty.
func (d EntityDetail) Value(field string) string {
	if v := d.Fields[field]; v != "" {
		return v
	}
	return Unknown
}

// Related returns the related entity's display name, or Unknown.
func (d EntityDetail) Related() string {
	if d.RelatedName != "" {
		return d.RelatedName
	}
	return Unknown
}

// Name is shorthand for Value("name").
func (d EntityDetail) Name() string {
	return d.Value("name")
}

// Display returns the fields as they should be shown: the related field is
// replaced by the related entity's name instead of its raw reference.
func (d EntityDetail) Display() map[string]string {
	out := maps.Clone(d.Fields)
	if out == nil {
		out = make(map[string]string)
	}
	if d.RelatedField != "" {
		out[d.RelatedField] = d.Related()
	}
	return out
}

func (d EntityDetail) clone() EntityDetail {
	d.Fields = maps.Clone(d.Fields)
	return d
}

// LocalEdit is a user-applied field override. It lives only in memory and is
// never sent to the remote source.
type LocalEdit struct {
	EntityID string
	Field    string
	Value    string
}

// FavoriteEntry is a snapshot of an entity's displayed fields taken when it
// was favorited, kept current with later local edits.
type FavoriteEntry struct {
	EntityID string
	Fields   map[string]string
}

// Value returns the snapshotted field, or Unknown.
func (f FavoriteEntry) Value(field string) string {
	if v := f.Fields[field]; v != "" {
		return v
	}
	return Unknown
}

func (f FavoriteEntry) clone() FavoriteEntry {
	f.Fields = maps.Clone(f.Fields)
	return f
}

package fhir

import (
	"fmt"
	"strconv"
)

// Link is a Bundle.link element.
type Link struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

// Entry is one Bundle.entry. Position is the zero-based index of the entry
// in its bundle.
type Entry struct {
	FullURL  string   `json:"fullUrl,omitempty"`
	Resource Resource `json:"resource,omitempty"`
	Position int      `json:"-"`
}

// Bundle is a parsed, read-only FHIR Bundle.
type Bundle struct {
	ID      string
	Type    string
	Total   *int
	Links   []Link
	Entries []Entry
	Profile VersionedProfile
}

// ParseBundle decodes raw JSON into a Bundle.
func ParseBundle(data []byte) (*Bundle, error) {
	r, err := DecodeResource(data)
	if err != nil {
		return nil, err
	}
	return BundleFromResource(r)
}

// BundleFromResource converts an already decoded Bundle resource, e.g. a
// KBV bundle nested in a Task bundle entry.
func BundleFromResource(r Resource) (*Bundle, error) {
	if rt := r.Type(); rt != "Bundle" {
		return nil, fmt.Errorf("expected resourceType Bundle, got %q", rt)
	}

	b := &Bundle{
		ID:      r.ID(),
		Type:    String(r, "type"),
		Profile: ProfileOf(r),
	}
	if s := String(r, "total"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			b.Total = &n
		}
	}
	for _, l := range Array(r, "link") {
		b.Links = append(b.Links, Link{
			Relation: String(l, "relation"),
			URL:      String(l, "url"),
		})
	}
	for i, e := range Array(r, "entry") {
		b.Entries = append(b.Entries, Entry{
			FullURL:  String(e, "fullUrl"),
			Resource: Object(e, "resource"),
			Position: i,
		})
	}
	return b, nil
}

// Link returns the URL of the link with the given relation, or "".
func (b *Bundle) Link(relation string) string {
	for _, l := range b.Links {
		if l.Relation == relation {
			return l.URL
		}
	}
	return ""
}

// NextLink returns the "next" paging link, or "" on the last page.
func (b *Bundle) NextLink() string {
	return b.Link("next")
}

// EntriesOfType returns the entries whose resource has the given type, in
// bundle order.
func (b *Bundle) EntriesOfType(resourceType string) []Entry {
	var out []Entry
	for _, e := range b.Entries {
		if e.Resource != nil && e.Resource.Type() == resourceType {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first entry of the given resource type.
func (b *Bundle) First(resourceType string) (Entry, bool) {
	for _, e := range b.Entries {
		if e.Resource != nil && e.Resource.Type() == resourceType {
			return e, true
		}
	}
	return Entry{}, false
}

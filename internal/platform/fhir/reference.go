package fhir

import (
	"strings"

	"github.com/google/uuid"
)

// ReferenceKind indicates the syntactic form of a reference string.
type ReferenceKind string

const (
	// ReferenceEmpty is an absent or blank reference.
	ReferenceEmpty ReferenceKind = "empty"
	// ReferenceRelative is a relative reference (e.g. "Patient/123").
	ReferenceRelative ReferenceKind = "relative"
	// ReferenceAbsolute is an absolute URL ending in Type/id.
	ReferenceAbsolute ReferenceKind = "absolute"
	// ReferenceURN is a bundle-local "urn:uuid:" reference.
	ReferenceURN ReferenceKind = "urn"
	// ReferenceAnchor points at a contained resource ("#id").
	ReferenceAnchor ReferenceKind = "anchor"
	// ReferenceLocal is a bare id without type or prefix.
	ReferenceLocal ReferenceKind = "local"
)

const urnUUIDPrefix = "urn:uuid:"

// Reference holds the parsed components of a reference string.
type Reference struct {
	Raw          string
	Kind         ReferenceKind
	ResourceType string
	ID           string
	// Key is the normalized lookup key used against an Index.
	Key string
}

// ParseReference classifies and normalizes a reference string.
//
//	"urn:uuid:abc"                  -> (urn, "", "abc")
//	"#med"                          -> (anchor, "", "med")
//	"Medication/123/_history/2"     -> (relative, "Medication", "123")
//	"https://erp.example/Task/160.1" -> (absolute, "Task", "160.1")
func ParseReference(ref string) Reference {
	raw := ref
	ref = strings.TrimSpace(ref)
	r := Reference{Raw: raw}
	switch {
	case ref == "":
		r.Kind = ReferenceEmpty
	case strings.HasPrefix(ref, "#"):
		r.Kind = ReferenceAnchor
		r.ID = ref[1:]
		r.Key = r.ID
	case strings.HasPrefix(strings.ToLower(ref), urnUUIDPrefix):
		r.Kind = ReferenceURN
		r.ID = normalizeKey(ref[len(urnUUIDPrefix):])
		r.Key = r.ID
	case strings.Contains(ref, "://"):
		r.Kind = ReferenceAbsolute
		r.ResourceType, r.ID = typeAndID(ref)
		r.Key = ref
	case strings.Contains(ref, "/"):
		r.Kind = ReferenceRelative
		r.ResourceType, r.ID = typeAndID(ref)
		r.Key = r.ResourceType + "/" + r.ID
	default:
		r.Kind = ReferenceLocal
		r.ID = normalizeKey(ref)
		r.Key = r.ID
	}
	return r
}

// typeAndID extracts the trailing Type/id pair of a path, ignoring a
// "_history/<vid>" suffix.
func typeAndID(path string) (string, string) {
	if i := strings.Index(path, "/_history"); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", parts[len(parts)-1]
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// normalizeKey lowercases well-formed UUIDs so that upper- and lower-case
// spellings of the same urn:uuid meet in the index.
func normalizeKey(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// matches reports whether e is an acceptable target for r: typed
// references never resolve to an entry of a different resource type.
func (r Reference) matches(e Entry) bool {
	if r.ResourceType == "" || e.Resource == nil {
		return true
	}
	return e.Resource.Type() == r.ResourceType
}

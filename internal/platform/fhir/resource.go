package fhir

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Resource is a FHIR resource decoded into a generic JSON tree. Numbers are
// kept as json.Number so decimal amounts retain their textual form.
type Resource map[string]interface{}

// Type returns the resourceType of the resource.
func (r Resource) Type() string { return String(r, "resourceType") }

// ID returns the logical id of the resource.
func (r Resource) ID() string { return String(r, "id") }

// Profile returns the first declared meta.profile of the resource.
func (r Resource) Profile() VersionedProfile { return ProfileOf(r) }

// DecodeResource decodes a single JSON resource.
func DecodeResource(data []byte) (Resource, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Resource
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("invalid JSON: expected an object")
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Tree navigation
// ---------------------------------------------------------------------------

// Get walks node along path. Path elements are object keys (string) or
// array indexes (int). Missing elements yield nil.
func Get(node interface{}, path ...interface{}) interface{} {
	cur := node
	for _, p := range path {
		switch key := p.(type) {
		case string:
			m, ok := asMap(cur)
			if !ok {
				return nil
			}
			cur = m[key]
		case int:
			arr, ok := cur.([]interface{})
			if !ok || key < 0 || key >= len(arr) {
				return nil
			}
			cur = arr[key]
		default:
			return nil
		}
	}
	return cur
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	case Resource:
		return m, m != nil
	}
	return nil, false
}

// String returns the scalar at path rendered as text, or "" when absent.
func String(node interface{}, path ...interface{}) string {
	switch v := Get(node, path...).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Object returns the object at path, or nil.
func Object(node interface{}, path ...interface{}) Resource {
	m, ok := asMap(Get(node, path...))
	if !ok {
		return nil
	}
	return Resource(m)
}

// Array returns the array at path, or nil.
func Array(node interface{}, path ...interface{}) []interface{} {
	arr, _ := Get(node, path...).([]interface{})
	return arr
}

// Bool returns the boolean at path and whether it was present.
func Bool(node interface{}, path ...interface{}) (value bool, ok bool) {
	value, ok = Get(node, path...).(bool)
	return value, ok
}

// Int returns the integer at path and whether it was present and integral.
func Int(node interface{}, path ...interface{}) (int, bool) {
	s := String(node, path...)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DateTime returns the FHIR date, dateTime or instant at path, or nil when
// absent or unparseable. Partial dates ("2024", "2024-03") are accepted.
func DateTime(node interface{}, path ...interface{}) *time.Time {
	return ParseDateTime(String(node, path...))
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDateTime parses a FHIR temporal value. Values without a zone are read
// as UTC.
func ParseDateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// FHIR datatype helpers
// ---------------------------------------------------------------------------

// canonicalBase strips a "|version" suffix from a canonical URL.
func canonicalBase(url string) string {
	if i := strings.IndexByte(url, '|'); i >= 0 {
		return url[:i]
	}
	return url
}

// Extension returns the first element of node.extension whose url matches
// one of urls (version suffixes ignored), or nil.
func Extension(node interface{}, urls ...string) Resource {
	for _, ext := range Array(node, "extension") {
		u := canonicalBase(String(ext, "url"))
		for _, want := range urls {
			if u == canonicalBase(want) {
				return Object(ext)
			}
		}
	}
	return nil
}

// IdentifierValue returns the value of the first identifier in list whose
// system is one of systems. With no systems the first value is returned.
func IdentifierValue(list []interface{}, systems ...string) string {
	for _, id := range list {
		if len(systems) == 0 || containsString(systems, String(id, "system")) {
			if v := String(id, "value"); v != "" {
				return v
			}
		}
	}
	return ""
}

// CodingCode returns the code of the first coding in concept.coding whose
// system is one of systems. With no systems the first code is returned.
func CodingCode(concept interface{}, systems ...string) string {
	for _, c := range Array(concept, "coding") {
		if len(systems) == 0 || containsString(systems, String(c, "system")) {
			if v := String(c, "code"); v != "" {
				return v
			}
		}
	}
	return ""
}

// CodingDisplay returns the display of the first coding carrying one.
func CodingDisplay(concept interface{}) string {
	for _, c := range Array(concept, "coding") {
		if v := String(c, "display"); v != "" {
			return v
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Quantity is a version-agnostic FHIR Quantity with the value kept as text.
type Quantity struct {
	Value string `json:"value,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

// Ratio is a version-agnostic FHIR Ratio.
type Ratio struct {
	Numerator   *Quantity `json:"numerator,omitempty"`
	Denominator *Quantity `json:"denominator,omitempty"`
}

// ParseQuantity reads a Quantity node. The unit falls back to code.
// Absent or empty nodes yield nil.
func ParseQuantity(node interface{}) *Quantity {
	if Object(node) == nil {
		return nil
	}
	q := &Quantity{
		Value: String(node, "value"),
		Unit:  String(node, "unit"),
	}
	if q.Unit == "" {
		q.Unit = String(node, "code")
	}
	if q.Value == "" && q.Unit == "" {
		return nil
	}
	return q
}

// ParseRatio reads a Ratio node. A ratio without numerator and denominator is nil.
func ParseRatio(node interface{}) *Ratio {
	if Object(node) == nil {
		return nil
	}
	r := &Ratio{
		Numerator:   ParseQuantity(Get(node, "numerator")),
		Denominator: ParseQuantity(Get(node, "denominator")),
	}
	if r.Numerator == nil && r.Denominator == nil {
		return nil
	}
	return r
}

// Address is a flattened postal address.
type Address struct {
	Line       []string `json:"line,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	City       string   `json:"city,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// ParseAddress reads the first entry of node.address.
func ParseAddress(node interface{}) *Address {
	addr := Object(node, "address", 0)
	if addr == nil {
		return nil
	}
	a := &Address{
		PostalCode: String(addr, "postalCode"),
		City:       String(addr, "city"),
		Country:    String(addr, "country"),
	}
	for _, l := range Array(addr, "line") {
		if s, ok := l.(string); ok && s != "" {
			a.Line = append(a.Line, s)
		}
	}
	return a
}

// HumanNameText renders the first entry of node.name. An explicit text wins,
// otherwise prefix, given names and family are joined.
func HumanNameText(node interface{}) string {
	name := Object(node, "name", 0)
	if name == nil {
		return ""
	}
	if text := String(name, "text"); text != "" {
		return text
	}
	var parts []string
	for _, key := range []string{"prefix", "given"} {
		for _, p := range Array(name, key) {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	}
	if family := String(name, "family"); family != "" {
		parts = append(parts, family)
	}
	return strings.Join(parts, " ")
}

// TelecomValue returns the first telecom value of the given system.
func TelecomValue(node interface{}, system string) string {
	for _, t := range Array(node, "telecom") {
		if String(t, "system") == system {
			return String(t, "value")
		}
	}
	return ""
}

// NarrativeText returns text.div of node with markup removed and
// whitespace collapsed.
func NarrativeText(node interface{}) string {
	div := String(node, "text", "div")
	if div == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range div {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

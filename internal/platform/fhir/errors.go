package fhir

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by *ExtractionError via errors.Is.
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnresolvedReference  = errors.New("unresolved reference")
	ErrUnknownProfile       = errors.New("unknown profile")
)

// ErrorKind classifies an extraction failure.
type ErrorKind int

const (
	ErrorMissingRequiredField ErrorKind = iota + 1
	ErrorUnresolvedReference
	ErrorUnknownProfile
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMissingRequiredField:
		return "missing-required-field"
	case ErrorUnresolvedReference:
		return "unresolved-reference"
	case ErrorUnknownProfile:
		return "unknown-profile"
	default:
		return "unknown"
	}
}

// ExtractionError reports why a single resource could not be turned into a
// domain record.
type ExtractionError struct {
	Kind         ErrorKind
	ResourceType string
	Field        string
	Reference    string
	Profile      string
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case ErrorMissingRequiredField:
		return fmt.Sprintf("%s: missing required field %q", e.ResourceType, e.Field)
	case ErrorUnresolvedReference:
		if e.Field != "" {
			return fmt.Sprintf("%s: unresolved reference %q in %s", e.ResourceType, e.Reference, e.Field)
		}
		return fmt.Sprintf("%s: unresolved reference %q", e.ResourceType, e.Reference)
	case ErrorUnknownProfile:
		return fmt.Sprintf("%s: unknown profile %q", e.ResourceType, e.Profile)
	default:
		return fmt.Sprintf("%s: extraction failed", e.ResourceType)
	}
}

// Is reports whether target is the sentinel matching e.Kind.
func (e *ExtractionError) Is(target error) bool {
	switch target {
	case ErrMissingRequiredField:
		return e.Kind == ErrorMissingRequiredField
	case ErrUnresolvedReference:
		return e.Kind == ErrorUnresolvedReference
	case ErrUnknownProfile:
		return e.Kind == ErrorUnknownProfile
	}
	return false
}

// MissingField returns an ExtractionError for an absent mandatory field.
func MissingField(resourceType, field string) error {
	return &ExtractionError{Kind: ErrorMissingRequiredField, ResourceType: resourceType, Field: field}
}

// Unresolved returns an ExtractionError for a reference that could not be
// found in the bundle.
func Unresolved(resourceType, field, ref string) error {
	return &ExtractionError{Kind: ErrorUnresolvedReference, ResourceType: resourceType, Field: field, Reference: ref}
}

// UnknownProfileError returns the non-fatal error reported when a resource is
// routed to a fallback extractor.
func UnknownProfileError(resourceType, profile string) error {
	return &ExtractionError{Kind: ErrorUnknownProfile, ResourceType: resourceType, Profile: profile}
}

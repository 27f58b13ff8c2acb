package fhir

import (
	"errors"
)

// EntryFailure describes one bundle entry that could not be extracted.
type EntryFailure struct {
	Position     int    `json:"position"`
	FullURL      string `json:"full_url,omitempty"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`
	Kind         string `json:"kind"`
	Error        string `json:"error"`
}

// Batch is the result of extracting every resource of one type from a
// bundle. BundleTotal is the count the source claims, which may differ from
// len(Records) when entries failed or the bundle is a single page.
type Batch[T any] struct {
	BundleTotal int            `json:"bundle_total"`
	Records     []T            `json:"records"`
	Failures    []EntryFailure `json:"failures,omitempty"`
	// Outcome repeats Failures as OperationOutcome warnings.
	Outcome *OperationOutcome `json:"outcome,omitempty"`
}

// Extracted returns the number of successfully extracted records.
func (b *Batch[T]) Extracted() int { return len(b.Records) }

// ExtractAll runs fn for every entry of resourceType in the index's bundle.
// A failing entry is recorded in Failures and does not stop the others.
func ExtractAll[T any](ix *Index, resourceType string, fn Extractor[T]) Batch[T] {
	b := ix.Bundle()
	entries := b.EntriesOfType(resourceType)
	batch := Batch[T]{Records: make([]T, 0, len(entries))}
	if b.Total != nil {
		batch.BundleTotal = *b.Total
	} else {
		batch.BundleTotal = len(entries)
	}

	root := NewResolver(ix)
	for _, e := range entries {
		rec, err := fn(e.Resource, root.For(e.Resource))
		if err != nil {
			batch.Failures = append(batch.Failures, NewEntryFailure(e, err))
			continue
		}
		batch.Records = append(batch.Records, rec)
	}
	if len(batch.Failures) > 0 {
		batch.Outcome = FailuresOutcome(batch.Failures)
	}
	return batch
}

// NewEntryFailure describes err for entry e.
func NewEntryFailure(e Entry, err error) EntryFailure {
	f := EntryFailure{
		Position: e.Position,
		FullURL:  e.FullURL,
		Error:    err.Error(),
		Kind:     "invalid",
	}
	if e.Resource != nil {
		f.ResourceType = e.Resource.Type()
		f.ResourceID = e.Resource.ID()
	}
	var xerr *ExtractionError
	if errors.As(err, &xerr) {
		f.Kind = xerr.Kind.String()
	}
	return f
}

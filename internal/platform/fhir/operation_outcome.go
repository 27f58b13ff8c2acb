package fhir

import (
	"errors"
	"fmt"
)

// OperationOutcome issue severities (FHIR R4).
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes used by this service.
const (
	IssueTypeInvalid      = "invalid"
	IssueTypeStructure    = "structure"
	IssueTypeRequired     = "required"
	IssueTypeNotFound     = "not-found"
	IssueTypeProcessing   = "processing"
	IssueTypeNotSupported = "not-supported"
	IssueTypeException    = "exception"
	IssueTypeTimeout      = "timeout"
	IssueTypeTooCostly    = "too-costly"
)

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Diagnostics string   `json:"diagnostics,omitempty"`
	Expression  []string `json:"expression,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

// StructureOutcome is returned for payloads that are not a parseable bundle.
func StructureOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeStructure, diagnostics)
}

// RequiredFieldOutcome creates an OperationOutcome for a missing required field.
func RequiredFieldOutcome(field string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    IssueSeverityError,
				Code:        IssueTypeRequired,
				Diagnostics: fmt.Sprintf("%s is required", field),
				Expression:  []string{field},
			},
		},
	}
}

// ExtractionOutcome maps an extraction error to an OperationOutcome. Errors
// that are not *ExtractionError become processing errors.
func ExtractionOutcome(err error) *OperationOutcome {
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		return ErrorOutcome(err.Error())
	}
	switch xerr.Kind {
	case ErrorMissingRequiredField:
		oo := RequiredFieldOutcome(xerr.ResourceType + "." + xerr.Field)
		oo.Issue[0].Diagnostics = xerr.Error()
		return oo
	case ErrorUnresolvedReference:
		return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, xerr.Error())
	case ErrorUnknownProfile:
		return NewOperationOutcome(IssueSeverityWarning, IssueTypeNotSupported, xerr.Error())
	}
	return ErrorOutcome(xerr.Error())
}

// FailuresOutcome lists per-entry failures of a batch as warnings.
func FailuresOutcome(failures []EntryFailure) *OperationOutcome {
	oo := &OperationOutcome{ResourceType: "OperationOutcome", Issue: []OperationOutcomeIssue{}}
	for _, f := range failures {
		oo.Issue = append(oo.Issue, OperationOutcomeIssue{
			Severity:    IssueSeverityWarning,
			Code:        IssueTypeProcessing,
			Diagnostics: f.Error,
			Expression:  []string{fmt.Sprintf("Bundle.entry[%d]", f.Position)},
		})
	}
	return oo
}

// HasErrors returns true if the outcome contains any error or fatal issues.
func (o *OperationOutcome) HasErrors() bool {
	for _, issue := range o.Issue {
		if issue.Severity == IssueSeverityError || issue.Severity == IssueSeverityFatal {
			return true
		}
	}
	return false
}

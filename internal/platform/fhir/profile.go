package fhir

import (
	"strings"
)

// ResourceKind is the resource kind a profile describes.
type ResourceKind string

const (
	KindTask               ResourceKind = "Task"
	KindKBVBundle          ResourceKind = "KBVBundle"
	KindMedicationRequest  ResourceKind = "MedicationRequest"
	KindMedication         ResourceKind = "Medication"
	KindMedicationDispense ResourceKind = "MedicationDispense"
	KindOrganization       ResourceKind = "Organization"
	KindPractitioner       ResourceKind = "Practitioner"
	KindPatient            ResourceKind = "Patient"
	KindCoverage           ResourceKind = "Coverage"
	KindChargeItem         ResourceKind = "ChargeItem"
	KindInvoice            ResourceKind = "Invoice"
	KindDispenseBundle     ResourceKind = "DispenseBundle"
	KindAuditEvent         ResourceKind = "AuditEvent"
	KindCommunication      ResourceKind = "Communication"
	KindReceipt            ResourceKind = "Receipt"
	KindBinary             ResourceKind = "Binary"
	KindUnknown            ResourceKind = "Unknown"
)

// Generation is the schema generation a profile belongs to.
type Generation string

const (
	GenerationLegacy  Generation = "legacy"
	Generation12      Generation = "1.2"
	Generation13      Generation = "1.3"
	Generation14      Generation = "1.4"
	Generation15      Generation = "1.5"
	GenerationEU10    Generation = "eu-1.0"
	GenerationDiGA    Generation = "diga"
	GenerationKBV     Generation = "kbv"
	GenerationDAV     Generation = "dav"
	GenerationUnknown Generation = "unknown"
)

// Profile name prefixes of the e-prescription profile families.
const (
	prefixGematikEU     = "GEM_ERPEU_PR_"
	prefixGematikCharge = "GEM_ERPCHRG_PR_"
	prefixGematik       = "GEM_ERP_PR_"
	prefixKBVERP        = "KBV_PR_ERP_"
	prefixKBVFOR        = "KBV_PR_FOR_"
	prefixDAV           = "DAV-PKV-PR-ERP-"
	prefixLegacy        = "Erx"
	suffixDiGA          = "_DiGA"
)

// VersionedProfile is a parsed meta.profile canonical.
type VersionedProfile struct {
	URL        string       `json:"url,omitempty"`
	Name       string       `json:"name,omitempty"`
	Version    string       `json:"version,omitempty"`
	Kind       ResourceKind `json:"kind"`
	Generation Generation   `json:"generation"`
}

// Known reports whether the profile was recognized.
func (p VersionedProfile) Known() bool {
	return p.Kind != KindUnknown && p.Generation != GenerationUnknown
}

func (p VersionedProfile) String() string {
	if p.Version == "" {
		return p.URL
	}
	return p.URL + "|" + p.Version
}

// ProfileOf returns the parsed first meta.profile of r. Resources without a
// profile yield the Unknown variant.
func ProfileOf(r Resource) VersionedProfile {
	return ParseProfile(String(r, "meta", "profile", 0))
}

// ParseProfile splits "url|version" and classifies the profile by its
// StructureDefinition name. Unrecognized canonicals map to KindUnknown and
// GenerationUnknown.
func ParseProfile(canonical string) VersionedProfile {
	canonical = strings.TrimSpace(canonical)
	p := VersionedProfile{Kind: KindUnknown, Generation: GenerationUnknown}
	if canonical == "" {
		return p
	}
	p.URL = canonical
	if i := strings.IndexByte(canonical, '|'); i >= 0 {
		p.URL, p.Version = canonical[:i], canonical[i+1:]
	}
	p.Name = p.URL[strings.LastIndexByte(p.URL, '/')+1:]

	name := p.Name
	diga := strings.HasSuffix(name, suffixDiGA)
	name = strings.TrimSuffix(name, suffixDiGA)

	switch {
	case strings.HasPrefix(name, prefixGematikEU):
		p.Kind = kindOf(strings.TrimPrefix(name, prefixGematikEU), false)
		p.Generation = GenerationEU10
	case strings.HasPrefix(name, prefixGematikCharge):
		p.Kind = kindOf(strings.TrimPrefix(name, prefixGematikCharge), false)
		p.Generation = generationOf(p.Version)
	case strings.HasPrefix(name, prefixGematik):
		token := strings.TrimPrefix(name, prefixGematik)
		if token == "Bundle" {
			p.Kind = KindReceipt
		} else {
			p.Kind = kindOf(token, false)
		}
		p.Generation = generationOf(p.Version)
	case strings.HasPrefix(name, prefixKBVERP), strings.HasPrefix(name, prefixKBVFOR):
		token := strings.TrimPrefix(strings.TrimPrefix(name, prefixKBVERP), prefixKBVFOR)
		p.Kind = kindOf(token, true)
		p.Generation = GenerationKBV
	case strings.HasPrefix(name, prefixDAV):
		p.Kind = davKind(strings.TrimPrefix(name, prefixDAV))
		p.Generation = GenerationDAV
	case strings.HasPrefix(name, prefixLegacy):
		p.Kind = kindOf(strings.TrimPrefix(name, prefixLegacy), false)
		p.Generation = GenerationLegacy
	}
	if p.Kind == KindUnknown {
		p.Generation = GenerationUnknown
		return p
	}
	if diga {
		p.Generation = GenerationDiGA
	}
	return p
}

func kindOf(token string, kbv bool) ResourceKind {
	switch {
	case token == "Task":
		return KindTask
	case token == "Bundle" && kbv:
		return KindKBVBundle
	case token == "Receipt":
		return KindReceipt
	case token == "Prescription", token == "MedicationRequest":
		return KindMedicationRequest
	case token == "MedicationDispense":
		return KindMedicationDispense
	case strings.HasPrefix(token, "Medication"):
		return KindMedication
	case token == "Organization":
		return KindOrganization
	case token == "Practitioner":
		return KindPractitioner
	case token == "Patient":
		return KindPatient
	case token == "Coverage":
		return KindCoverage
	case token == "ChargeItem":
		return KindChargeItem
	case token == "AuditEvent":
		return KindAuditEvent
	case strings.HasPrefix(token, "Communication"):
		return KindCommunication
	case token == "Binary":
		return KindBinary
	}
	return KindUnknown
}

func davKind(token string) ResourceKind {
	switch token {
	case "AbgabedatenBundle":
		return KindDispenseBundle
	case "Abgabeinformationen":
		return KindMedicationDispense
	case "Abrechnungszeilen":
		return KindInvoice
	case "Apotheke":
		return KindOrganization
	}
	return KindUnknown
}

// generationOf maps a gematik profile version to its workflow generation.
// Patch levels are ignored.
func generationOf(version string) Generation {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return GenerationUnknown
	}
	switch parts[0] + "." + parts[1] {
	case "1.2":
		return Generation12
	case "1.3":
		return Generation13
	case "1.4":
		return Generation14
	case "1.5":
		return Generation15
	}
	return GenerationUnknown
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Extractor turns one resource into a domain record.
type Extractor[T any] func(r Resource, res *Resolver) (T, error)

// Dispatcher routes resources of one kind to the extractor registered for
// their profile generation. Unknown or absent profiles, and generations
// without an extractor, go to the fallback.
type Dispatcher[T any] struct {
	kind     ResourceKind
	byGen    map[Generation]Extractor[T]
	fallback Extractor[T]

	// OnFallback, if set, is called with an ErrUnknownProfile error whenever
	// a resource is routed to the fallback extractor.
	OnFallback func(r Resource, err error)
}

// NewDispatcher returns a dispatcher for kind with the given fallback.
func NewDispatcher[T any](kind ResourceKind, fallback Extractor[T]) *Dispatcher[T] {
	return &Dispatcher[T]{
		kind:     kind,
		byGen:    make(map[Generation]Extractor[T]),
		fallback: fallback,
	}
}

// Register binds fn to each of gens.
func (d *Dispatcher[T]) Register(fn Extractor[T], gens ...Generation) *Dispatcher[T] {
	for _, g := range gens {
		d.byGen[g] = fn
	}
	return d
}

// Route returns the extractor for p and whether it is the fallback.
func (d *Dispatcher[T]) Route(p VersionedProfile) (Extractor[T], bool) {
	if p.Kind == d.kind {
		if fn, ok := d.byGen[p.Generation]; ok {
			return fn, false
		}
	}
	return d.fallback, true
}

// Extract routes r by its declared profile and runs the chosen extractor.
func (d *Dispatcher[T]) Extract(r Resource, res *Resolver) (T, error) {
	p := ProfileOf(r)
	fn, fallback := d.Route(p)
	if fallback && d.OnFallback != nil {
		d.OnFallback(r, UnknownProfileError(r.Type(), p.String()))
	}
	return fn(r, res)
}

package medication

import (
	"strings"

	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/fhirmodels"
)

// scoped returns a resolver for container, tolerating a nil resolver for
// resources extracted outside a bundle.
func scoped(res *fhir.Resolver, container fhir.Resource) *fhir.Resolver {
	if res == nil {
		res = fhir.NewResolver(nil)
	}
	return res.For(container)
}

// -- Medication --

// ExtractMedication maps a KBV, ePA or legacy Medication. Ingredients given
// as references are resolved against contained resources first.
func ExtractMedication(r fhir.Resource, res *fhir.Resolver) (MedicationRecord, error) {
	if r == nil || r.Type() != "Medication" {
		return MedicationRecord{}, fhir.MissingField("Medication", "resource")
	}
	code := fhir.Object(r, "code")
	rec := MedicationRecord{
		ID:             r.ID(),
		Category:       categoryOf(r),
		Name:           fhir.String(code, "text"),
		PZN:            fhir.CodingCode(code, fhirmodels.SystemPZN),
		ATC:            fhir.CodingCode(code, fhirmodels.SystemATC),
		Form:           formOf(fhir.Object(r, "form")),
		NormSizeCode:   fhir.String(fhir.Extension(r, fhirmodels.ExtNormSize), "valueCode"),
		Amount:         fhir.ParseRatio(fhir.Get(r, "amount")),
		DrugCategory:   fhir.String(fhir.Extension(r, fhirmodels.ExtKBVMedicationCategory, fhirmodels.ExtEPADrugCategory), "valueCoding", "code"),
		LotNumber:      fhir.String(r, "batch", "lotNumber"),
		ExpirationDate: fhir.DateTime(r, "batch", "expirationDate"),
		ManufacturingInstructions: fhir.String(
			fhir.Extension(r, fhirmodels.ExtKBVCompoundingInstr, fhirmodels.ExtEPAManufacturing), "valueString"),
		Packaging: fhir.String(fhir.Extension(r, fhirmodels.ExtKBVPackaging, fhirmodels.ExtEPAPackaging), "valueString"),
	}
	if rec.Name == "" {
		rec.Name = fhir.CodingDisplay(code)
	}
	if v, ok := fhir.Bool(fhir.Extension(r, fhirmodels.ExtKBVVaccine, fhirmodels.ExtEPAVaccine), "valueBoolean"); ok {
		rec.Vaccine = v
	}

	res = scoped(res, r)
	for _, ing := range fhir.Array(r, "ingredient") {
		ingredient, err := extractIngredient(ing, res)
		if err != nil {
			return MedicationRecord{}, err
		}
		rec.Ingredients = append(rec.Ingredients, ingredient)
	}
	if rec.Category == CategoryUnknown {
		rec.Category = inferCategory(rec)
	}
	return rec, nil
}

func extractIngredient(ing interface{}, res *fhir.Resolver) (Ingredient, error) {
	in := Ingredient{
		Form:     fhir.String(fhir.Extension(ing, fhirmodels.ExtKBVIngredientForm), "valueString"),
		Strength: fhir.ParseRatio(fhir.Get(ing, "strength")),
		StrengthFreeText: fhir.String(
			fhir.Extension(fhir.Get(ing, "strength"), fhirmodels.ExtKBVIngredientAmount), "valueString"),
	}
	if item := fhir.Object(ing, "itemCodeableConcept"); item != nil {
		in.Text = fhir.String(item, "text")
		if in.Text == "" {
			in.Text = fhir.CodingDisplay(item)
		}
		in.Number = fhir.CodingCode(item, fhirmodels.SystemPZN, fhirmodels.SystemASK)
		return in, nil
	}
	if ref := fhir.String(ing, "itemReference", "reference"); ref != "" {
		item, ok := res.Resolve(ref)
		if !ok {
			return Ingredient{}, fhir.Unresolved("Medication", "ingredient.itemReference", ref)
		}
		in.Text = fhir.String(item, "code", "text")
		if in.Text == "" {
			in.Text = fhir.CodingDisplay(fhir.Object(item, "code"))
		}
		in.Number = fhir.CodingCode(fhir.Object(item, "code"), fhirmodels.SystemPZN, fhirmodels.SystemASK)
	}
	return in, nil
}

func categoryOf(r fhir.Resource) Category {
	p := fhir.ProfileOf(r)
	switch {
	case strings.HasSuffix(p.Name, "_PZN"):
		return CategoryPZN
	case strings.HasSuffix(p.Name, "_Compounding"):
		return CategoryCompounding
	case strings.HasSuffix(p.Name, "_Ingredient"):
		return CategoryIngredient
	case strings.HasSuffix(p.Name, "_FreeText"):
		return CategoryFreeText
	case p.Kind == fhir.KindMedication && p.Generation != fhir.GenerationKBV && p.Generation != fhir.GenerationUnknown:
		return CategoryEPA
	case strings.HasPrefix(p.Name, "epa-medication"):
		return CategoryEPA
	}
	return CategoryUnknown
}

// inferCategory classifies a medication without a recognized profile by
// its content.
func inferCategory(rec MedicationRecord) Category {
	switch {
	case len(rec.Ingredients) > 1 || rec.ManufacturingInstructions != "":
		return CategoryCompounding
	case len(rec.Ingredients) == 1:
		return CategoryIngredient
	case rec.PZN != "":
		return CategoryPZN
	case rec.Name != "":
		return CategoryFreeText
	}
	return CategoryUnknown
}

func formOf(form fhir.Resource) string {
	if form == nil {
		return ""
	}
	if text := fhir.String(form, "text"); text != "" {
		return text
	}
	if code := fhir.CodingCode(form, fhirmodels.SystemDarreichungsform); code != "" {
		return code
	}
	return fhir.CodingCode(form)
}

// -- MedicationDispense --

var dispenses = NewDispenseDispatcher()

// NewDispenseDispatcher returns a dispatcher over the MedicationDispense
// generations. Unknown profiles use the legacy extractor.
func NewDispenseDispatcher() *fhir.Dispatcher[MedicationDispenseRecord] {
	return fhir.NewDispatcher[MedicationDispenseRecord](fhir.KindMedicationDispense, ExtractLegacyDispense).
		Register(ExtractLegacyDispense, fhir.GenerationLegacy, fhir.Generation12, fhir.Generation13).
		Register(ExtractDispense14, fhir.Generation14, fhir.Generation15).
		Register(ExtractEUDispense, fhir.GenerationEU10).
		Register(ExtractDigaDispense, fhir.GenerationDiGA)
}

// ExtractDispense extracts a MedicationDispense of any generation.
func ExtractDispense(r fhir.Resource, res *fhir.Resolver) (MedicationDispenseRecord, error) {
	return dispenses.Extract(r, res)
}

// ExtractDispenseBundle extracts every MedicationDispense of the indexed
// bundle, isolating per-entry failures.
func ExtractDispenseBundle(ix *fhir.Index) fhir.Batch[MedicationDispenseRecord] {
	return fhir.ExtractAll[MedicationDispenseRecord](ix, "MedicationDispense", ExtractDispense)
}

func dispenseBase(r fhir.Resource) (MedicationDispenseRecord, error) {
	rec := MedicationDispenseRecord{
		DispenseID:           r.ID(),
		PrescriptionID:       fhir.IdentifierValue(fhir.Array(r, "identifier"), fhirmodels.PrescriptionIDSystems...),
		PatientKVNR:          fhir.String(r, "subject", "identifier", "value"),
		PerformerTelematikID: fhir.String(r, "performer", 0, "actor", "identifier", "value"),
		Status:               fhir.String(r, "status"),
		WhenHandedOver:       fhir.DateTime(r, "whenHandedOver"),
		WhenPrepared:         fhir.DateTime(r, "whenPrepared"),
		DosageInstruction:    fhir.String(r, "dosageInstruction", 0, "text"),
		Generation:           fhir.ProfileOf(r).Generation,
	}
	if v, ok := fhir.Bool(r, "substitution", "wasSubstituted"); ok {
		rec.WasSubstituted = v
	}
	if rec.PrescriptionID == "" {
		return rec, fhir.MissingField("MedicationDispense", "identifier")
	}
	return rec, nil
}

// ExtractLegacyDispense reads dispenses that carry their medication as a
// contained resource.
func ExtractLegacyDispense(r fhir.Resource, res *fhir.Resolver) (MedicationDispenseRecord, error) {
	rec, err := dispenseBase(r)
	if err != nil {
		return rec, err
	}
	res = scoped(res, r)

	var med fhir.Resource
	if ref := fhir.String(r, "medicationReference", "reference"); strings.HasPrefix(ref, "#") && ref != "#" {
		med, _ = res.Resolve(ref)
	}
	if med == nil {
		med = fhir.Object(r, "contained", 0)
	}
	if med == nil {
		return rec, fhir.MissingField("MedicationDispense", "contained")
	}
	m, err := ExtractMedication(med, res.For(med))
	if err != nil {
		return rec, err
	}
	rec.Medication = &m
	return rec, nil
}

// ExtractDispense14 reads 1.4 and 1.5 dispenses whose medication is a
// separate bundle entry.
func ExtractDispense14(r fhir.Resource, res *fhir.Resolver) (MedicationDispenseRecord, error) {
	rec, err := dispenseBase(r)
	if err != nil {
		return rec, err
	}
	res = scoped(res, r)
	med, err := res.Require("MedicationDispense", "medicationReference", fhir.String(r, "medicationReference", "reference"))
	if err != nil {
		return rec, err
	}
	m, err := ExtractMedication(med, res.For(med))
	if err != nil {
		return rec, err
	}
	rec.Medication = &m
	return rec, nil
}

// ExtractEUDispense reads dispenses performed by a pharmacy in another EU
// member state.
func ExtractEUDispense(r fhir.Resource, res *fhir.Resolver) (MedicationDispenseRecord, error) {
	rec, err := ExtractDispense14(r, res)
	if err != nil {
		return rec, err
	}
	res = scoped(res, r)

	cb := &CrossBorder{}
	if ext := fhir.Extension(r, fhirmodels.ExtDispensingCountry...); ext != nil {
		cb.Country = fhir.String(ext, "valueCoding", "code")
		if cb.Country == "" {
			cb.Country = fhir.String(ext, "valueCode")
		}
	}
	for _, perf := range fhir.Array(r, "performer") {
		actor, ok := res.Resolve(fhir.String(perf, "actor", "reference"))
		if !ok {
			continue
		}
		readPerformer(cb, actor, res)
	}
	rec.CrossBorder = cb
	return rec, nil
}

func readPerformer(cb *CrossBorder, actor fhir.Resource, res *fhir.Resolver) {
	switch actor.Type() {
	case "Practitioner":
		if cb.PractitionerName == "" {
			cb.PractitionerName = fhir.HumanNameText(actor)
		}
	case "PractitionerRole":
		if cb.PractitionerRole == "" {
			cb.PractitionerRole = fhir.String(actor, "code", 0, "text")
			if cb.PractitionerRole == "" {
				cb.PractitionerRole = fhir.CodingDisplay(fhir.Object(actor, "code", 0))
			}
		}
		for _, path := range [][]interface{}{{"practitioner", "reference"}, {"organization", "reference"}} {
			if nested, ok := res.Resolve(fhir.String(actor, path...)); ok && nested.Type() != "PractitionerRole" {
				readPerformer(cb, nested, res)
			}
		}
	case "Organization":
		if cb.PharmacyName == "" {
			cb.PharmacyName = fhir.String(actor, "name")
		}
		if cb.PharmacyID == "" {
			cb.PharmacyID = fhir.IdentifierValue(fhir.Array(actor, "identifier"), fhirmodels.EUPharmacyIDSystems...)
			if cb.PharmacyID == "" {
				cb.PharmacyID = fhir.IdentifierValue(fhir.Array(actor, "identifier"))
			}
		}
		if cb.Country == "" {
			if addr := fhir.ParseAddress(actor); addr != nil {
				cb.Country = addr.Country
			}
		}
	}
}

// ExtractDigaDispense reads the redeem code and deep link of a digital
// health application. DiGA dispenses carry no Medication.
func ExtractDigaDispense(r fhir.Resource, res *fhir.Resolver) (MedicationDispenseRecord, error) {
	rec, err := dispenseBase(r)
	if err != nil {
		return rec, err
	}
	concept := fhir.Object(r, "medicationCodeableConcept")
	if concept == nil {
		return rec, fhir.MissingField("MedicationDispense", "medicationCodeableConcept")
	}
	d := &Diga{
		Name:       fhir.CodingDisplay(concept),
		PZN:        fhir.CodingCode(concept, fhirmodels.SystemPZN),
		RedeemCode: fhir.String(fhir.Extension(r, fhirmodels.ExtRedeemCode...), "valueString"),
		DeepLink:   fhir.String(fhir.Extension(r, fhirmodels.ExtDeepLink...), "valueUrl"),
	}
	if d.Name == "" {
		d.Name = fhir.String(concept, "text")
	}
	d.Declined = d.RedeemCode == ""
	rec.Diga = d
	return rec, nil
}

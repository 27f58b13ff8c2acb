package task

import (
	"github.com/erx/erx/internal/domain/dosage"
	"github.com/erx/erx/internal/domain/medication"
	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/fhirmodels"
)

// ExtractTask maps a Task and, when its input references a KBV bundle, the
// prescription inside it. A Task without such an input yields a record
// without Prescription. An input that does not resolve is an error.
func ExtractTask(r fhir.Resource, res *fhir.Resolver) (TaskRecord, error) {
	rec := TaskRecord{
		TaskID:         r.ID(),
		PrescriptionID: fhir.IdentifierValue(fhir.Array(r, "identifier"), fhirmodels.PrescriptionIDSystems...),
		AccessCode:     fhir.IdentifierValue(fhir.Array(r, "identifier"), fhirmodels.AccessCodeSystems...),
		Status:         fhir.String(r, "status"),
		FlowType:       fhir.String(fhir.Extension(r, fhirmodels.ExtPrescriptionType...), "valueCoding", "code"),
		AuthoredOn:     fhir.DateTime(r, "authoredOn"),
		LastModified:   fhir.DateTime(r, "lastModified"),
		ExpiresOn:      fhir.DateTime(fhir.Extension(r, fhirmodels.ExtExpiryDate...), "valueDate"),
		AcceptUntil:    fhir.DateTime(fhir.Extension(r, fhirmodels.ExtAcceptDate...), "valueDate"),
		LastMedicationDispense: fhir.DateTime(
			fhir.Extension(r, fhirmodels.ExtLastMedicationDispense...), "valueInstant"),
		Generation: fhir.ProfileOf(r).Generation,
	}
	if rec.TaskID == "" {
		return rec, fhir.MissingField("Task", "id")
	}
	if rec.FlowType == "" {
		// Legacy tasks carry the flow type as the prefix of the prescription id.
		if len(rec.PrescriptionID) >= 3 {
			rec.FlowType = rec.PrescriptionID[:3]
		}
	}

	ref := prescriptionInput(r)
	if ref == "" {
		return rec, nil
	}
	if res == nil {
		return rec, fhir.Unresolved("Task", "input.valueReference", ref)
	}
	entry, ok := res.ResolveEntry(ref)
	if !ok {
		return rec, fhir.Unresolved("Task", "input.valueReference", ref)
	}
	sub, ok := res.Sub(entry)
	if !ok {
		b, err := fhir.BundleFromResource(entry.Resource)
		if err != nil {
			return rec, err
		}
		sub = fhir.NewResolver(fhir.NewIndex(b)).For(entry.Resource)
	}
	p, err := ExtractPrescription(sub)
	if err != nil {
		return rec, err
	}
	rec.Prescription = &p
	return rec, nil
}

// prescriptionInput returns the reference of the input typed as the
// prescription document, falling back to the first referencing input.
func prescriptionInput(r fhir.Resource) string {
	inputs := fhir.Array(r, "input")
	for _, in := range inputs {
		if fhir.CodingCode(fhir.Get(in, "type"), fhirmodels.DocumentTypeSystems...) == fhirmodels.DocumentTypePrescription {
			if ref := fhir.String(in, "valueReference", "reference"); ref != "" {
				return ref
			}
		}
	}
	for _, in := range inputs {
		if ref := fhir.String(in, "valueReference", "reference"); ref != "" {
			return ref
		}
	}
	return ""
}

// ExtractPrescription reads the KBV bundle res is scoped to. The bundle
// entries are bucketed in one pass; the first resource of each type wins.
// Medication and MedicationRequest are mandatory.
func ExtractPrescription(res *fhir.Resolver) (PrescriptionRecord, error) {
	if res == nil || res.Index() == nil {
		return PrescriptionRecord{}, fhir.MissingField("Bundle", "entry")
	}
	b := res.Index().Bundle()
	first := make(map[string]fhir.Resource, 6)
	for _, e := range b.Entries {
		if e.Resource == nil {
			continue
		}
		if _, seen := first[e.Resource.Type()]; !seen {
			first[e.Resource.Type()] = e.Resource
		}
	}

	p := PrescriptionRecord{
		BundleID:       b.ID,
		PrescriptionID: fhir.String(res.Container(), "identifier", "value"),
	}

	mr, ok := first["MedicationRequest"]
	if !ok {
		return p, fhir.MissingField("Bundle", "MedicationRequest")
	}
	p.MedicationRequest = extractMedicationRequest(mr)

	med, ok := res.Resolve(fhir.String(mr, "medicationReference", "reference"))
	if !ok {
		med, ok = first["Medication"]
	}
	if !ok {
		return p, fhir.MissingField("Bundle", "Medication")
	}
	m, err := medication.ExtractMedication(med, res.For(med))
	if err != nil {
		return p, err
	}
	p.Medication = m

	if r, ok := first["Organization"]; ok {
		o := extractOrganization(r)
		p.Organization = &o
	}
	if r, ok := first["Practitioner"]; ok {
		pr := extractPractitioner(r)
		p.Practitioner = &pr
	}
	if r, ok := first["Patient"]; ok {
		pa := extractPatient(r)
		p.Patient = &pa
	}
	if r, ok := first["Coverage"]; ok {
		c := extractCoverage(r)
		p.Coverage = &c
	}
	return p, nil
}

func extractMedicationRequest(r fhir.Resource) MedicationRequestRecord {
	rec := MedicationRequestRecord{
		AuthoredOn:      fhir.DateTime(r, "authoredOn"),
		DosageText:      fhir.String(r, "dosageInstruction", 0, "text"),
		Note:            fhir.String(r, "note", 0, "text"),
		CoPaymentStatus: fhir.String(fhir.Extension(r, fhirmodels.ExtKBVStatusCoPayment), "valueCoding", "code"),
	}
	text := rec.DosageText
	rec.Dosage = dosage.Parse(&text)
	if n, ok := fhir.Int(r, "dispenseRequest", "quantity", "value"); ok {
		rec.Quantity = n
	}
	rec.DosageFlag, _ = fhir.Bool(fhir.Extension(fhir.Get(r, "dosageInstruction", 0), fhirmodels.ExtKBVDosageFlag), "valueBoolean")
	rec.SubstitutionAllowed, _ = fhir.Bool(r, "substitution", "allowedBoolean")
	rec.EmergencyServicesFee, _ = fhir.Bool(fhir.Extension(r, fhirmodels.ExtKBVEmergencyServicesFee), "valueBoolean")
	rec.BVG, _ = fhir.Bool(fhir.Extension(r, fhirmodels.ExtKBVBVG), "valueBoolean")

	if ext := fhir.Extension(r, fhirmodels.ExtKBVAccident); ext != nil {
		rec.Accident = &Accident{
			Type:     fhir.String(fhir.Extension(ext, "Unfallkennzeichen"), "valueCoding", "code"),
			Date:     fhir.DateTime(fhir.Extension(ext, "Unfalltag"), "valueDate"),
			Employer: fhir.String(fhir.Extension(ext, "Unfallbetrieb"), "valueString"),
		}
	}
	if ext := fhir.Extension(r, fhirmodels.ExtKBVMultiplePrescription); ext != nil {
		if flag, _ := fhir.Bool(fhir.Extension(ext, "Kennzeichen"), "valueBoolean"); flag {
			mp := &MultiplePrescription{
				Start: fhir.DateTime(fhir.Extension(ext, "Zeitraum"), "valuePeriod", "start"),
				End:   fhir.DateTime(fhir.Extension(ext, "Zeitraum"), "valuePeriod", "end"),
			}
			ratio := fhir.Get(fhir.Extension(ext, "Nummerierung"), "valueRatio")
			mp.Numerator, _ = fhir.Int(ratio, "numerator", "value")
			mp.Denominator, _ = fhir.Int(ratio, "denominator", "value")
			rec.MultiplePrescription = mp
		}
	}
	return rec
}

func extractOrganization(r fhir.Resource) OrganizationRecord {
	ids := fhir.Array(r, "identifier")
	return OrganizationRecord{
		Name:    fhir.String(r, "name"),
		BSNR:    fhir.IdentifierValue(ids, fhirmodels.SystemBSNR),
		IKNR:    fhir.IdentifierValue(ids, fhirmodels.SystemIKNR),
		Address: fhir.ParseAddress(r),
		Phone:   fhir.TelecomValue(r, "phone"),
		Mail:    fhir.TelecomValue(r, "email"),
		Fax:     fhir.TelecomValue(r, "fax"),
	}
}

func extractPractitioner(r fhir.Resource) PractitionerRecord {
	ids := fhir.Array(r, "identifier")
	rec := PractitionerRecord{
		Name: fhir.HumanNameText(r),
		LANR: fhir.IdentifierValue(ids, fhirmodels.SystemLANR),
		ZANR: fhir.IdentifierValue(ids, fhirmodels.SystemZANR),
	}
	for _, q := range fhir.Array(r, "qualification") {
		code := fhir.Get(q, "code")
		if c := fhir.CodingCode(code, fhirmodels.SystemQualification); c != "" && rec.QualificationType == "" {
			rec.QualificationType = c
			continue
		}
		if t := fhir.String(code, "text"); t != "" && rec.Profession == "" {
			rec.Profession = t
		}
	}
	return rec
}

func extractPatient(r fhir.Resource) PatientRecord {
	return PatientRecord{
		Name:      fhir.HumanNameText(r),
		KVNR:      fhir.IdentifierValue(fhir.Array(r, "identifier"), fhirmodels.KVNRSystems...),
		BirthDate: fhir.DateTime(r, "birthDate"),
		Address:   fhir.ParseAddress(r),
	}
}

func extractCoverage(r fhir.Resource) CoverageRecord {
	return CoverageRecord{
		PayorName:     fhir.String(r, "payor", 0, "display"),
		IKNR:          fhir.String(r, "payor", 0, "identifier", "value"),
		StatusCode:    fhir.String(fhir.Extension(r, fhirmodels.ExtInsuranceType), "valueCoding", "code"),
		InsuranceType: fhir.CodingCode(fhir.Get(r, "type")),
	}
}

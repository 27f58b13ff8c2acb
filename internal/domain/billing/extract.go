package billing

import (
	"encoding/base64"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erx/erx/internal/domain/task"
	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/fhirmodels"
)

// ExtractChargeItem maps a ChargeItem. Each supportingInformation reference
// is resolved on its own; references that do not resolve, or resolve to a
// document that cannot be read, are skipped.
func ExtractChargeItem(r fhir.Resource, res *fhir.Resolver) (ChargeItemRecord, error) {
	ids := fhir.Array(r, "identifier")
	rec := ChargeItemRecord{
		ID:                 r.ID(),
		PrescriptionID:     fhir.IdentifierValue(ids, fhirmodels.PrescriptionIDSystems...),
		AccessCode:         fhir.IdentifierValue(ids, fhirmodels.AccessCodeSystems...),
		PatientKVNR:        fhir.String(r, "subject", "identifier", "value"),
		EntererTelematikID: fhir.String(r, "enterer", "identifier", "value"),
		EnteredDate:        fhir.DateTime(r, "enteredDate"),
		Generation:         fhir.ProfileOf(r).Generation,
	}
	if rec.PrescriptionID == "" {
		return rec, fhir.MissingField("ChargeItem", "identifier")
	}
	if flag := fhir.Extension(r, fhirmodels.ExtMarkingFlag...); flag != nil {
		rec.MarkingFlags.InsuranceProvider, _ = fhir.Bool(fhir.Extension(flag, "insuranceProvider"), "valueBoolean")
		rec.MarkingFlags.Subsidy, _ = fhir.Bool(fhir.Extension(flag, "subsidy"), "valueBoolean")
		rec.MarkingFlags.TaxOffice, _ = fhir.Bool(fhir.Extension(flag, "taxOffice"), "valueBoolean")
	}
	if res == nil {
		res = fhir.NewResolver(nil)
	}
	res = res.For(r)

	for _, info := range fhir.Array(r, "supportingInformation") {
		entry, ok := res.ResolveEntry(fhir.String(info, "reference"))
		if !ok || entry.Resource == nil {
			continue
		}
		doc, ok := documentResolver(res, entry)
		if !ok {
			continue
		}
		readDocument(&rec, doc)
	}
	return rec, nil
}

// documentResolver returns a resolver scoped to the bundle behind entry. A
// Binary entry is decoded and parsed first.
func documentResolver(res *fhir.Resolver, entry fhir.Entry) (*fhir.Resolver, bool) {
	switch entry.Resource.Type() {
	case "Bundle":
		if sub, ok := res.Sub(entry); ok {
			return sub, true
		}
		return resolverFor(entry.Resource)
	case "Binary":
		data, err := base64.StdEncoding.DecodeString(fhir.String(entry.Resource, "data"))
		if err != nil || len(data) == 0 {
			return nil, false
		}
		doc, err := fhir.DecodeResource(data)
		if err != nil {
			return nil, false
		}
		return resolverFor(doc)
	}
	return nil, false
}

func resolverFor(bundle fhir.Resource) (*fhir.Resolver, bool) {
	b, err := fhir.BundleFromResource(bundle)
	if err != nil {
		return nil, false
	}
	return fhir.NewResolver(fhir.NewIndex(b)).For(bundle), true
}

func readDocument(rec *ChargeItemRecord, doc *fhir.Resolver) {
	b := doc.Index().Bundle()
	switch kindOf(b) {
	case fhir.KindKBVBundle:
		if rec.Prescription != nil {
			return
		}
		if p, err := task.ExtractPrescription(doc); err == nil {
			rec.Prescription = &p
		}
	case fhir.KindDispenseBundle:
		if rec.Dispense == nil {
			d := extractDispenseBundle(doc)
			rec.Dispense = &d
		}
	case fhir.KindReceipt:
		if rec.ReceiptID == "" {
			rec.ReceiptID = b.ID
		}
	}
}

// kindOf classifies a bundle by profile, or by its content when the
// profile is absent or unknown.
func kindOf(b *fhir.Bundle) fhir.ResourceKind {
	if b.Profile.Kind != fhir.KindUnknown {
		return b.Profile.Kind
	}
	if _, ok := b.First("Invoice"); ok {
		return fhir.KindDispenseBundle
	}
	if _, ok := b.First("MedicationRequest"); ok {
		return fhir.KindKBVBundle
	}
	return fhir.KindUnknown
}

func extractDispenseBundle(doc *fhir.Resolver) DispenseRecord {
	b := doc.Index().Bundle()
	d := DispenseRecord{BundleID: b.ID}
	if e, ok := b.First("Organization"); ok {
		d.PharmacyName = fhir.String(e.Resource, "name")
		d.PharmacyIKNR = fhir.IdentifierValue(fhir.Array(e.Resource, "identifier"), fhirmodels.SystemIKNR)
	}
	if e, ok := b.First("MedicationDispense"); ok {
		d.WhenHandedOver = fhir.DateTime(e.Resource, "whenHandedOver")
	}
	if e, ok := b.First("Invoice"); ok {
		inv := ExtractInvoice(e.Resource)
		d.Invoice = &inv
	}
	return d
}

// ExtractInvoice maps a DAV invoice. The gross total falls back to the sum
// of the line item prices when totalGross is absent.
func ExtractInvoice(r fhir.Resource) InvoiceRecord {
	inv := InvoiceRecord{
		ID:        r.ID(),
		Currency:  fhir.String(r, "totalGross", "currency"),
		LineItems: []LineItem{},
	}

	sum := decimal.Zero
	for _, li := range fhir.Array(r, "lineItem") {
		item, price := extractLineItem(li)
		sum = sum.Add(price)
		inv.LineItems = append(inv.LineItems, item)
		if inv.Currency == "" {
			inv.Currency = fhir.String(li, "priceComponent", 0, "amount", "currency")
		}
	}

	if gross, ok := parseAmount(fhir.String(r, "totalGross", "value")); ok {
		inv.TotalGross = gross.StringFixed(2)
	} else {
		inv.TotalGross = sum.StringFixed(2)
	}
	copay := fhir.Extension(fhir.Get(r, "totalGross"), fhirmodels.ExtDAVTotalCoPayment)
	if v, ok := parseAmount(fhir.String(copay, "valueMoney", "value")); ok {
		inv.TotalCoPayment = v.StringFixed(2)
	}
	for _, n := range fhir.Array(r, "note") {
		if text := strings.TrimSpace(fhir.String(n, "text")); text != "" {
			inv.AdditionalInformation = append(inv.AdditionalInformation, text)
		}
	}
	return inv
}

func extractLineItem(li interface{}) (LineItem, decimal.Decimal) {
	concept := fhir.Get(li, "chargeItemCodeableConcept")
	item := LineItem{Description: fhir.String(concept, "text")}
	for _, c := range fhir.Array(concept, "coding") {
		code := fhir.String(c, "code")
		if code == "" {
			continue
		}
		item.Code = code
		item.CodeSystem = codeSystemOf(fhir.String(c, "system"))
		if item.Description == "" {
			item.Description = fhir.String(c, "display")
		}
		break
	}

	pc := fhir.Get(li, "priceComponent", 0)
	item.Factor = fhir.String(pc, "factor")
	price, ok := parseAmount(fhir.String(pc, "amount", "value"))
	if ok {
		item.Price = price.StringFixed(2)
	}
	if vat, ok := parseAmount(fhir.String(fhir.Extension(li, fhirmodels.ExtDAVVATRate), "valueDecimal")); ok {
		item.VATRate = vat.String()
	}
	return item, price
}

func codeSystemOf(system string) CodeSystemKind {
	switch system {
	case fhirmodels.SystemPZN:
		return CodeSystemPZN
	case fhirmodels.SystemTA1:
		return CodeSystemTA1
	case fhirmodels.SystemHMNR:
		return CodeSystemHMNR
	}
	return CodeSystemOther
}

func parseAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

package fhirmodels

// Naming systems, code systems and extension URLs of the German
// e-prescription profiles. Where a system changed between workflow
// generations, both spellings are listed, newest first.

// Identifier systems.
var (
	PrescriptionIDSystems = []string{
		"https://gematik.de/fhir/erp/NamingSystem/GEM_ERP_NS_PrescriptionId",
		"https://gematik.de/fhir/NamingSystem/PrescriptionID",
	}
	AccessCodeSystems = []string{
		"https://gematik.de/fhir/erp/NamingSystem/GEM_ERP_NS_AccessCode",
		"https://gematik.de/fhir/NamingSystem/AccessCode",
	}
	TelematikIDSystems = []string{
		"https://gematik.de/fhir/sid/telematik-id",
		"https://gematik.de/fhir/NamingSystem/TelematikID",
	}
	KVNRSystems = []string{
		"http://fhir.de/sid/gkv/kvid-10",
		"http://fhir.de/sid/pkv/kvid-10",
		"http://fhir.de/NamingSystem/gkv/kvid-10",
	}
	EUPharmacyIDSystems = []string{
		"https://gematik.de/fhir/erp-eu/sid/NamingSystem/GEM_ERPEU_NS_PharmacyId",
	}
)

const (
	SystemIKNR = "http://fhir.de/sid/arge-ik/iknr"
	SystemBSNR = "https://fhir.kbv.de/NamingSystem/KBV_NS_Base_BSNR"
	SystemLANR = "https://fhir.kbv.de/NamingSystem/KBV_NS_Base_ANR"
	SystemZANR = "http://fhir.de/sid/kzbv/zahnarztnummer"
	SystemPZN  = "http://fhir.de/CodeSystem/ifa/pzn"
	SystemATC  = "http://fhir.de/CodeSystem/bfarm/atc"
	SystemASK  = "http://fhir.de/CodeSystem/ask"
	SystemTA1  = "http://TA1.abda.de"
	SystemHMNR = "http://fhir.de/sid/gkv/hmnr"
)

// Code systems.
var (
	DocumentTypeSystems = []string{
		"https://gematik.de/fhir/erp/CodeSystem/GEM_ERP_CS_DocumentType",
		"https://gematik.de/fhir/CodeSystem/Documenttype",
	}
)

const (
	// DocumentTypePrescription marks the Task input carrying the KBV bundle.
	DocumentTypePrescription = "1"

	SystemDarreichungsform = "https://fhir.kbv.de/CodeSystem/KBV_CS_SFHIR_KBV_DARREICHUNGSFORM"
	SystemQualification    = "https://fhir.kbv.de/CodeSystem/KBV_CS_FOR_Qualification_Type"
)

// gematik workflow extensions.
var (
	ExtPrescriptionType = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_PrescriptionType",
		"https://gematik.de/fhir/StructureDefinition/PrescriptionType",
	}
	ExtExpiryDate = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_ExpiryDate",
		"https://gematik.de/fhir/StructureDefinition/ExpiryDate",
	}
	ExtAcceptDate = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_AcceptDate",
		"https://gematik.de/fhir/StructureDefinition/AcceptDate",
	}
	ExtLastMedicationDispense = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_LastMedicationDispense",
	}
	ExtRedeemCode = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_RedeemCode",
	}
	ExtDeepLink = []string{
		"https://gematik.de/fhir/erp/StructureDefinition/GEM_ERP_EX_DeepLink",
	}
	ExtMarkingFlag = []string{
		"https://gematik.de/fhir/erpchrg/StructureDefinition/GEM_ERPCHRG_EX_MarkingFlag",
		"https://gematik.de/fhir/StructureDefinition/MarkingFlag",
	}
	ExtDispensingCountry = []string{
		"https://gematik.de/fhir/erp-eu/StructureDefinition/GEM_ERPEU_EX_DispensingCountry",
	}
	ExtDataAbsentReason = []string{
		"http://hl7.org/fhir/StructureDefinition/data-absent-reason",
	}
)

// KBV prescription extensions.
const (
	ExtKBVBVG                  = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_BVG"
	ExtKBVEmergencyServicesFee = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_EmergencyServicesFee"
	ExtKBVDosageFlag           = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_DosageFlag"
	ExtKBVMultiplePrescription = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Multiple_Prescription"
	ExtKBVAccident             = "https://fhir.kbv.de/StructureDefinition/KBV_EX_FOR_Accident"
	ExtKBVStatusCoPayment      = "https://fhir.kbv.de/StructureDefinition/KBV_EX_FOR_StatusCoPayment"
	ExtKBVMedicationCategory   = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_Category"
	ExtKBVVaccine              = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_Vaccine"
	ExtKBVCompoundingInstr     = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_CompoundingInstruction"
	ExtKBVPackaging            = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_Packaging"
	ExtKBVIngredientForm       = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_Ingredient_Form"
	ExtKBVIngredientAmount     = "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_Medication_Ingredient_Amount"
	ExtNormSize                = "http://fhir.de/StructureDefinition/normgroesse"
	ExtInsuranceType           = "http://fhir.de/StructureDefinition/gkv/versichertenart"
)

// ePA medication extensions used by the 1.4+ Medication profile.
const (
	ExtEPAMedicationType = "https://gematik.de/fhir/epa-medication/StructureDefinition/medication-type-extension"
	ExtEPADrugCategory   = "https://gematik.de/fhir/epa-medication/StructureDefinition/drug-category-extension"
	ExtEPAVaccine        = "https://gematik.de/fhir/epa-medication/StructureDefinition/medication-id-vaccine-extension"
	ExtEPAManufacturing  = "https://gematik.de/fhir/epa-medication/StructureDefinition/medication-manufacturing-instructions-extension"
	ExtEPAPackaging      = "https://gematik.de/fhir/epa-medication/StructureDefinition/medication-formulation-packaging-extension"
)

// DAV dispense data extensions.
const (
	ExtDAVVATRate         = "http://fhir.abda.de/eRezeptAbgabedaten/StructureDefinition/DAV-EX-ERP-MwStSatz"
	ExtDAVTotalCoPayment  = "http://fhir.abda.de/eRezeptAbgabedaten/StructureDefinition/DAV-EX-ERP-Gesamtzuzahlung"
	ExtDAVInsurantCost    = "http://fhir.abda.de/eRezeptAbgabedaten/StructureDefinition/DAV-EX-ERP-KostenVersicherter"
	ExtDAVAdditionalAttrs = "http://fhir.abda.de/eRezeptAbgabedaten/StructureDefinition/DAV-EX-ERP-Zusatzattribute"
)

// Task status values.
const (
	TaskStatusDraft      = "draft"
	TaskStatusReady      = "ready"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

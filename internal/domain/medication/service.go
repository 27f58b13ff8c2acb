package medication

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
)

type Service struct {
	logger    zerolog.Logger
	dispenses *fhir.Dispatcher[MedicationDispenseRecord]
}

func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		logger:    logger.With().Str("component", "medication").Logger(),
		dispenses: NewDispenseDispatcher(),
	}
	s.dispenses.OnFallback = func(r fhir.Resource, err error) {
		s.logger.Debug().
			Err(err).
			Str("resource_id", r.ID()).
			Msg("unrecognized dispense profile, using legacy extractor")
	}
	return s
}

// ExtractDispenses extracts every MedicationDispense from a search or close
// bundle. A bare MedicationDispense resource yields a batch of one.
func (s *Service) ExtractDispenses(data []byte) (fhir.Batch[MedicationDispenseRecord], error) {
	r, err := fhir.DecodeResource(data)
	if err != nil {
		return fhir.Batch[MedicationDispenseRecord]{}, err
	}
	if r.Type() == "MedicationDispense" {
		rec, err := s.dispenses.Extract(r, nil)
		if err != nil {
			return fhir.Batch[MedicationDispenseRecord]{}, err
		}
		return fhir.Batch[MedicationDispenseRecord]{BundleTotal: 1, Records: []MedicationDispenseRecord{rec}}, nil
	}

	b, err := fhir.BundleFromResource(r)
	if err != nil {
		return fhir.Batch[MedicationDispenseRecord]{}, err
	}
	batch := fhir.ExtractAll[MedicationDispenseRecord](fhir.NewIndex(b), "MedicationDispense", s.dispenses.Extract)
	if len(batch.Failures) > 0 {
		s.logger.Warn().
			Str("bundle_id", b.ID).
			Int("failures", len(batch.Failures)).
			Int("extracted", batch.Extracted()).
			Msg("dispense bundle extracted with failures")
	}
	return batch, nil
}

// ExtractMedication extracts a standalone Medication resource.
func (s *Service) ExtractMedication(data []byte) (MedicationRecord, error) {
	r, err := fhir.DecodeResource(data)
	if err != nil {
		return MedicationRecord{}, err
	}
	if r.Type() != "Medication" {
		return MedicationRecord{}, fmt.Errorf("expected resourceType Medication, got %q", r.Type())
	}
	return ExtractMedication(r, nil)
}

package billing

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
)

type Service struct {
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{logger: logger.With().Str("component", "billing").Logger()}
}

// ExtractChargeItems extracts every ChargeItem of a search bundle.
func (s *Service) ExtractChargeItems(data []byte) (ChargeItemBundle, error) {
	b, err := fhir.ParseBundle(data)
	if err != nil {
		return ChargeItemBundle{}, err
	}
	batch := fhir.ExtractAll[ChargeItemRecord](fhir.NewIndex(b), "ChargeItem", ExtractChargeItem)
	for _, rec := range batch.Records {
		if rec.Prescription == nil && rec.Dispense == nil {
			s.logger.Debug().Str("charge_item_id", rec.ID).Msg("charge item without readable supporting documents")
		}
	}
	if len(batch.Failures) > 0 {
		s.logger.Warn().
			Str("bundle_id", b.ID).
			Int("failures", len(batch.Failures)).
			Int("extracted", batch.Extracted()).
			Msg("charge item bundle extracted with failures")
	}
	return batch, nil
}

// ExtractDispenseData reads a pharmacy dispense data bundle on its own.
func (s *Service) ExtractDispenseData(data []byte) (DispenseRecord, error) {
	root, err := fhir.DecodeResource(data)
	if err != nil {
		return DispenseRecord{}, err
	}
	doc, ok := resolverFor(root)
	if !ok {
		return DispenseRecord{}, fmt.Errorf("expected resourceType Bundle, got %q", root.Type())
	}
	if k := kindOf(doc.Index().Bundle()); k != fhir.KindDispenseBundle {
		return DispenseRecord{}, fmt.Errorf("expected a dispense data bundle, got %s", k)
	}
	return extractDispenseBundle(doc), nil
}

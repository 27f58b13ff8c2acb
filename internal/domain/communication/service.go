package communication

import (
	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
)

type Service struct {
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{logger: logger.With().Str("component", "communication").Logger()}
}

// ExtractCommunications extracts every Communication of a search bundle.
func (s *Service) ExtractCommunications(data []byte) (fhir.Batch[CommunicationRecord], error) {
	b, err := fhir.ParseBundle(data)
	if err != nil {
		return fhir.Batch[CommunicationRecord]{}, err
	}
	batch := fhir.ExtractAll[CommunicationRecord](fhir.NewIndex(b), "Communication", ExtractCommunication)
	for _, rec := range batch.Records {
		if rec.Kind == KindUnknown {
			s.logger.Debug().Str("communication_id", rec.ID).Msg("communication with unrecognized profile")
		}
	}
	if len(batch.Failures) > 0 {
		s.logger.Warn().Str("bundle_id", b.ID).Int("failures", len(batch.Failures)).Msg("communications skipped")
	}
	return batch, nil
}

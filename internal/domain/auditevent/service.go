package auditevent

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
)

type Service struct {
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger) *Service {
	return &Service{logger: logger.With().Str("component", "auditevent").Logger()}
}

// ExtractAuditEvents extracts one page of audit events, newest first.
func (s *Service) ExtractAuditEvents(data []byte) (fhir.Batch[AuditEventRecord], error) {
	b, err := fhir.ParseBundle(data)
	if err != nil {
		return fhir.Batch[AuditEventRecord]{}, err
	}
	batch := fhir.ExtractAll[AuditEventRecord](fhir.NewIndex(b), "AuditEvent", ExtractAuditEvent)
	SortNewestFirst(batch.Records)
	if len(batch.Failures) > 0 {
		s.logger.Warn().Str("bundle_id", b.ID).Int("failures", len(batch.Failures)).Msg("audit events skipped")
	}
	return batch, nil
}

// SortNewestFirst orders records by Recorded, descending. Ties keep their
// bundle order.
func SortNewestFirst(records []AuditEventRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Recorded.After(*records[j].Recorded)
	})
}

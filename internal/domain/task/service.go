package task

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
	"github.com/erx/erx/pkg/fhirmodels"
)

var validTaskStatuses = map[string]bool{
	fhirmodels.TaskStatusDraft:      true,
	fhirmodels.TaskStatusReady:      true,
	fhirmodels.TaskStatusInProgress: true,
	fhirmodels.TaskStatusCompleted:  true,
	fhirmodels.TaskStatusCancelled:  true,
}

type Service struct {
	logger zerolog.Logger
	tasks  *fhir.Dispatcher[TaskRecord]
}

func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		logger: logger.With().Str("component", "task").Logger(),
		tasks: fhir.NewDispatcher[TaskRecord](fhir.KindTask, ExtractTask).
			Register(ExtractTask, fhir.GenerationLegacy, fhir.Generation12, fhir.Generation13,
				fhir.Generation14, fhir.Generation15),
	}
	s.tasks.OnFallback = func(r fhir.Resource, err error) {
		s.logger.Debug().Err(err).Str("task_id", r.ID()).Msg("unrecognized task profile")
	}
	return s
}

// ExtractTasks extracts every Task of a Task bundle together with the KBV
// prescription each one references.
func (s *Service) ExtractTasks(data []byte) (TaskBundle, error) {
	b, err := fhir.ParseBundle(data)
	if err != nil {
		return TaskBundle{}, err
	}
	ix := fhir.NewIndex(b)
	if ix.Duplicates() > 0 {
		s.logger.Warn().Str("bundle_id", b.ID).Int("duplicates", ix.Duplicates()).Msg("bundle contains duplicate entries")
	}

	batch := fhir.ExtractAll[TaskRecord](ix, "Task", s.tasks.Extract)
	for _, rec := range batch.Records {
		if rec.Status != "" && !validTaskStatuses[rec.Status] {
			s.logger.Warn().Str("task_id", rec.TaskID).Str("status", rec.Status).Msg("unexpected task status")
		}
	}
	if len(batch.Failures) > 0 {
		s.logger.Warn().
			Str("bundle_id", b.ID).
			Int("failures", len(batch.Failures)).
			Int("extracted", batch.Extracted()).
			Msg("task bundle extracted with failures")
	}
	return batch, nil
}

// ExtractPrescriptionBundle reads a standalone KBV prescription bundle.
func (s *Service) ExtractPrescriptionBundle(data []byte) (PrescriptionRecord, error) {
	b, err := fhir.ParseBundle(data)
	if err != nil {
		return PrescriptionRecord{}, err
	}
	if b.Profile.Known() && b.Profile.Kind != fhir.KindKBVBundle {
		return PrescriptionRecord{}, fmt.Errorf("expected a KBV prescription bundle, got profile %s", b.Profile.String())
	}
	root, err := fhir.DecodeResource(data)
	if err != nil {
		return PrescriptionRecord{}, err
	}
	return ExtractPrescription(fhir.NewResolver(fhir.NewIndex(b)).For(root))
}

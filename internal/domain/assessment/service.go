package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/cardio/cardio/internal/platform/classifier"
	"github.com/cardio/cardio/internal/platform/planner"
)

type Service struct {
	classifier  classifier.Classifier
	planner     planner.Planner
	planTimeout time.Duration
}

func NewService(c classifier.Classifier, p planner.Planner, planTimeout time.Duration) *Service {
	return &Service{classifier: c, planner: p, planTimeout: planTimeout}
}

// Assess classifies the feature vector and generates both plans for the
// resulting diagnosis. The two plan calls are independent, so they run
// concurrently under a shared deadline; if either fails the whole
// assessment fails, since a report without both plans is never stored.
func (s *Service) Assess(ctx context.Context, patientName string, features ClinicalFeatures) (*Assessment, error) {
	pred, err := s.classifier.Classify(ctx, features.Vector())
	if err != nil {
		return nil, err
	}

	planCtx, cancel := context.WithTimeout(ctx, s.planTimeout)
	defer cancel()

	var (
		wg             sync.WaitGroup
		dietPlan       string
		medicationPlan string
		dietErr        error
		medicationErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		dietPlan, dietErr = s.planner.Generate(planCtx, planner.KindDiet, pred.Diagnosis)
	}()
	go func() {
		defer wg.Done()
		medicationPlan, medicationErr = s.planner.Generate(planCtx, planner.KindMedication, pred.Diagnosis)
	}()
	wg.Wait()

	if dietErr != nil {
		return nil, dietErr
	}
	if medicationErr != nil {
		return nil, medicationErr
	}

	return &Assessment{
		PatientName:    patientName,
		Diagnosis:      pred.Diagnosis,
		DietPlan:       dietPlan,
		MedicationPlan: medicationPlan,
	}, nil
}

package scheduler

import (
	"github.com/driftline/ballast/internal/evaluation"
	"github.com/rs/zerolog"
)

// EvaluationJob runs the periodic drift evaluation.
type EvaluationJob struct {
	service *evaluation.Service
	log     zerolog.Logger
}

// NewEvaluationJob creates a new evaluation job
func NewEvaluationJob(service *evaluation.Service, log zerolog.Logger) *EvaluationJob {
	return &EvaluationJob{
		service: service,
		log:     log.With().Str("job", "evaluation").Logger(),
	}
}

// Name returns the job name
func (j *EvaluationJob) Name() string {
	return "evaluation"
}

// Run executes one evaluation
func (j *EvaluationJob) Run() error {
	result, err := j.service.Run()
	if err != nil {
		return err
	}

	if !result.Recorded {
		j.log.Debug().Msg("No snapshot ingested yet; evaluation not recorded")
	}
	return nil
}

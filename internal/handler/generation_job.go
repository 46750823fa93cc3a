package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arka-widjaja/timetable-engine/internal/dto"
	"github.com/arka-widjaja/timetable-engine/internal/repository"
	"github.com/arka-widjaja/timetable-engine/internal/service"
	"github.com/arka-widjaja/timetable-engine/pkg/jobs"
)

// GenerationJobRunner executes a queued Generate call and caches its result
// so the submitting HTTP caller can poll for it later.
type GenerationJobRunner struct {
	app    *service.SchedulerAppService
	cache  *repository.ProposalCacheRepository
	logger *zap.Logger
}

// NewGenerationJobRunner constructs the runner.
func NewGenerationJobRunner(app *service.SchedulerAppService, cache *repository.ProposalCacheRepository, logger *zap.Logger) *GenerationJobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationJobRunner{app: app, cache: cache, logger: logger}
}

// Handle satisfies jobs.Handler.
func (g *GenerationJobRunner) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateRequest)
	if !ok {
		return fmt.Errorf("generation job %s: unexpected payload type", job.ID)
	}
	params, err := req.Parameters.ToParameters()
	if err != nil {
		return g.cache.Set(ctx, job.ID, repository.ProposalEnvelope{Error: err.Error()})
	}
	batches, err := dto.BatchesFromRecords(req.Batches)
	if err != nil {
		return g.cache.Set(ctx, job.ID, repository.ProposalEnvelope{Error: err.Error()})
	}
	schedule, unscheduled, err := g.app.GenerateSchedule(ctx, batches, params)
	if err != nil {
		return g.cache.Set(ctx, job.ID, repository.ProposalEnvelope{Error: err.Error()})
	}
	return g.cache.Set(ctx, job.ID, repository.ProposalEnvelope{Schedule: schedule, Unscheduled: unscheduled})
}

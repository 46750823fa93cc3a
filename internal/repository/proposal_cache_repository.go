package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/internal/service"
)

const proposalKeyPrefix = "schedule-proposal:"

// ProposalCacheRepository caches generated schedule proposals behind a TTL,
// keyed by an opaque job id. It backs the async generation endpoint's
// "fetch result later" path; unlike RunAuditRepository this is read back
// by the HTTP collaborator layer, but never by the core itself.
type ProposalCacheRepository struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewProposalCacheRepository constructs the repository. client may be nil,
// in which case Get always misses and Set is a no-op — the async endpoint
// degrades to "check back later" without a cache backing it.
func NewProposalCacheRepository(client *redis.Client, ttl time.Duration, metrics *service.MetricsService, logger *zap.Logger) *ProposalCacheRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalCacheRepository{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// ProposalEnvelope is the cached shape for a completed generation job.
type ProposalEnvelope struct {
	Schedule    models.WeeklySchedule       `json:"schedule"`
	Unscheduled []models.UnscheduledLecture `json:"unscheduled"`
	Error       string                      `json:"error,omitempty"`
}

// Set stores a completed proposal under jobID.
func (r *ProposalCacheRepository) Set(ctx context.Context, jobID string, envelope ProposalEnvelope) error {
	if r.client == nil {
		return nil
	}
	start := time.Now()
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	err = r.client.Set(ctx, proposalKeyPrefix+jobID, payload, r.ttl).Err()
	if r.metrics != nil {
		r.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		r.logger.Sugar().Warnw("failed to cache proposal", "jobId", jobID, "error", err)
	}
	return err
}

// Get retrieves a completed proposal, reporting whether it was found.
func (r *ProposalCacheRepository) Get(ctx context.Context, jobID string) (ProposalEnvelope, bool, error) {
	if r.client == nil {
		return ProposalEnvelope{}, false, nil
	}
	start := time.Now()
	raw, err := r.client.Get(ctx, proposalKeyPrefix+jobID).Bytes()
	hit := err == nil
	if r.metrics != nil {
		r.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err == redis.Nil {
		return ProposalEnvelope{}, false, nil
	}
	if err != nil {
		return ProposalEnvelope{}, false, err
	}
	var envelope ProposalEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ProposalEnvelope{}, false, fmt.Errorf("unmarshal cached proposal: %w", err)
	}
	return envelope, true, nil
}

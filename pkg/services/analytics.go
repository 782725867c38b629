package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/metrics"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// Analytics view names, used in cache keys and metric labels.
const (
	ViewPrinciples = "principles"
	ViewRoles      = "roles"
	ViewHotspots   = "hotspots"
	ViewCompletion = "completion"
)

// AnalyticsService builds the score read models of a project from its
// submitted responses.
type AnalyticsService interface {
	PrincipleScores(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.PrincipleScore, error)
	RoleScores(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.RoleScores, error)
	// Hotspots uses the configured default threshold when threshold is nil.
	Hotspots(ctx context.Context, projectID uuid.UUID, questionnaireKey string, threshold *float64) ([]models.Hotspot, error)
	Completion(ctx context.Context, projectID uuid.UUID) ([]models.ExpertCompletion, error)
	// InvalidateProject drops every cached view of the project.
	InvalidateProject(projectID uuid.UUID)
}

// AnalyticsConfig tunes the analytics service.
type AnalyticsConfig struct {
	HotspotThreshold float64
	CacheTTL         time.Duration // Zero disables caching
}

type analyticsService struct {
	projectRepo    repositories.ProjectRepository
	responseRepo   repositories.ResponseRepository
	assignmentRepo repositories.AssignmentRepository
	userRepo       repositories.UserRepository
	cache          *cache.Cache
	threshold      float64
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewAnalyticsService creates an analytics service.
func NewAnalyticsService(
	projectRepo repositories.ProjectRepository,
	responseRepo repositories.ResponseRepository,
	assignmentRepo repositories.AssignmentRepository,
	userRepo repositories.UserRepository,
	cfg AnalyticsConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) AnalyticsService {
	s := &analyticsService{
		projectRepo:    projectRepo,
		responseRepo:   responseRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		threshold:      cfg.HotspotThreshold,
		metrics:        m,
		logger:         logger.Named("analytics"),
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s
}

var _ AnalyticsService = (*analyticsService)(nil)

func cacheKey(projectID uuid.UUID, view string, parts ...string) string {
	return projectID.String() + ":" + view + ":" + strings.Join(parts, ":")
}

// cachedView returns the cached value under key or computes and stores it.
func cachedView[T any](s *analyticsService, key, view string, compute func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			s.metrics.RecordCacheLookup(view, true)
			return v.(T), nil
		}
		s.metrics.RecordCacheLookup(view, false)
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	if s.cache != nil {
		s.cache.Set(key, v, cache.DefaultExpiration)
	}
	return v, nil
}

func (s *analyticsService) ensureProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return err
	}
	return nil
}

func (s *analyticsService) scoredAnswers(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.ScoredAnswer, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	answers, err := s.responseRepo.ScoredAnswers(ctx, projectID, questionnaireKey)
	if err != nil {
		return nil, fmt.Errorf("load scored answers: %w", err)
	}
	return answers, nil
}

func (s *analyticsService) PrincipleScores(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.PrincipleScore, error) {
	key := cacheKey(projectID, ViewPrinciples, questionnaireKey)
	return cachedView(s, key, ViewPrinciples, func() ([]models.PrincipleScore, error) {
		answers, err := s.scoredAnswers(ctx, projectID, questionnaireKey)
		if err != nil {
			return nil, err
		}
		return AggregatePrinciples(answers), nil
	})
}

func (s *analyticsService) RoleScores(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.RoleScores, error) {
	key := cacheKey(projectID, ViewRoles, questionnaireKey)
	return cachedView(s, key, ViewRoles, func() ([]models.RoleScores, error) {
		answers, err := s.scoredAnswers(ctx, projectID, questionnaireKey)
		if err != nil {
			return nil, err
		}
		return AggregateRoles(answers), nil
	})
}

func (s *analyticsService) Hotspots(ctx context.Context, projectID uuid.UUID, questionnaireKey string, threshold *float64) ([]models.Hotspot, error) {
	t := s.threshold
	if threshold != nil {
		t = *threshold
	}
	if t < models.MinScore || t > models.MaxScore {
		return nil, fmt.Errorf("%w: threshold must be within %g-%g", apperrors.ErrValidation, models.MinScore, models.MaxScore)
	}

	key := cacheKey(projectID, ViewHotspots, questionnaireKey, fmt.Sprintf("%g", t))
	return cachedView(s, key, ViewHotspots, func() ([]models.Hotspot, error) {
		answers, err := s.scoredAnswers(ctx, projectID, questionnaireKey)
		if err != nil {
			return nil, err
		}
		return DetectHotspots(answers, t), nil
	})
}

func (s *analyticsService) Completion(ctx context.Context, projectID uuid.UUID) ([]models.ExpertCompletion, error) {
	key := cacheKey(projectID, ViewCompletion)
	return cachedView(s, key, ViewCompletion, func() ([]models.ExpertCompletion, error) {
		if err := s.ensureProject(ctx, projectID); err != nil {
			return nil, err
		}

		assignments, err := s.assignmentRepo.ListByProject(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("list assignments: %w", err)
		}
		statuses, err := s.responseRepo.Statuses(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("list response statuses: %w", err)
		}

		names, err := s.userNames(ctx, assignments)
		if err != nil {
			return nil, err
		}
		return ComputeCompletion(assignments, statuses, names), nil
	})
}

func (s *analyticsService) userNames(ctx context.Context, assignments []*models.ProjectAssignment) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	if len(assignments) == 0 {
		return names, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(assignments))
	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		if _, dup := seen[a.UserID]; !dup {
			seen[a.UserID] = struct{}{}
			ids = append(ids, a.UserID)
		}
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func (s *analyticsService) InvalidateProject(projectID uuid.UUID) {
	if s.cache == nil {
		return
	}

	prefix := projectID.String() + ":"
	removed := 0
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("Invalidated analytics cache",
			zap.String("project_id", projectID.String()),
			zap.Int("entries", removed))
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/audit"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/llm"
	"github.com/zinspection/zi-engine/pkg/metrics"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/prompts"
	"github.com/zinspection/zi-engine/pkg/repositories"
	"github.com/zinspection/zi-engine/pkg/retry"
)

// ReportService drafts evaluation reports with an LLM and manages them.
type ReportService interface {
	// Generate gathers the project's analytics and stores an LLM-drafted
	// report as a draft.
	Generate(ctx context.Context, projectID uuid.UUID) (*models.Report, error)
	List(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateContent(ctx context.Context, id uuid.UUID, title, content string) (*models.Report, error)
	Finalize(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReportDeps groups the collaborators of the report service.
type ReportDeps struct {
	DB          database.Acquirer
	ProjectRepo repositories.ProjectRepository
	UseCaseRepo repositories.UseCaseRepository
	TensionRepo repositories.TensionRepository
	ReportRepo  repositories.ReportRepository
	Analytics   AnalyticsService
	Resolver    AssignedExpertsService
	LLM         llm.LLMClient // nil disables generation
	Temperature float64
	RetryConfig *retry.Config // defaults to retry.LLMConfig()
	Metrics     *metrics.Metrics
	Auditor     *audit.SecurityAuditor // nil disables audit events
	Logger      *zap.Logger
}

type reportService struct {
	ReportDeps
	logger *zap.Logger
}

// NewReportService creates a report service.
func NewReportService(deps ReportDeps) ReportService {
	if deps.RetryConfig == nil {
		deps.RetryConfig = retry.LLMConfig()
	}
	return &reportService{
		ReportDeps: deps,
		logger:     deps.Logger.Named("reports"),
	}
}

var _ ReportService = (*reportService)(nil)

func (s *reportService) Generate(ctx context.Context, projectID uuid.UUID) (*models.Report, error) {
	if s.LLM == nil {
		return nil, apperrors.ErrLLMUnavailable
	}

	project, err := s.ProjectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rc, responseCount, err := s.gather(ctx, project)
	if err != nil {
		return nil, err
	}

	prompt := prompts.BuildEvaluationReportPrompt(rc)
	provider := s.LLM.GetProvider()
	start := time.Now()

	var result *llm.GenerateResponseResult
	err = retry.DoIfRetryable(ctx, s.RetryConfig, func() error {
		var genErr error
		result, genErr = s.LLM.GenerateResponse(ctx, prompt, prompts.EvaluationReportSystemMessage, s.Temperature)
		return genErr
	})
	elapsed := time.Since(start)
	s.Metrics.ObserveReportGeneration(provider, err, elapsed)
	if err != nil {
		s.logger.Error("Report generation failed",
			zap.String("project_id", projectID.String()),
			zap.String("provider", provider),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, fmt.Errorf("generate report: %w", err)
	}

	report := &models.Report{
		ProjectID: projectID,
		Title:     fmt.Sprintf("Evaluation report: %s", project.Title),
		Content:   llm.CleanMarkdown(result.Content),
		Status:    models.ReportStatusDraft,
		Model:     s.LLM.GetModel(),
		Metadata: models.ReportMetadata{
			Principles:     rc.Principles,
			HotspotCount:   len(rc.Hotspots),
			TensionCount:   len(rc.Tensions),
			ResponseCount:  responseCount,
			CompletionRate: overallCompletion(rc.Completion),
			LatencyMs:      elapsed.Milliseconds(),
			Truncated:      result.Truncated,
		},
	}
	if result.Truncated {
		s.logger.Warn("Report output hit the token limit",
			zap.String("project_id", projectID.String()),
			zap.Int("completion_tokens", result.CompletionTokens))
	}
	if userID, ok := auth.GetUserUUIDFromContext(ctx); ok {
		report.GeneratedBy = &userID
	}

	if err := s.ReportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("Generated report",
		zap.String("project_id", projectID.String()),
		zap.String("report_id", report.ID.String()),
		zap.String("model", report.Model),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", elapsed))
	return report, nil
}

// gather loads everything the prompt needs concurrently. Each goroutine
// works on its own pooled connection.
func (s *reportService) gather(ctx context.Context, project *models.Project) (*prompts.ReportContext, int, error) {
	rc := &prompts.ReportContext{Project: project}
	var responseCount int

	g, gctx := errgroup.WithContext(ctx)
	run := func(fn func(ctx context.Context) error) {
		g.Go(func() error {
			return database.WithNewScope(gctx, s.DB, fn)
		})
	}

	if project.UseCase != "" {
		run(func(ctx context.Context) error {
			id, err := uuid.Parse(strings.TrimSpace(project.UseCase))
			if err != nil {
				return nil
			}
			uc, err := s.UseCaseRepo.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("load use case: %w", err)
			}
			rc.UseCase = uc
			return nil
		})
		run(func(ctx context.Context) error {
			rc.Experts = s.Resolver.GetAssignedExpertsForUseCase(ctx, project.UseCase)
			return nil
		})
	}

	run(func(ctx context.Context) error {
		principles, err := s.Analytics.PrincipleScores(ctx, project.ID, "")
		if err != nil {
			return fmt.Errorf("principle scores: %w", err)
		}
		rc.Principles = principles
		for _, p := range principles {
			responseCount = max(responseCount, p.Count)
		}
		return nil
	})
	run(func(ctx context.Context) error {
		roles, err := s.Analytics.RoleScores(ctx, project.ID, "")
		if err != nil {
			return fmt.Errorf("role scores: %w", err)
		}
		rc.Roles = roles
		return nil
	})
	run(func(ctx context.Context) error {
		hotspots, err := s.Analytics.Hotspots(ctx, project.ID, "", nil)
		if err != nil {
			return fmt.Errorf("hotspots: %w", err)
		}
		rc.Hotspots = hotspots
		return nil
	})
	run(func(ctx context.Context) error {
		completion, err := s.Analytics.Completion(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("completion: %w", err)
		}
		rc.Completion = completion
		return nil
	})
	run(func(ctx context.Context) error {
		tensions, err := s.TensionRepo.ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("tensions: %w", err)
		}
		rc.Tensions = tensions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if rc.Experts == nil {
		rc.Experts = models.EmptyAssignedExperts()
	}
	return rc, responseCount, nil
}

// overallCompletion is the share of all assigned questionnaires that were submitted.
func overallCompletion(rows []models.ExpertCompletion) float64 {
	var assigned, submitted int
	for _, r := range rows {
		assigned += r.Assigned
		submitted += r.Submitted
	}
	return completionRate(submitted, assigned)
}

func (s *reportService) List(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error) {
	return s.ReportRepo.ListByProject(ctx, projectID)
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.ReportRepo.GetByID(ctx, id)
}

func (s *reportService) UpdateContent(ctx context.Context, id uuid.UUID, title, content string) (*models.Report, error) {
	report, err := s.ReportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusDraft {
		return nil, fmt.Errorf("%w: only draft reports can be edited", apperrors.ErrConflict)
	}

	if strings.TrimSpace(title) == "" {
		title = report.Title
	}
	if err := s.ReportRepo.UpdateContent(ctx, id, title, content); err != nil {
		return nil, err
	}
	report.Title = title
	report.Content = content
	return report, nil
}

func (s *reportService) Finalize(ctx context.Context, id uuid.UUID) error {
	report, err := s.ReportRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report.Status == models.ReportStatusFinal {
		return nil
	}
	if report.Status != models.ReportStatusDraft {
		return fmt.Errorf("%w: report is %s", apperrors.ErrConflict, report.Status)
	}
	if err := s.ReportRepo.UpdateStatus(ctx, id, models.ReportStatusFinal); err != nil {
		return err
	}
	s.Auditor.LogPrivilegedAction(ctx, audit.EventReportFinalized, report.ProjectID, id, nil)
	return nil
}

func (s *reportService) Delete(ctx context.Context, id uuid.UUID) error {
	report, err := s.ReportRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ReportRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.Auditor.LogPrivilegedAction(ctx, audit.EventReportDeleted, report.ProjectID, id,
		map[string]string{"status": report.Status})
	return nil
}

//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/models"
)

func score(v float64) *float64 { return &v }

// seedQuestionnaire creates a questionnaire with one scored question per principle given.
func seedQuestionnaire(t *testing.T, ctx context.Context, key string, principles ...models.Principle) []*models.Question {
	t.Helper()
	repo := NewQuestionnaireRepository()
	require.NoError(t, repo.Create(ctx, &models.Questionnaire{Key: key, Title: key}))

	questions := make([]*models.Question, 0, len(principles))
	for i, p := range principles {
		q := &models.Question{
			QuestionnaireKey: key,
			Code:             key + "-q" + string(rune('1'+i)),
			Principle:        p,
			Text:             "How well is this addressed?",
			AnswerType:       models.AnswerTypeSingleChoice,
			Options: []models.QuestionOption{
				{Key: "low", Label: "Low", Score: 1},
				{Key: "high", Label: "High", Score: 4},
			},
			Order: len(principles) - i,
		}
		require.NoError(t, repo.UpsertQuestion(ctx, q))
		questions = append(questions, q)
	}
	return questions
}

func TestQuestionnaireRepository_QuestionsInDisplayOrder(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewQuestionnaireRepository()

	seeded := seedQuestionnaire(t, ctx, "general-v1", models.PrincipleTransparency, models.PrincipleAccountability)

	questions, err := repo.ListQuestions(ctx, "general-v1")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	// Order was assigned in reverse of insertion.
	assert.Equal(t, seeded[1].Code, questions[0].Code)
	assert.Equal(t, seeded[0].Code, questions[1].Code)

	got, err := repo.Get(ctx, "general-v1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "en", got.Language)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuestionnaireRepository_UpsertQuestionReplaces(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewQuestionnaireRepository()

	seeded := seedQuestionnaire(t, ctx, "general-v1", models.PrincipleTransparency)

	replacement := &models.Question{
		QuestionnaireKey: "general-v1",
		Code:             seeded[0].Code,
		Principle:        models.PrinciplePrivacy,
		Text:             "Reworded",
		AnswerType:       models.AnswerTypeOpenText,
	}
	require.NoError(t, repo.UpsertQuestion(ctx, replacement))
	assert.Equal(t, seeded[0].ID, replacement.ID)

	questions, err := repo.ListQuestions(ctx, "general-v1")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, models.PrinciplePrivacy, questions[0].Principle)
	assert.Equal(t, "Reworded", questions[0].Text)
}

func TestResponseRepository_UpsertLastWriteWins(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewResponseRepository()

	questions := seedQuestionnaire(t, ctx, "general-v1", models.PrincipleTransparency)
	projectID, userID := uuid.New(), uuid.New()

	draft := &models.Response{
		ProjectID:        projectID,
		UserID:           userID,
		Role:             models.RoleEthicalExpert,
		QuestionnaireKey: "general-v1",
		Status:           models.ResponseStatusDraft,
		Answers: []models.Answer{
			{QuestionID: questions[0].ID, QuestionCode: questions[0].Code, Choice: "low", Score: score(1)},
		},
	}
	require.NoError(t, repo.Upsert(ctx, draft))

	now := time.Now()
	submitted := &models.Response{
		ProjectID:        projectID,
		UserID:           userID,
		Role:             models.RoleEthicalExpert,
		QuestionnaireKey: "general-v1",
		Status:           models.ResponseStatusSubmitted,
		SubmittedAt:      &now,
		Answers: []models.Answer{
			{QuestionID: questions[0].ID, QuestionCode: questions[0].Code, Choice: "high", Score: score(4)},
		},
	}
	require.NoError(t, repo.Upsert(ctx, submitted))
	assert.Equal(t, draft.ID, submitted.ID)

	got, err := repo.Get(ctx, projectID, userID, "general-v1")
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusSubmitted, got.Status)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, "high", got.Answers[0].Choice)
	require.NotNil(t, got.SubmittedAt)

	listed, err := repo.ListByProject(ctx, projectID, models.ResponseStatusDraft)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestResponseRepository_ScoredAnswersOnlyFromSubmitted(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewResponseRepository()

	general := seedQuestionnaire(t, ctx, "general-v1", models.PrincipleTransparency, models.PrincipleAccountability)
	legal := seedQuestionnaire(t, ctx, "legal-v1", models.PrincipleDiversityFairness)
	projectID := uuid.New()
	now := time.Now()

	save := func(userID uuid.UUID, key, status string, answers []models.Answer) {
		t.Helper()
		resp := &models.Response{
			ProjectID:        projectID,
			UserID:           userID,
			Role:             models.RoleLegalExpert,
			QuestionnaireKey: key,
			Status:           status,
			Answers:          answers,
		}
		if status == models.ResponseStatusSubmitted {
			resp.SubmittedAt = &now
		}
		require.NoError(t, repo.Upsert(ctx, resp))
	}

	submitter := uuid.New()
	save(submitter, "general-v1", models.ResponseStatusSubmitted, []models.Answer{
		{QuestionID: general[0].ID, QuestionCode: general[0].Code, Choice: "high", Score: score(4)},
		// Matched by code only.
		{QuestionCode: general[1].Code, Choice: "low", Score: score(1)},
	})
	save(submitter, "legal-v1", models.ResponseStatusSubmitted, []models.Answer{
		{QuestionID: legal[0].ID, QuestionCode: legal[0].Code, Choice: "low", Score: score(1)},
	})
	save(uuid.New(), "general-v1", models.ResponseStatusDraft, []models.Answer{
		{QuestionID: general[0].ID, QuestionCode: general[0].Code, Choice: "low", Score: score(1)},
	})

	all, err := repo.ScoredAnswers(ctx, projectID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, a := range all {
		assert.Equal(t, submitter, a.UserID)
	}

	filtered, err := repo.ScoredAnswers(ctx, projectID, "general-v1")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	principles := []models.Principle{filtered[0].Principle, filtered[1].Principle}
	assert.ElementsMatch(t, []models.Principle{models.PrincipleTransparency, models.PrincipleAccountability}, principles)

	statuses, err := repo.Statuses(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
}

func TestResponseRepository_AssignmentIDsForProjects(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewResponseRepository()

	projectID := uuid.New()
	assignmentID := uuid.New()

	for _, key := range []string{"general-v1", "legal-v1"} {
		require.NoError(t, repo.Upsert(ctx, &models.Response{
			ProjectID:        projectID,
			UserID:           uuid.New(),
			Role:             models.RoleLegalExpert,
			QuestionnaireKey: key,
			AssignmentID:     &assignmentID,
			Status:           models.ResponseStatusDraft,
		}))
	}
	require.NoError(t, repo.Upsert(ctx, &models.Response{
		ProjectID:        projectID,
		UserID:           uuid.New(),
		Role:             models.RoleLegalExpert,
		QuestionnaireKey: "general-v1",
		Status:           models.ResponseStatusDraft,
	}))

	ids, err := repo.AssignmentIDsForProjects(ctx, []uuid.UUID{projectID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{assignmentID}, ids)
}

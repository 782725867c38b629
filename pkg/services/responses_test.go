package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/models"
)

type responseFixture struct {
	expert         uuid.UUID
	project        *models.Project
	assignment     *models.ProjectAssignment
	choiceQ        *models.Question
	textQ          *models.Question
	projects       *mockProjectRepository
	questionnaires *mockQuestionnaireRepository
	assignments    *mockAssignmentRepository
	responses      *mockResponseRepository
}

// recordingAnalytics records invalidations and serves nothing else.
type recordingAnalytics struct {
	AnalyticsService
	invalidated []uuid.UUID
}

func (r *recordingAnalytics) InvalidateProject(projectID uuid.UUID) {
	r.invalidated = append(r.invalidated, projectID)
}

func newResponseFixture() *responseFixture {
	f := &responseFixture{
		expert:         uuid.New(),
		project:        &models.Project{ID: uuid.New(), Title: "Triage"},
		questionnaires: newMockQuestionnaireRepository(),
		responses:      &mockResponseRepository{},
	}
	f.projects = newMockProjectRepository(f.project)
	f.assignment = &models.ProjectAssignment{
		ID:             uuid.New(),
		ProjectID:      f.project.ID,
		UserID:         f.expert,
		Role:           models.RoleEthicalExpert,
		Questionnaires: []string{"general-v1"},
		Status:         models.AssignmentStatusAssigned,
	}
	f.assignments = newMockAssignmentRepository(f.assignment)

	f.questionnaires.questionnaires["general-v1"] = &models.Questionnaire{Key: "general-v1", Title: "General", Version: 2}
	f.choiceQ = &models.Question{
		ID: uuid.New(), QuestionnaireKey: "general-v1", Code: "T1",
		Principle: models.PrincipleTransparency, AnswerType: models.AnswerTypeSingleChoice, Required: true,
		Options: []models.QuestionOption{{Key: "yes", Label: "Yes", Score: 4}, {Key: "no", Label: "No", Score: 0}},
	}
	f.textQ = &models.Question{
		ID: uuid.New(), QuestionnaireKey: "general-v1", Code: "T2",
		Principle: models.PrincipleTransparency, AnswerType: models.AnswerTypeOpenText,
	}
	f.questionnaires.questions["general-v1"] = []*models.Question{f.choiceQ, f.textQ}
	return f
}

func (f *responseFixture) service(analytics AnalyticsService) ResponseService {
	return NewResponseService(f.projects, f.questionnaires, f.assignments, f.responses, analytics, nil, zap.NewNop())
}

func choice(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestResponseService_SubmitScoresAndCompletesAssignment(t *testing.T) {
	f := newResponseFixture()
	analytics := &recordingAnalytics{}
	svc := f.service(analytics)

	resp, err := svc.Save(ctxAs(f.expert, false), f.project.ID, &SaveResponseRequest{
		QuestionnaireKey: "general-v1",
		Status:           models.ResponseStatusSubmitted,
		Answers: []AnswerInput{
			{QuestionCode: "T1", Choice: choice("yes")},
			{QuestionID: f.textQ.ID.String(), Text: "Logs are kept for audit."},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleEthicalExpert, resp.Role)
	assert.Equal(t, 2, resp.QuestionnaireVersion)
	require.NotNil(t, resp.AssignmentID)
	assert.Equal(t, f.assignment.ID, *resp.AssignmentID)
	assert.NotNil(t, resp.SubmittedAt)

	require.Len(t, resp.Answers, 2)
	require.NotNil(t, resp.Answers[0].Score)
	assert.Equal(t, 4.0, *resp.Answers[0].Score)
	assert.Nil(t, resp.Answers[1].Score)

	assert.Equal(t, models.AssignmentStatusSubmitted, f.assignment.Status)
	assert.Equal(t, []uuid.UUID{f.project.ID}, analytics.invalidated)
}

func TestResponseService_DraftThenSubmitKeepsOneResponse(t *testing.T) {
	f := newResponseFixture()
	svc := f.service(nil)
	ctx := ctxAs(f.expert, false)

	draft, err := svc.Save(ctx, f.project.ID, &SaveResponseRequest{
		QuestionnaireKey: "general-v1",
		Answers:          []AnswerInput{{QuestionCode: "T1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusDraft, draft.Status)
	assert.Nil(t, draft.SubmittedAt)
	assert.Equal(t, models.AssignmentStatusInProgress, f.assignment.Status)

	final, err := svc.Save(ctx, f.project.ID, &SaveResponseRequest{
		QuestionnaireKey: "general-v1",
		Status:           models.ResponseStatusSubmitted,
		Answers:          []AnswerInput{{QuestionCode: "T1", Choice: choice("no")}},
	})
	require.NoError(t, err)

	assert.Equal(t, draft.ID, final.ID)
	assert.Len(t, f.responses.responses, 1)
	assert.Equal(t, models.AssignmentStatusSubmitted, f.assignment.Status)
}

func TestResponseService_NotAssigned(t *testing.T) {
	f := newResponseFixture()
	svc := f.service(nil)

	_, err := svc.Save(ctxAs(uuid.New(), false), f.project.ID, &SaveResponseRequest{QuestionnaireKey: "general-v1"})
	assert.ErrorIs(t, err, apperrors.ErrNotAssigned)

	// Assigned, but under a different role.
	_, err = svc.Save(ctxAs(f.expert, false), f.project.ID, &SaveResponseRequest{
		QuestionnaireKey: "general-v1",
		Role:             models.RoleLegalExpert,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotAssigned)
}

func TestResponseService_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *SaveResponseRequest
		want error
	}{
		{
			name: "bad status",
			req:  &SaveResponseRequest{QuestionnaireKey: "general-v1", Status: "final"},
			want: apperrors.ErrValidation,
		},
		{
			name: "missing questionnaire key",
			req:  &SaveResponseRequest{},
			want: apperrors.ErrValidation,
		},
		{
			name: "unknown questionnaire",
			req:  &SaveResponseRequest{QuestionnaireKey: "nope"},
			want: apperrors.ErrNotFound,
		},
		{
			name: "unknown option",
			req: &SaveResponseRequest{QuestionnaireKey: "general-v1", Answers: []AnswerInput{
				{QuestionCode: "T1", Choice: choice("maybe")},
			}},
			want: apperrors.ErrValidation,
		},
		{
			name: "unknown question",
			req: &SaveResponseRequest{QuestionnaireKey: "general-v1", Answers: []AnswerInput{
				{QuestionCode: "Z9", Text: "?"},
			}},
			want: apperrors.ErrValidation,
		},
		{
			name: "duplicate answer",
			req: &SaveResponseRequest{QuestionnaireKey: "general-v1", Answers: []AnswerInput{
				{QuestionCode: "T1", Choice: choice("yes")},
				{QuestionCode: "T1", Choice: choice("no")},
			}},
			want: apperrors.ErrValidation,
		},
		{
			name: "submit with required unanswered",
			req: &SaveResponseRequest{QuestionnaireKey: "general-v1", Status: models.ResponseStatusSubmitted, Answers: []AnswerInput{
				{QuestionCode: "T2", Text: "only text"},
			}},
			want: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResponseFixture()
			_, err := f.service(nil).Save(ctxAs(f.expert, false), f.project.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.responses.responses)
		})
	}
}

func TestResponseService_RequiresCaller(t *testing.T) {
	f := newResponseFixture()
	_, err := f.service(nil).Save(context.Background(), f.project.ID, &SaveResponseRequest{QuestionnaireKey: "general-v1"})
	assert.Error(t, err)
}

func TestScoreAnswers_NumericChoice(t *testing.T) {
	q := &models.Question{
		ID: uuid.New(), Code: "R1", AnswerType: models.AnswerTypeSingleChoice,
		Options: []models.QuestionOption{{Key: "2", Label: "Partly", Score: 2}},
	}

	answers, err := scoreAnswers([]*models.Question{q}, []AnswerInput{{QuestionCode: "R1", Choice: json.RawMessage(`2`)}}, true)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, "2", answers[0].Choice)
	assert.Equal(t, 2.0, *answers[0].Score)
}

func TestScoreAnswers_RejectsRepeatedQuestion(t *testing.T) {
	q := &models.Question{
		ID: uuid.New(), Code: "R1", AnswerType: models.AnswerTypeSingleChoice,
		Options: []models.QuestionOption{{Key: "2", Label: "Partly", Score: 2}},
	}
	text := &models.Question{ID: uuid.New(), Code: "T1", AnswerType: models.AnswerTypeOpenText}

	// A blank entry followed by a scored one for the same question.
	_, err := scoreAnswers([]*models.Question{q}, []AnswerInput{
		{QuestionCode: "R1"},
		{QuestionCode: "R1", Choice: json.RawMessage(`"2"`)},
	}, false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = scoreAnswers([]*models.Question{text}, []AnswerInput{
		{QuestionCode: "T1"},
		{QuestionCode: "T1", Text: "covered"},
	}, false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

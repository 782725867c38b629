package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/models"
)

type projectFixture struct {
	projects       *mockProjectRepository
	useCases       *mockUseCaseRepository
	users          *mockUserRepository
	assignments    *mockAssignmentRepository
	questionnaires *mockQuestionnaireRepository
}

func newProjectFixture() *projectFixture {
	f := &projectFixture{
		projects:       newMockProjectRepository(),
		useCases:       newMockUseCaseRepository(),
		users:          newMockUserRepository(),
		assignments:    newMockAssignmentRepository(),
		questionnaires: newMockQuestionnaireRepository(),
	}
	f.questionnaires.questionnaires["general-v1"] = &models.Questionnaire{Key: "general-v1", Version: 1}
	f.questionnaires.questionnaires["ethics-v1"] = &models.Questionnaire{Key: "ethics-v1", Version: 1}
	return f
}

func (f *projectFixture) service() ProjectService {
	return NewProjectService(f.projects, f.useCases, f.users, f.assignments, f.questionnaires, nil, zap.NewNop())
}

func TestProjectService_CreateNormalizesUseCase(t *testing.T) {
	f := newProjectFixture()
	uc := &models.UseCase{ID: uuid.New()}
	f.useCases.useCases[uc.ID] = uc
	admin := uuid.New()

	project, err := f.service().Create(ctxAs(admin, true), &CreateProjectRequest{
		Title:   " Sepsis model ",
		UseCase: "  " + strings.ToUpper(uc.ID.String()),
		Stage:   models.StageSetUp,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sepsis model", project.Title)
	assert.Equal(t, uc.ID.String(), project.UseCase)
	require.NotNil(t, project.CreatedBy)
	assert.Equal(t, admin, *project.CreatedBy)
}

func TestProjectService_CreateValidation(t *testing.T) {
	f := newProjectFixture()
	ctx := ctxAs(uuid.New(), true)

	_, err := f.service().Create(ctx, &CreateProjectRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service().Create(ctx, &CreateProjectRequest{Title: "x", Stage: "launch"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service().Create(ctx, &CreateProjectRequest{Title: "x", UseCase: "uc-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service().Create(ctx, &CreateProjectRequest{Title: "x", UseCase: uuid.NewString()})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectService_GetMembership(t *testing.T) {
	f := newProjectFixture()
	legacyMember, assigned, outsider := uuid.New(), uuid.New(), uuid.New()
	p := &models.Project{ID: uuid.New(), AssignedUsers: models.LegacyRefs{rawObject("_id", strings.ToUpper(legacyMember.String()))}}
	f.projects.projects[p.ID] = p
	f.assignments.assignments = []*models.ProjectAssignment{{ID: uuid.New(), ProjectID: p.ID, UserID: assigned, Role: models.RoleLegalExpert}}
	svc := f.service()

	_, err := svc.Get(ctxAs(legacyMember, false), p.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctxAs(assigned, false), p.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctxAs(outsider, false), p.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Get(ctxAs(outsider, true), p.ID)
	assert.NoError(t, err)
}

func TestProjectService_Assign(t *testing.T) {
	f := newProjectFixture()
	p := &models.Project{ID: uuid.New()}
	f.projects.projects[p.ID] = p
	expert := &models.User{ID: uuid.New(), Role: models.RoleEthicalExpert}
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	f.users.users[expert.ID] = expert
	f.users.users[admin.ID] = admin
	svc := f.service()
	ctx := ctxAs(uuid.New(), true)

	a, err := svc.Assign(ctx, p.ID, &AssignRequest{
		UserID:         expert.ID,
		Role:           models.RoleEthicalExpert,
		Questionnaires: []string{"general-v1", " general-v1 ", "", "ethics-v1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"general-v1", "ethics-v1"}, a.Questionnaires)
	assert.Equal(t, models.AssignmentStatusAssigned, a.Status)
	assert.Len(t, p.AssignedUsers, 1)

	_, err = svc.Assign(ctx, p.ID, &AssignRequest{UserID: admin.ID, Role: models.RoleEthicalExpert})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = svc.Assign(ctx, p.ID, &AssignRequest{UserID: expert.ID, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)

	_, err = svc.Assign(ctx, p.ID, &AssignRequest{UserID: expert.ID, Role: models.RoleEthicalExpert, Questionnaires: []string{"missing-v1"}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Assign(ctx, p.ID, &AssignRequest{UserID: uuid.New(), Role: models.RoleEthicalExpert})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProjectService_RemoveAssignmentChecksProject(t *testing.T) {
	f := newProjectFixture()
	p := &models.Project{ID: uuid.New()}
	a := &models.ProjectAssignment{ID: uuid.New(), ProjectID: p.ID, UserID: uuid.New()}
	f.assignments.assignments = []*models.ProjectAssignment{a}
	svc := f.service()
	ctx := ctxAs(uuid.New(), true)

	assert.ErrorIs(t, svc.RemoveAssignment(ctx, uuid.New(), a.ID), apperrors.ErrNotFound)
	require.NoError(t, svc.RemoveAssignment(ctx, p.ID, a.ID))
	assert.Empty(t, f.assignments.assignments)
}

func TestProjectService_UpdateValidation(t *testing.T) {
	f := newProjectFixture()
	p := &models.Project{ID: uuid.New(), Title: "Old", Status: models.ProjectStatusOngoing}
	f.projects.projects[p.ID] = p
	svc := f.service()
	ctx := ctxAs(uuid.New(), true)

	bad := "maybe"
	_, err := svc.Update(ctx, p.ID, &UpdateProjectRequest{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	status, stage := models.ProjectStatusProven, models.StageResolve
	updated, err := svc.Update(ctx, p.ID, &UpdateProjectRequest{Status: &status, Stage: &stage})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusProven, updated.Status)
	assert.Equal(t, models.StageResolve, updated.Stage)
	assert.Equal(t, "Old", updated.Title)
}

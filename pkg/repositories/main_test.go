//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/testhelpers"
)

// setupRepoTest empties the shared engine database and returns a scoped context.
func setupRepoTest(t *testing.T) context.Context {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)
	engineDB.Truncate(t)
	return engineDB.Scope(t)
}

func createTestUser(t *testing.T, ctx context.Context, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:  name,
		Email: name + "-" + uuid.NewString()[:8] + "@example.com",
		Role:  role,
	}
	require.NoError(t, NewUserRepository().Create(ctx, user))
	return user
}

func createTestProject(t *testing.T, ctx context.Context, title, useCase string) *models.Project {
	t.Helper()
	project := &models.Project{
		Title:   title,
		Status:  models.ProjectStatusOngoing,
		Stage:   models.StageSetUp,
		UseCase: useCase,
	}
	require.NoError(t, NewProjectRepository().Create(ctx, project))
	return project
}

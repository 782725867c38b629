//go:build integration

package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/models"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewUserRepository()

	user := &models.User{Name: "Ada", Email: "Ada@Example.com", Role: models.RoleEthicalExpert}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, models.RoleEthicalExpert, got.Role)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewUserRepository()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "same@example.com", Role: models.RoleLegalExpert}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "same@example.com", Role: models.RoleLegalExpert})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserRepository_GetByIDs_SkipsUnknown(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewUserRepository()

	a := createTestUser(t, ctx, "alice", models.RoleMedicalExpert)
	b := createTestUser(t, ctx, "bob", models.RoleTechnicalExpert)

	users, err := repo.GetByIDs(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_ListByRole(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewUserRepository()

	createTestUser(t, ctx, "admin", models.RoleAdmin)
	createTestUser(t, ctx, "expert", models.RoleEthicalExpert)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admins, err := repo.List(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].IsAdmin())
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := setupRepoTest(t)
	repo := NewUserRepository()

	user := createTestUser(t, ctx, "carol", models.RoleEducationExpert)
	user.Name = "Carol"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), apperrors.ErrNotFound)
}

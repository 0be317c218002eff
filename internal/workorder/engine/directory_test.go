package engine

import (
	"context"
	"testing"

	"github.com/Luiscraft7/sistema-dn/internal/pkg/utils"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/db"
	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupDirectory(t *testing.T) (*DirectoryService, *db.Repository, models.Actor) {
	t.Helper()
	repo, err := db.NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	svc := NewDirectoryService(repo, zaptest.NewLogger(t))

	ownerUser := &models.User{ID: uuid.New(), Name: "Root", Username: "root", Role: models.Owner, Active: true}
	require.NoError(t, repo.CreateUser(context.Background(), ownerUser))
	return svc, repo, ownerUser.Actor()
}

func TestCreateClientSpecialRequiresNationalID(t *testing.T) {
	svc, _, _ := setupDirectory(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, CreateClientInput{
		Name:            "Luis",
		SpecialCategory: true,
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	client, err := svc.CreateClient(ctx, CreateClientInput{
		Name:            "Luis",
		NationalID:      "1-2345-6789",
		Age:             utils.Ptr(34),
		SpecialCategory: true,
	})
	require.NoError(t, err)
	assert.True(t, client.SpecialCategory)
	assert.Equal(t, "1-2345-6789", client.NationalID)
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _ := setupDirectory(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, CreateClientInput{Name: "   "})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = svc.CreateClient(ctx, CreateClientInput{Name: "Ana", Age: utils.Ptr(-1)})
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestListClientsIncludesJobCount(t *testing.T) {
	svc, repo, _ := setupDirectory(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, CreateClientInput{Name: "Ana"})
	require.NoError(t, err)

	business := &models.Business{ID: uuid.New(), Name: "Wash"}
	require.NoError(t, repo.CreateBusiness(ctx, business))
	require.NoError(t, repo.CreateJob(ctx, &models.Job{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		ClientID:    client.ID,
		Description: "wash",
		State:       models.Pending,
	}))

	views, err := svc.ListClients(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), views[0].JobCount)
}

func TestDeleteClientBlockedByJobs(t *testing.T) {
	svc, repo, _ := setupDirectory(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, CreateClientInput{Name: "Ana"})
	require.NoError(t, err)

	business := &models.Business{ID: uuid.New(), Name: "Wash"}
	require.NoError(t, repo.CreateBusiness(ctx, business))
	require.NoError(t, repo.CreateJob(ctx, &models.Job{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		ClientID:    client.ID,
		Description: "wash",
		State:       models.Pending,
	}))

	err = svc.DeleteClient(ctx, client.ID)
	require.ErrorIs(t, err, e.ErrInvalidInput)
	assert.Contains(t, err.Error(), "1 associated job", "error must name the count")

	// Still there.
	_, err = repo.GetClient(ctx, client.ID)
	assert.NoError(t, err)
}

func TestDeleteClientWithoutJobs(t *testing.T) {
	svc, repo, _ := setupDirectory(t)
	ctx := context.Background()

	client, err := svc.CreateClient(ctx, CreateClientInput{Name: "Ana"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClient(ctx, client.ID))
	_, err = repo.GetClient(ctx, client.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCreateBusinessOwnerOnly(t *testing.T) {
	svc, repo, owner := setupDirectory(t)
	ctx := context.Background()

	business, err := svc.CreateBusiness(ctx, owner, "Cabins", true)
	require.NoError(t, err)
	assert.True(t, business.Special)

	workerUser := &models.User{
		ID: uuid.New(), Name: "W", Username: "w", Role: models.Worker,
		BusinessID: &business.ID, Active: true,
	}
	require.NoError(t, repo.CreateUser(ctx, workerUser))

	_, err = svc.CreateBusiness(ctx, workerUser.Actor(), "Another", false)
	assert.ErrorIs(t, err, e.ErrForbidden)

	_, err = svc.CreateBusiness(ctx, owner, "Cabins", true)
	assert.ErrorIs(t, err, e.ErrConflict)
}

func TestCreateUserAssignmentRules(t *testing.T) {
	svc, _, owner := setupDirectory(t)
	ctx := context.Background()

	business, err := svc.CreateBusiness(ctx, owner, "Wash", false)
	require.NoError(t, err)

	// Workers need an existing business.
	_, err = svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker,
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	missing := uuid.New()
	_, err = svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker, BusinessID: &missing,
	})
	assert.ErrorIs(t, err, e.ErrNotFound)

	worker, err := svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker, BusinessID: &business.ID,
	})
	require.NoError(t, err)
	assert.True(t, worker.Active)

	// Owners carry no assignment.
	_, err = svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "O", Username: "o1", Role: models.Owner, BusinessID: &business.ID,
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	_, err = svc.CreateUser(ctx, worker.Actor(), CreateUserInput{
		Name: "X", Username: "x1", Role: models.Owner,
	})
	assert.ErrorIs(t, err, e.ErrForbidden)
}

func TestUpdateUserPromotionClearsAssignment(t *testing.T) {
	svc, _, owner := setupDirectory(t)
	ctx := context.Background()

	business, err := svc.CreateBusiness(ctx, owner, "Wash", false)
	require.NoError(t, err)
	worker, err := svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker, BusinessID: &business.ID,
	})
	require.NoError(t, err)

	role := models.Owner
	promoted, err := svc.UpdateUser(ctx, owner, &models.UserUpdate{ID: worker.ID, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.Owner, promoted.Role)
	assert.Nil(t, promoted.BusinessID, "promotion clears the business assignment")
}

func TestUpdateUserPromotionDropsBusinessInSamePatch(t *testing.T) {
	svc, _, owner := setupDirectory(t)
	ctx := context.Background()

	business, err := svc.CreateBusiness(ctx, owner, "Wash", false)
	require.NoError(t, err)
	worker, err := svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker, BusinessID: &business.ID,
	})
	require.NoError(t, err)

	// One patch carrying both the promotion and an assignment: the
	// assignment must not survive.
	role := models.Owner
	promoted, err := svc.UpdateUser(ctx, owner, &models.UserUpdate{
		ID:         worker.ID,
		Role:       &role,
		BusinessID: &business.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Owner, promoted.Role)
	assert.Nil(t, promoted.BusinessID, "owner must not carry a business assignment")
}

func TestUpdateUserDeactivation(t *testing.T) {
	svc, _, owner := setupDirectory(t)
	ctx := context.Background()

	business, err := svc.CreateBusiness(ctx, owner, "Wash", false)
	require.NoError(t, err)
	worker, err := svc.CreateUser(ctx, owner, CreateUserInput{
		Name: "W", Username: "w1", Role: models.Worker, BusinessID: &business.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, owner, &models.UserUpdate{ID: worker.ID, Active: utils.Ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// The row survives so ledger entries keep resolving the author.
	users, err := svc.ListUsers(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

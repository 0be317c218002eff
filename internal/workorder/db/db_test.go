package db

import (
	"context"
	"testing"
	"time"

	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/Luiscraft7/sistema-dn/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err, "failed to open test database")
	return repo
}

func seedBusiness(t *testing.T, repo *Repository, name string) *models.Business {
	t.Helper()
	b := &models.Business{ID: uuid.New(), Name: name}
	require.NoError(t, repo.CreateBusiness(context.Background(), b))
	return b
}

func seedClient(t *testing.T, repo *Repository, name string) *models.Client {
	t.Helper()
	c := &models.Client{ID: uuid.New(), Name: name}
	require.NoError(t, repo.CreateClient(context.Background(), c))
	return c
}

func seedJob(t *testing.T, repo *Repository, businessID, clientID uuid.UUID) *models.Job {
	t.Helper()
	j := &models.Job{
		ID:          uuid.New(),
		BusinessID:  businessID,
		ClientID:    clientID,
		Description: "test job",
		State:       models.Pending,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateJob(context.Background(), j))
	return j
}

func TestCreateAndGetBusiness(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := &models.Business{ID: uuid.New(), Name: "Wash", Special: false}
	err := repo.CreateBusiness(ctx, business)
	assert.NoError(t, err, "CreateBusiness should not return an error")

	retrieved, err := repo.GetBusiness(ctx, business.ID)
	assert.NoError(t, err)
	assert.Equal(t, business.Name, retrieved.Name)
	assert.False(t, retrieved.Special)
}

func TestCreateBusinessDuplicateName(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateBusiness(ctx, &models.Business{ID: uuid.New(), Name: "Wash"}))
	err := repo.CreateBusiness(ctx, &models.Business{ID: uuid.New(), Name: "Wash"})
	assert.ErrorIs(t, err, e.ErrConflict)
}

func TestGetBusinessNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetBusiness(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Name: "Ana", Username: "ana", Role: models.Owner, Active: true}
	require.NoError(t, repo.CreateUser(ctx, user))

	err := repo.CreateUser(ctx, &models.User{ID: uuid.New(), Name: "Other", Username: "ana", Role: models.Owner, Active: true})
	assert.ErrorIs(t, err, e.ErrConflict)
}

func TestUpdateUserDeactivate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Name: "Ana", Username: "ana", Role: models.Owner, Active: true}
	require.NoError(t, repo.CreateUser(ctx, user))

	err := repo.UpdateUser(ctx, &models.UserUpdate{ID: user.ID, Active: utils.Ptr(false)})
	assert.NoError(t, err)

	updated, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active, "user should be deactivated, not deleted")
}

func TestUpdateUserOwnerRoleClearsBusinessID(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := seedBusiness(t, repo, "Wash")
	user := &models.User{
		ID: uuid.New(), Name: "Ana", Username: "ana",
		Role: models.Worker, BusinessID: &business.ID, Active: true,
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	role := models.Owner
	err := repo.UpdateUser(ctx, &models.UserUpdate{
		ID:         user.ID,
		Role:       &role,
		BusinessID: &business.ID,
	})
	require.NoError(t, err)

	updated, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Owner, updated.Role)
	assert.Nil(t, updated.BusinessID, "role change to owner wins over the assignment in the same patch")
}

func TestUpdateUserNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateUser(context.Background(), &models.UserUpdate{ID: uuid.New(), Name: utils.Ptr("X")})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListClientsFilter(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	general := &models.Client{ID: uuid.New(), Name: "Ana", Phone: "555-0100"}
	special := &models.Client{ID: uuid.New(), Name: "Luis", NationalID: "1-2345-6789", SpecialCategory: true}
	require.NoError(t, repo.CreateClient(ctx, general))
	require.NoError(t, repo.CreateClient(ctx, special))

	all, err := repo.ListClients(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	specials, err := repo.ListClients(ctx, &models.ClientFilter{SpecialCategory: utils.Ptr(true)})
	require.NoError(t, err)
	require.Len(t, specials, 1)
	assert.Equal(t, "Luis", specials[0].Name)

	byPhone, err := repo.ListClients(ctx, &models.ClientFilter{Search: "0100"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "Ana", byPhone[0].Name)

	byNationalID, err := repo.ListClients(ctx, &models.ClientFilter{Search: "2345"})
	require.NoError(t, err)
	require.Len(t, byNationalID, 1)
	assert.Equal(t, "Luis", byNationalID[0].Name)
}

func TestDeleteClient(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	client := seedClient(t, repo, "Ana")
	assert.NoError(t, repo.DeleteClient(ctx, client.ID))
	assert.ErrorIs(t, repo.DeleteClient(ctx, client.ID), e.ErrNotFound)
}

func TestCountJobsByClient(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := seedBusiness(t, repo, "Wash")
	client := seedClient(t, repo, "Ana")
	other := seedClient(t, repo, "Luis")
	seedJob(t, repo, business.ID, client.ID)

	count, err := repo.CountJobsByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountJobsByClient(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListJobsFilters(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	wash := seedBusiness(t, repo, "Wash")
	cabins := seedBusiness(t, repo, "Cabins")
	client := seedClient(t, repo, "Ana")
	washJob := seedJob(t, repo, wash.ID, client.ID)
	seedJob(t, repo, cabins.ID, client.ID)

	byBusiness, err := repo.ListJobs(ctx, &models.JobFilter{BusinessID: &wash.ID})
	require.NoError(t, err)
	require.Len(t, byBusiness, 1)
	assert.Equal(t, washJob.ID, byBusiness[0].ID)

	state := models.Pending
	byState, err := repo.ListJobs(ctx, &models.JobFilter{State: &state})
	require.NoError(t, err)
	assert.Len(t, byState, 2)

	none, err := repo.ListJobs(ctx, &models.JobFilter{MatchNone: true})
	require.NoError(t, err)
	assert.Empty(t, none, "match-nothing filter must not touch the store result")
}

func TestSetJobState(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := seedBusiness(t, repo, "Wash")
	client := seedClient(t, repo, "Ana")
	job := seedJob(t, repo, business.ID, client.ID)

	now := time.Now()
	require.NoError(t, repo.SetJobState(ctx, job.ID, models.Completed, &now))

	updated, err := repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Completed, updated.State)
	require.NotNil(t, updated.FinishedAt)

	// Re-entering a non-terminal state clears the finish timestamp.
	require.NoError(t, repo.SetJobState(ctx, job.ID, models.Pending, nil))
	updated, err = repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.FinishedAt)
}

func TestHistoryOrdering(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := seedBusiness(t, repo, "Wash")
	client := seedClient(t, repo, "Ana")
	job := seedJob(t, repo, business.ID, client.ID)
	user := &models.User{ID: uuid.New(), Name: "Ana", Username: "ana", Role: models.Owner, Active: true}
	require.NoError(t, repo.CreateUser(ctx, user))

	// Identical timestamps: insertion order must break the tie.
	ts := time.Now().Truncate(time.Second)
	states := []models.JobState{models.Pending, models.InProgress, models.Completed}
	for _, state := range states {
		entry := &models.HistoryEntry{
			ID:        uuid.New(),
			JobID:     job.ID,
			State:     state,
			UserID:    user.ID,
			Timestamp: ts,
		}
		require.NoError(t, repo.AppendHistory(ctx, entry))
	}

	history, err := repo.ListHistory(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, state := range states {
		assert.Equal(t, state, history[i].State)
	}
	assert.Less(t, history[0].Seq, history[1].Seq)
	assert.Less(t, history[1].Seq, history[2].Seq)
}

func TestWithTransactionRollback(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	business := seedBusiness(t, repo, "Wash")
	client := seedClient(t, repo, "Ana")

	job := &models.Job{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		ClientID:    client.ID,
		Description: "doomed",
		State:       models.Pending,
		CreatedAt:   time.Now(),
	}
	err := repo.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = repo.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "rolled-back job must not be visible")
}

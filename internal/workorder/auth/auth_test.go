package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUserSource struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserSource) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, e.ErrNotFound
	}
	return user, nil
}

func TestTokenRoundtrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, testSecret)
	require.NoError(t, err)

	parsed, err := ParseSubject(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseSubjectRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), testSecret)
	require.NoError(t, err)

	_, err = ParseSubject(token, "other-secret")
	assert.Error(t, err)
}

func TestParseSubjectRejectsGarbage(t *testing.T) {
	_, err := ParseSubject("not-a-token", testSecret)
	assert.Error(t, err)
}

func newAuthRouter(users UserSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Middleware(users, testSecret), func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor": actor.ID})
	})
	router.GET("/owners-only", Middleware(users, testSecret), RequireOwner(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestMiddlewareBearerHeader(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Ana", Role: models.Owner, Active: true}
	source := &fakeUserSource{users: map[uuid.UUID]*models.User{user.ID: user}}
	router := newAuthRouter(source)

	token, err := GenerateToken(user.ID, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareTokenQueryParam(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Ana", Role: models.Owner, Active: true}
	source := &fakeUserSource{users: map[uuid.UUID]*models.User{user.ID: user}}
	router := newAuthRouter(source)

	token, err := GenerateToken(user.ID, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareRejections(t *testing.T) {
	businessID := uuid.New()
	inactive := &models.User{ID: uuid.New(), Name: "Gone", Role: models.Worker, BusinessID: &businessID, Active: false}
	source := &fakeUserSource{users: map[uuid.UUID]*models.User{inactive.ID: inactive}}
	router := newAuthRouter(source)

	// No credentials at all.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Tampered token.
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token for a user that no longer resolves.
	token, err := GenerateToken(uuid.New(), testSecret)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Deactivated users are locked out immediately.
	token, err = GenerateToken(inactive.ID, testSecret)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireOwner(t *testing.T) {
	businessID := uuid.New()
	owner := &models.User{ID: uuid.New(), Name: "O", Role: models.Owner, Active: true}
	worker := &models.User{ID: uuid.New(), Name: "W", Role: models.Worker, BusinessID: &businessID, Active: true}
	source := &fakeUserSource{users: map[uuid.UUID]*models.User{
		owner.ID:  owner,
		worker.ID: worker,
	}}
	router := newAuthRouter(source)

	ownerToken, err := GenerateToken(owner.ID, testSecret)
	require.NoError(t, err)
	workerToken, err := GenerateToken(worker.ID, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/owners-only", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/owners-only", nil)
	req.Header.Set("Authorization", "Bearer "+workerToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

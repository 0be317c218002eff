package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/db"
	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirectoryRepository is the storage surface for the reference entities
// around jobs: businesses, users and clients.
type DirectoryRepository interface {
	CreateBusiness(ctx context.Context, b *models.Business) error
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListBusinesses(ctx context.Context) ([]models.Business, error)
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, update *models.UserUpdate) error
	CreateClient(ctx context.Context, c *models.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, filter *models.ClientFilter) ([]models.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
	CountJobsByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// CreateClientInput carries a new client's fields.
type CreateClientInput struct {
	Name            string
	Phone           string
	Note            string
	NationalID      string
	Age             *int
	SpecialCategory bool
}

// CreateUserInput carries a new user's fields. Credentials are issued by
// an external collaborator and never pass through this service.
type CreateUserInput struct {
	Name       string
	Username   string
	Role       models.Role
	BusinessID *uuid.UUID
}

// DirectoryService manages the entities jobs reference.
type DirectoryService struct {
	repo   DirectoryRepository
	logger *zap.Logger
}

func NewDirectoryService(repo DirectoryRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		repo:   repo,
		logger: logger.Named("directory"),
	}
}

// ── Clients ─────────────────────────────────────────────────────────

// CreateClient validates and stores a new client. Special-category
// clients must carry a national ID.
func (s *DirectoryService) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}
	nationalID := strings.TrimSpace(input.NationalID)
	if input.SpecialCategory && nationalID == "" {
		return nil, fmt.Errorf("%w: national ID is required for special-category clients", e.ErrInvalidInput)
	}
	if input.Age != nil && *input.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", e.ErrInvalidInput)
	}

	client := &models.Client{
		ID:              uuid.New(),
		Name:            name,
		Phone:           strings.TrimSpace(input.Phone),
		Note:            strings.TrimSpace(input.Note),
		NationalID:      nationalID,
		Age:             input.Age,
		SpecialCategory: input.SpecialCategory,
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// ListClients returns clients matching filter, each with its job count.
func (s *DirectoryService) ListClients(ctx context.Context, filter *models.ClientFilter) ([]models.ClientView, error) {
	clients, err := s.repo.ListClients(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	views := make([]models.ClientView, 0, len(clients))
	for _, c := range clients {
		count, err := s.repo.CountJobsByClient(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count jobs: %w", err)
		}
		views = append(views, clientView(&c, count))
	}
	return views, nil
}

// DeleteClient hard-deletes a client, refusing while jobs reference it.
// The error names the count so the UI can surface it verbatim.
func (s *DirectoryService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetClient(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return fmt.Errorf("%w: client %s", e.ErrNotFound, id)
		}
		return fmt.Errorf("failed to get client: %w", err)
	}
	// The count and the delete share a transaction so a job created in
	// between cannot orphan its client.
	return s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		count, err := tx.CountJobsByClient(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count jobs: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: client has %d associated job(s)", e.ErrInvalidInput, count)
		}
		if err := tx.DeleteClient(ctx, id); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		return nil
	})
}

// ── Businesses ──────────────────────────────────────────────────────

// CreateBusiness registers a business. Owner-only.
func (s *DirectoryService) CreateBusiness(ctx context.Context, actor models.Actor, name string, special bool) (*models.Business, error) {
	if actor.Role != models.Owner {
		return nil, fmt.Errorf("%w: only owners manage businesses", e.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}
	business := &models.Business{
		ID:      uuid.New(),
		Name:    name,
		Special: special,
	}
	if err := s.repo.CreateBusiness(ctx, business); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create business: %w", err)
	}
	return business, nil
}

func (s *DirectoryService) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	businesses, err := s.repo.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return businesses, nil
}

func (s *DirectoryService) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	business, err := s.repo.GetBusiness(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return business, nil
}

// ── Users ───────────────────────────────────────────────────────────

// CreateUser registers a user. Owner-only. Workers must reference an
// existing business; owners must not reference one.
func (s *DirectoryService) CreateUser(ctx context.Context, actor models.Actor, input CreateUserInput) (*models.User, error) {
	if actor.Role != models.Owner {
		return nil, fmt.Errorf("%w: only owners manage users", e.ErrForbidden)
	}
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)
	if name == "" || username == "" {
		return nil, fmt.Errorf("%w: name and username are required", e.ErrInvalidInput)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: role must be %s or %s", e.ErrInvalidInput, models.Owner, models.Worker)
	}
	if err := s.checkAssignment(ctx, input.Role, input.BusinessID); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:         uuid.New(),
		Name:       name,
		Username:   username,
		Role:       input.Role,
		BusinessID: input.BusinessID,
		Active:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if actor.Role != models.Owner {
		return nil, fmt.Errorf("%w: only owners manage users", e.ErrForbidden)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser patches a user. Deactivation (Active=false) is the soft
// delete; the row stays so history keeps resolving.
func (s *DirectoryService) UpdateUser(ctx context.Context, actor models.Actor, update *models.UserUpdate) (*models.User, error) {
	if actor.Role != models.Owner {
		return nil, fmt.Errorf("%w: only owners manage users", e.ErrForbidden)
	}
	current, err := s.repo.GetUser(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", e.ErrNotFound, update.ID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be blank", e.ErrInvalidInput)
	}

	role := current.Role
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, fmt.Errorf("%w: role must be %s or %s", e.ErrInvalidInput, models.Owner, models.Worker)
		}
		role = *update.Role
	}
	businessID := current.BusinessID
	if update.BusinessID != nil {
		businessID = update.BusinessID
	}
	if role == models.Owner {
		// Promoting a worker clears their assignment, even when the same
		// patch carries one.
		businessID = nil
		update.BusinessID = nil
	}
	if err := s.checkAssignment(ctx, role, businessID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUser(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	updated, err := s.repo.GetUser(ctx, update.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return updated, nil
}

// checkAssignment enforces the role/business pairing rule: workers carry
// exactly one existing business, owners carry none.
func (s *DirectoryService) checkAssignment(ctx context.Context, role models.Role, businessID *uuid.UUID) error {
	switch role {
	case models.Worker:
		if businessID == nil {
			return fmt.Errorf("%w: workers require a business assignment", e.ErrInvalidInput)
		}
		if _, err := s.repo.GetBusiness(ctx, *businessID); err != nil {
			if errors.Is(err, e.ErrNotFound) {
				return fmt.Errorf("%w: business %s", e.ErrNotFound, *businessID)
			}
			return fmt.Errorf("failed to resolve business: %w", err)
		}
	case models.Owner:
		if businessID != nil {
			return fmt.Errorf("%w: owners must not carry a business assignment", e.ErrInvalidInput)
		}
	}
	return nil
}

func clientView(c *models.Client, jobCount int64) models.ClientView {
	return models.ClientView{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		Note:            c.Note,
		NationalID:      c.NationalID,
		Age:             c.Age,
		SpecialCategory: c.SpecialCategory,
		CreatedAt:       c.CreatedAt,
		JobCount:        jobCount,
	}
}

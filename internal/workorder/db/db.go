// Package db implements the persistent job store on top of GORM. It is
// the single source of truth for businesses, users, clients, jobs and the
// job history ledger.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbmodels "github.com/Luiscraft7/sistema-dn/internal/workorder/db/models"
	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewSQLiteRepository opens an embedded SQLite store. Single-node
// deployments and tests use it in place of Postgres.
func NewSQLiteRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&dbmodels.Business{},
		&dbmodels.User{},
		&dbmodels.Client{},
		&dbmodels.Job{},
		&dbmodels.HistoryEntry{},
	)
}

// WithTransaction runs fn against a repository bound to a single
// transaction. The transition engine uses this to pair job updates with
// their ledger append.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// ── Businesses ──────────────────────────────────────────────────────

func (r *Repository) CreateBusiness(ctx context.Context, b *models.Business) error {
	rec := businessRecord(b)
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: business name %q already exists", e.ErrConflict, b.Name)
		}
		return result.Error
	}
	b.CreatedAt = rec.CreatedAt
	return nil
}

func (r *Repository) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var rec dbmodels.Business
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return businessModel(&rec), nil
}

func (r *Repository) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	var recs []dbmodels.Business
	result := r.db.WithContext(ctx).Order("created_at asc").Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]models.Business, len(recs))
	for i := range recs {
		out[i] = *businessModel(&recs[i])
	}
	return out, nil
}

// ── Users ───────────────────────────────────────────────────────────

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	rec := userRecord(u)
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: username %q already taken", e.ErrConflict, u.Username)
		}
		return result.Error
	}
	u.CreatedAt = rec.CreatedAt
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var rec dbmodels.User
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return userModel(&rec), nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var recs []dbmodels.User
	result := r.db.WithContext(ctx).Order("created_at desc").Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]models.User, len(recs))
	for i := range recs {
		out[i] = *userModel(&recs[i])
	}
	return out, nil
}

func (r *Repository) UpdateUser(ctx context.Context, update *models.UserUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.BusinessID != nil {
		fields["business_id"] = *update.BusinessID
	}
	if update.Role != nil {
		fields["role"] = string(*update.Role)
		// Owners never carry an assignment; this wins over any
		// business_id in the same patch.
		if *update.Role == models.Owner {
			fields["business_id"] = nil
		}
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&dbmodels.User{}).
		Where("id = ?", update.ID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ── Clients ─────────────────────────────────────────────────────────

func (r *Repository) CreateClient(ctx context.Context, c *models.Client) error {
	rec := clientRecord(c)
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		return result.Error
	}
	c.CreatedAt = rec.CreatedAt
	return nil
}

func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var rec dbmodels.Client
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return clientModel(&rec), nil
}

func (r *Repository) ListClients(ctx context.Context, filter *models.ClientFilter) ([]models.Client, error) {
	q := r.db.WithContext(ctx).Model(&dbmodels.Client{})
	if filter != nil {
		if filter.SpecialCategory != nil {
			q = q.Where("special_category = ?", *filter.SpecialCategory)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("name LIKE ? OR phone LIKE ? OR national_id LIKE ?", like, like, like)
		}
	}
	var recs []dbmodels.Client
	result := q.Order("created_at desc").Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]models.Client, len(recs))
	for i := range recs {
		out[i] = *clientModel(&recs[i])
	}
	return out, nil
}

func (r *Repository) GetClientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Client, error) {
	out := make(map[uuid.UUID]models.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recs []dbmodels.Client
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range recs {
		out[recs[i].ID] = *clientModel(&recs[i])
	}
	return out, nil
}

func (r *Repository) CountJobsByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&dbmodels.Job{}).
		Where("client_id = ?", clientID).
		Count(&count)
	return count, result.Error
}

// DeleteClient hard-deletes a client. The caller is responsible for
// checking the client has no jobs first.
func (r *Repository) DeleteClient(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&dbmodels.Client{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ── Jobs ────────────────────────────────────────────────────────────

func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	rec := jobRecord(job)
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		return result.Error
	}
	job.CreatedAt = rec.CreatedAt
	return nil
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var rec dbmodels.Job
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return jobModel(&rec), nil
}

func (r *Repository) ListJobs(ctx context.Context, filter *models.JobFilter) ([]models.Job, error) {
	if filter != nil && filter.MatchNone {
		return []models.Job{}, nil
	}
	q := r.db.WithContext(ctx).Model(&dbmodels.Job{})
	if filter != nil {
		if filter.BusinessID != nil {
			q = q.Where("business_id = ?", *filter.BusinessID)
		}
		if filter.State != nil {
			q = q.Where("state = ?", string(*filter.State))
		}
		if filter.From != nil {
			q = q.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("created_at <= ?", *filter.To)
		}
	}
	var recs []dbmodels.Job
	result := q.Order("created_at desc").Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]models.Job, len(recs))
	for i := range recs {
		out[i] = *jobModel(&recs[i])
	}
	return out, nil
}

// UpdateJobFields patches description/price only.
func (r *Repository) UpdateJobFields(ctx context.Context, update *models.JobUpdate) error {
	fields := map[string]interface{}{}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.EstimatedPrice != nil {
		fields["estimated_price"] = *update.EstimatedPrice
	}
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&dbmodels.Job{}).
		Where("id = ?", update.ID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// SetJobState writes the denormalized current state and finish timestamp.
// Only the transition engine calls this, inside a transaction that also
// appends the matching ledger entry.
func (r *Repository) SetJobState(ctx context.Context, id uuid.UUID, state models.JobState, finishedAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&dbmodels.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":       string(state),
			"finished_at": finishedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// ── History ledger ──────────────────────────────────────────────────

// AppendHistory inserts one ledger entry. Append is the only mutation the
// ledger supports; entries are never updated or deleted.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	rec := historyRecord(entry)
	result := r.db.WithContext(ctx).Create(rec)
	if result.Error != nil {
		return result.Error
	}
	entry.Seq = rec.Seq
	return nil
}

// ListHistory returns a job's ledger ordered by timestamp ascending, ties
// broken by insertion order.
func (r *Repository) ListHistory(ctx context.Context, jobID uuid.UUID) ([]models.HistoryEntry, error) {
	var recs []dbmodels.HistoryEntry
	result := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("timestamp asc, seq asc").
		Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]models.HistoryEntry, len(recs))
	for i := range recs {
		out[i] = *historyModel(&recs[i])
	}
	return out, nil
}

// ListHistoryByJobIDs loads the ledgers for a set of jobs in one query,
// grouped by job, each group ordered like ListHistory.
func (r *Repository) ListHistoryByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]models.HistoryEntry, error) {
	out := make(map[uuid.UUID][]models.HistoryEntry, len(jobIDs))
	if len(jobIDs) == 0 {
		return out, nil
	}
	var recs []dbmodels.HistoryEntry
	result := r.db.WithContext(ctx).
		Where("job_id IN ?", jobIDs).
		Order("timestamp asc, seq asc").
		Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range recs {
		entry := historyModel(&recs[i])
		out[entry.JobID] = append(out[entry.JobID], *entry)
	}
	return out, nil
}

func (r *Repository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recs []dbmodels.User
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range recs {
		out[recs[i].ID] = *userModel(&recs[i])
	}
	return out, nil
}

func (r *Repository) GetBusinessesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Business, error) {
	out := make(map[uuid.UUID]models.Business, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recs []dbmodels.Business
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range recs {
		out[recs[i].ID] = *businessModel(&recs[i])
	}
	return out, nil
}

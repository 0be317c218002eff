// Package engine implements the job lifecycle: creation, the fixed state
// machine, field patches and scoped listing. It is the sole writer path
// for jobs and the history ledger; every state change pairs the job
// update with its ledger append in one transaction.
//
// Concurrent transitions on the same job are resolved last-writer-wins:
// both attempts validate against the state they read and both land in the
// ledger, but the denormalized job state reflects whichever commit is
// last. Surfaces reconcile by wholesale re-fetch, so a lost write is
// visible within one polling interval.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/db"
	e "github.com/Luiscraft7/sistema-dn/internal/workorder/errors"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/hub"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/scope"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier receives the projected job after every successful create or
// transition. Implementations must not block the request path.
type Notifier interface {
	Publish(eventType hub.EventType, job *models.JobView)
}

// Repository defines the storage interface the engine drives.
type Repository interface {
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	GetBusinessesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Business, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetClientsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Client, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter *models.JobFilter) ([]models.Job, error)
	UpdateJobFields(ctx context.Context, update *models.JobUpdate) error
	SetJobState(ctx context.Context, id uuid.UUID, state models.JobState, finishedAt *time.Time) error
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	ListHistory(ctx context.Context, jobID uuid.UUID) ([]models.HistoryEntry, error)
	ListHistoryByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]models.HistoryEntry, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// transitions is the full state machine. Terminal states map to nothing.
var transitions = map[models.JobState][]models.JobState{
	models.Pending:    {models.InProgress, models.Cancelled},
	models.InProgress: {models.Completed, models.Pending, models.Cancelled},
	models.Completed:  {},
	models.Cancelled:  {},
}

func transitionAllowed(from, to models.JobState) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func allowedTargets(from models.JobState) string {
	targets := transitions[from]
	if len(targets) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// CreateJobInput carries everything needed to open a job.
type CreateJobInput struct {
	BusinessID     uuid.UUID
	ClientID       uuid.UUID
	Description    string
	EstimatedPrice *float64
}

// JobService validates and applies every job mutation.
type JobService struct {
	repo     Repository
	notifier Notifier
	resolver *scope.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewJobService constructs a JobService with a repository, a notifier and
// a logger.
func NewJobService(repo Repository, notifier Notifier, resolver *scope.Resolver, logger *zap.Logger) *JobService {
	return &JobService{
		repo:     repo,
		notifier: notifier,
		resolver: resolver,
		logger:   logger.Named("engine"),
		now:      time.Now,
	}
}

// CreateJob opens a job at Pending and appends the creation ledger entry
// in the same transaction.
func (s *JobService) CreateJob(ctx context.Context, actor models.Actor, input CreateJobInput) (*models.JobView, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", e.ErrInvalidInput)
	}
	if input.EstimatedPrice != nil && *input.EstimatedPrice < 0 {
		return nil, fmt.Errorf("%w: estimated price must not be negative", e.ErrInvalidInput)
	}

	business, err := s.repo.GetBusiness(ctx, input.BusinessID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: business %s", e.ErrNotFound, input.BusinessID)
		}
		return nil, fmt.Errorf("failed to resolve business: %w", err)
	}
	client, err := s.repo.GetClient(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %s", e.ErrNotFound, input.ClientID)
		}
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}
	if !s.resolver.CanWrite(actor, business.ID) {
		return nil, fmt.Errorf("%w: not assigned to business %q", e.ErrForbidden, business.Name)
	}

	now := s.now()
	job := &models.Job{
		ID:             uuid.New(),
		BusinessID:     business.ID,
		ClientID:       client.ID,
		Description:    description,
		EstimatedPrice: input.EstimatedPrice,
		State:          models.Pending,
		CreatedAt:      now,
	}
	entry := &models.HistoryEntry{
		ID:        uuid.New(),
		JobID:     job.ID,
		State:     models.Pending,
		Note:      "job created",
		UserID:    actor.ID,
		Timestamp: now,
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	view := assembleView(job, client, business,
		[]models.HistoryEntry{*entry},
		map[uuid.UUID]models.User{actor.ID: {ID: actor.ID, Name: actor.Name}})
	go func() {
		s.notifier.Publish(hub.JobCreated, view)
	}()
	return view, nil
}

// Transition moves a job to target, appending the matching ledger entry
// atomically with the denormalized state update.
func (s *JobService) Transition(ctx context.Context, actor models.Actor, jobID uuid.UUID, target models.JobState, note string) (*models.JobView, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown state %q", e.ErrInvalidInput, target)
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", e.ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if !s.resolver.CanWrite(actor, job.BusinessID) {
		return nil, fmt.Errorf("%w: job belongs to another business", e.ErrForbidden)
	}
	if !transitionAllowed(job.State, target) {
		return nil, fmt.Errorf("%w: %s -> %s, allowed from %s: %s",
			e.ErrInvalidTransition, job.State, target, job.State, allowedTargets(job.State))
	}

	now := s.now()
	var finishedAt *time.Time
	if target.Terminal() {
		finishedAt = &now
	}
	entry := &models.HistoryEntry{
		ID:        uuid.New(),
		JobID:     job.ID,
		State:     target,
		Note:      strings.TrimSpace(note),
		UserID:    actor.ID,
		Timestamp: now,
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.SetJobState(ctx, job.ID, target, finishedAt); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}

	job.State = target
	job.FinishedAt = finishedAt

	view, err := s.project(ctx, job)
	if err != nil {
		s.logger.Error("Failed to project job for event",
			zap.Error(err),
			zap.String("job_id", job.ID.String()),
		)
		return nil, err
	}
	go func() {
		s.notifier.Publish(hub.JobUpdated, view)
	}()
	return view, nil
}

// UpdateJob patches description/price. State never moves through here.
func (s *JobService) UpdateJob(ctx context.Context, actor models.Actor, update *models.JobUpdate) (*models.JobView, error) {
	if update.Description != nil {
		trimmed := strings.TrimSpace(*update.Description)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: description must not be blank", e.ErrInvalidInput)
		}
		update.Description = &trimmed
	}
	if update.EstimatedPrice != nil && *update.EstimatedPrice < 0 {
		return nil, fmt.Errorf("%w: estimated price must not be negative", e.ErrInvalidInput)
	}

	job, err := s.repo.GetJob(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", e.ErrNotFound, update.ID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if !s.resolver.CanWrite(actor, job.BusinessID) {
		return nil, fmt.Errorf("%w: job belongs to another business", e.ErrForbidden)
	}

	if err := s.repo.UpdateJobFields(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	updated, err := s.repo.GetJob(ctx, update.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload job: %w", err)
	}
	view, err := s.project(ctx, updated)
	if err != nil {
		return nil, err
	}
	go func() {
		s.notifier.Publish(hub.JobUpdated, view)
	}()
	return view, nil
}

// GetJob returns a single projected job, scope-checked.
func (s *JobService) GetJob(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.JobView, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", e.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if !s.resolver.CanRead(actor, job.BusinessID) {
		return nil, fmt.Errorf("%w: job belongs to another business", e.ErrForbidden)
	}
	return s.project(ctx, job)
}

// ListJobs returns the scope-filtered projected job list. Workers asking
// for a business that is not theirs get an empty list.
func (s *JobService) ListJobs(ctx context.Context, actor models.Actor, requested *models.JobFilter) ([]models.JobView, error) {
	filter := s.resolver.Filter(actor, requested)
	jobs, err := s.repo.ListJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		return []models.JobView{}, nil
	}

	jobIDs := make([]uuid.UUID, 0, len(jobs))
	clientIDs := make([]uuid.UUID, 0, len(jobs))
	businessIDs := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		jobIDs = append(jobIDs, j.ID)
		clientIDs = append(clientIDs, j.ClientID)
		businessIDs = append(businessIDs, j.BusinessID)
	}

	histories, err := s.repo.ListHistoryByJobIDs(ctx, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	clients, err := s.repo.GetClientsByIDs(ctx, clientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	businesses, err := s.repo.GetBusinessesByIDs(ctx, businessIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load businesses: %w", err)
	}

	userIDSet := make(map[uuid.UUID]struct{})
	for _, entries := range histories {
		for _, entry := range entries {
			userIDSet[entry.UserID] = struct{}{}
		}
	}
	userIDs := make([]uuid.UUID, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load history actors: %w", err)
	}

	views := make([]models.JobView, 0, len(jobs))
	for i := range jobs {
		job := jobs[i]
		client := clients[job.ClientID]
		business := businesses[job.BusinessID]
		views = append(views, *assembleView(&job, &client, &business, histories[job.ID], users))
	}
	return views, nil
}

// project builds the full view of one job, loading the pieces it embeds.
func (s *JobService) project(ctx context.Context, job *models.Job) (*models.JobView, error) {
	client, err := s.repo.GetClient(ctx, job.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	business, err := s.repo.GetBusiness(ctx, job.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load business: %w", err)
	}
	history, err := s.repo.ListHistory(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	userIDs := make([]uuid.UUID, 0, len(history))
	for _, entry := range history {
		userIDs = append(userIDs, entry.UserID)
	}
	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load history actors: %w", err)
	}
	return assembleView(job, client, business, history, users), nil
}

// assembleView stitches a job, its references and its ledger into the
// wire projection. StartedAt is the timestamp of the first InProgress
// entry, if any.
func assembleView(job *models.Job, client *models.Client, business *models.Business, history []models.HistoryEntry, users map[uuid.UUID]models.User) *models.JobView {
	historyViews := make([]models.HistoryView, 0, len(history))
	var startedAt *time.Time
	for _, entry := range history {
		if startedAt == nil && entry.State == models.InProgress {
			ts := entry.Timestamp
			startedAt = &ts
		}
		user := users[entry.UserID]
		historyViews = append(historyViews, models.HistoryView{
			ID:        entry.ID,
			State:     entry.State,
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
			User:      models.UserSummary{ID: entry.UserID, Name: user.Name},
		})
	}
	return &models.JobView{
		ID:             job.ID,
		BusinessID:     job.BusinessID,
		ClientID:       job.ClientID,
		Description:    job.Description,
		EstimatedPrice: job.EstimatedPrice,
		State:          job.State,
		CreatedAt:      job.CreatedAt,
		StartedAt:      startedAt,
		FinishedAt:     job.FinishedAt,
		Client: models.ClientSummary{
			ID:         client.ID,
			Name:       client.Name,
			Phone:      client.Phone,
			NationalID: client.NationalID,
		},
		Business: models.BusinessSummary{
			ID:   business.ID,
			Name: business.Name,
		},
		History: historyViews,
	}
}

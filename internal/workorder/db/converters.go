package db

import (
	dbmodels "github.com/Luiscraft7/sistema-dn/internal/workorder/db/models"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
)

func businessRecord(b *models.Business) *dbmodels.Business {
	return &dbmodels.Business{
		ID:        b.ID,
		Name:      b.Name,
		Special:   b.Special,
		CreatedAt: b.CreatedAt,
	}
}

func businessModel(rec *dbmodels.Business) *models.Business {
	return &models.Business{
		ID:        rec.ID,
		Name:      rec.Name,
		Special:   rec.Special,
		CreatedAt: rec.CreatedAt,
	}
}

func userRecord(u *models.User) *dbmodels.User {
	return &dbmodels.User{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Role:       string(u.Role),
		BusinessID: u.BusinessID,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
	}
}

func userModel(rec *dbmodels.User) *models.User {
	return &models.User{
		ID:         rec.ID,
		Name:       rec.Name,
		Username:   rec.Username,
		Role:       models.Role(rec.Role),
		BusinessID: rec.BusinessID,
		Active:     rec.Active,
		CreatedAt:  rec.CreatedAt,
	}
}

func clientRecord(c *models.Client) *dbmodels.Client {
	return &dbmodels.Client{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		Note:            c.Note,
		NationalID:      c.NationalID,
		Age:             c.Age,
		SpecialCategory: c.SpecialCategory,
		CreatedAt:       c.CreatedAt,
	}
}

func clientModel(rec *dbmodels.Client) *models.Client {
	return &models.Client{
		ID:              rec.ID,
		Name:            rec.Name,
		Phone:           rec.Phone,
		Note:            rec.Note,
		NationalID:      rec.NationalID,
		Age:             rec.Age,
		SpecialCategory: rec.SpecialCategory,
		CreatedAt:       rec.CreatedAt,
	}
}

func jobRecord(j *models.Job) *dbmodels.Job {
	return &dbmodels.Job{
		ID:             j.ID,
		BusinessID:     j.BusinessID,
		ClientID:       j.ClientID,
		Description:    j.Description,
		EstimatedPrice: j.EstimatedPrice,
		State:          string(j.State),
		CreatedAt:      j.CreatedAt,
		FinishedAt:     j.FinishedAt,
	}
}

func jobModel(rec *dbmodels.Job) *models.Job {
	return &models.Job{
		ID:             rec.ID,
		BusinessID:     rec.BusinessID,
		ClientID:       rec.ClientID,
		Description:    rec.Description,
		EstimatedPrice: rec.EstimatedPrice,
		State:          models.JobState(rec.State),
		CreatedAt:      rec.CreatedAt,
		FinishedAt:     rec.FinishedAt,
	}
}

func historyRecord(h *models.HistoryEntry) *dbmodels.HistoryEntry {
	return &dbmodels.HistoryEntry{
		Seq:       h.Seq,
		ID:        h.ID,
		JobID:     h.JobID,
		State:     string(h.State),
		Note:      h.Note,
		UserID:    h.UserID,
		Timestamp: h.Timestamp,
	}
}

func historyModel(rec *dbmodels.HistoryEntry) *models.HistoryEntry {
	return &models.HistoryEntry{
		Seq:       rec.Seq,
		ID:        rec.ID,
		JobID:     rec.JobID,
		State:     models.JobState(rec.State),
		Note:      rec.Note,
		UserID:    rec.UserID,
		Timestamp: rec.Timestamp,
	}
}

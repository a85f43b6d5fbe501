package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mukamba/internal/database"
)

// Repository handles lead data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates lead repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new lead
func (r *Repository) Create(ctx context.Context, l *Lead) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrLeadExists
		}
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// GetByID retrieves lead by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Lead, error) {
	var l Lead
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns every lead in creation order
func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// Update writes the columns touched by p from the already patched lead
func (r *Repository) Update(ctx context.Context, updated Lead, p Patch) error {
	res := r.db.WithContext(ctx).
		Model(&Lead{ID: updated.ID}).
		Select(p.Columns()).
		Updates(&updated)
	if res.Error != nil {
		return fmt.Errorf("update lead %s: %w", updated.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Delete removes one lead
func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Lead{})
	if res.Error != nil {
		return fmt.Errorf("delete lead %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// DeleteMany removes the listed leads in one transaction
func (r *Repository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Delete(&Lead{}).Error; err != nil {
			return fmt.Errorf("delete leads: %w", err)
		}
		return nil
	})
}

// UpdateMany persists several mutations atomically
func (r *Repository) UpdateMany(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range mutations {
			after := m.After
			if err := tx.Model(&Lead{ID: m.LeadID}).Select(m.Patch.Columns()).Updates(&after).Error; err != nil {
				return fmt.Errorf("update lead %s: %w", m.LeadID, err)
			}
		}
		return nil
	})
}

// CountByStatus returns lead counts by status
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status
		Count  int
	}
	err := r.db.WithContext(ctx).
		Model(&Lead{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// PurgeLost deletes lost leads that entered the lost stage before cutoff
func (r *Repository) PurgeLost(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND stage_entered_at < ?", StatusLost, cutoff).
		Delete(&Lead{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge lost leads: %w", res.Error)
	}
	return res.RowsAffected, nil
}

package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"gorm.io/gorm"
)

type DevelopmentInput struct {
	Name        *string
	Description *string
	Address     *string
	City        *string
	State       *string
	Status      *string
}

func (in DevelopmentInput) apply(d *models.Development) {
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Address != nil {
		d.Address = *in.Address
	}
	if in.City != nil {
		d.City = *in.City
	}
	if in.State != nil {
		d.State = *in.State
	}
	if in.Status != nil {
		d.Status = *in.Status
	}
}

func (s *Store) ListDevelopments(ctx context.Context, userID int64) ([]models.Development, error) {
	var devs []models.Development
	if err := s.conn(ctx).Preload("Units").Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&devs).Error; err != nil {
		return nil, fmt.Errorf("list developments: %w", err)
	}
	return devs, nil
}

func (s *Store) CreateDevelopment(ctx context.Context, userID int64, in DevelopmentInput) (*models.Development, error) {
	d := models.Development{UserID: userID, Status: "planning"}
	in.apply(&d)
	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&d).Error; err != nil {
			return fmt.Errorf("insert development: %w", err)
		}
		return s.logActivity(tx, userID, EntityDevelopment, d.ID, ActionCreated, map[string]interface{}{"name": d.Name})
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) UpdateDevelopment(ctx context.Context, id, userID int64, in DevelopmentInput) (*models.Development, error) {
	var out *models.Development
	err := s.transact(ctx, func(tx *gorm.DB) error {
		d, err := loadOwned(ctx, tx, EntityDevelopment, id, userID, func(d *models.Development) int64 { return d.UserID })
		if err != nil {
			return err
		}
		in.apply(d)
		if err := tx.Save(d).Error; err != nil {
			return fmt.Errorf("update development: %w", err)
		}
		out = d
		return s.logActivity(tx, userID, EntityDevelopment, d.ID, ActionUpdated, nil)
	})
	return out, err
}

// DeleteDevelopment removes the development and its units; properties that
// referenced it are detached, not deleted.
func (s *Store) DeleteDevelopment(ctx context.Context, id, userID int64) error {
	return s.transact(ctx, func(tx *gorm.DB) error {
		d, err := loadOwned(ctx, tx, EntityDevelopment, id, userID, func(d *models.Development) int64 { return d.UserID })
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Property{}).Where("development_id = ?", d.ID).Update("development_id", nil).Error; err != nil {
			return fmt.Errorf("detach properties: %w", err)
		}
		if err := tx.Where("development_id = ?", d.ID).Delete(&models.Unit{}).Error; err != nil {
			return fmt.Errorf("delete units: %w", err)
		}
		if err := tx.Delete(d).Error; err != nil {
			return fmt.Errorf("delete development: %w", err)
		}
		return s.logActivity(tx, userID, EntityDevelopment, d.ID, ActionDeleted, map[string]interface{}{"name": d.Name})
	})
}

func (s *Store) ListUnits(ctx context.Context, developmentID, userID int64) ([]models.Unit, error) {
	if _, err := loadOwned(ctx, s.db, EntityDevelopment, developmentID, userID, func(d *models.Development) int64 { return d.UserID }); err != nil {
		return nil, err
	}
	var units []models.Unit
	if err := s.conn(ctx).Where("development_id = ?", developmentID).Order("identifier asc").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func (s *Store) CreateUnit(ctx context.Context, developmentID, userID int64, u models.Unit) (*models.Unit, error) {
	if _, err := loadOwned(ctx, s.db, EntityDevelopment, developmentID, userID, func(d *models.Development) int64 { return d.UserID }); err != nil {
		return nil, err
	}
	u.ID = 0
	u.DevelopmentID = developmentID
	if u.Status == "" {
		u.Status = "available"
	}
	if err := s.conn(ctx).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("insert unit: %w", err)
	}
	return &u, nil
}

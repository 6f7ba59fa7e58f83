package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PropertyFilter struct {
	Status string
	Page   int
	Limit  int
}

// PropertyInput carries the writable listing fields. Nil pointers are left
// untouched on update.
type PropertyInput struct {
	DevelopmentID *int64
	Title         *string
	Description   *string
	Address       *string
	City          *string
	State         *string
	Type          *string
	Price         *float64
	Bedrooms      *int
	Bathrooms     *int
	Area          *float64
	Images        []string
	Status        *string
}

func (in PropertyInput) apply(p *models.Property) {
	if in.DevelopmentID != nil {
		p.DevelopmentID = in.DevelopmentID
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.State != nil {
		p.State = *in.State
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.Images != nil {
		p.Images = datatypes.JSON(models.NewJSONB(in.Images))
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

func (s *Store) ListProperties(ctx context.Context, userID int64, f PropertyFilter) ([]models.Property, int64, error) {
	page, limit := normalizePage(f.Page, f.Limit, 20)
	q := s.conn(ctx).Model(&models.Property{}).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}
	var props []models.Property
	if err := q.Session(&gorm.Session{}).Order("created_at desc, id desc").
		Offset((page - 1) * limit).Limit(limit).Find(&props).Error; err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	return props, total, nil
}

// GetProperty loads a listing regardless of owner; listings are public.
func (s *Store) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, EntityProperty, id)
	}
	return &p, nil
}

func (s *Store) CreateProperty(ctx context.Context, userID int64, in PropertyInput) (*models.Property, error) {
	ctx, span := tracer.Start(ctx, "Store.CreateProperty")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	p := models.Property{UserID: userID, Status: models.PropertyActive, Images: datatypes.JSON("[]")}
	in.apply(&p)
	if p.DevelopmentID != nil {
		if _, err := loadOwned(ctx, s.db, EntityDevelopment, *p.DevelopmentID, userID, func(d *models.Development) int64 { return d.UserID }); err != nil {
			return nil, err
		}
	}
	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		return s.logActivity(tx, userID, EntityProperty, p.ID, ActionCreated, map[string]interface{}{"title": p.Title})
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("property created", "property_id", p.ID, "user_id", userID)
	return &p, nil
}

func (s *Store) UpdateProperty(ctx context.Context, id, userID int64, in PropertyInput) (*models.Property, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateProperty")
	defer span.End()
	span.SetAttributes(attribute.Int64("property.id", id))

	var out *models.Property
	err := s.transact(ctx, func(tx *gorm.DB) error {
		p, err := loadOwned(ctx, tx, EntityProperty, id, userID, func(p *models.Property) int64 { return p.UserID })
		if err != nil {
			return err
		}
		if in.DevelopmentID != nil {
			if _, err := loadOwned(ctx, tx, EntityDevelopment, *in.DevelopmentID, userID, func(d *models.Development) int64 { return d.UserID }); err != nil {
				return err
			}
		}
		in.apply(p)
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("update property: %w", err)
		}
		out = p
		return s.logActivity(tx, userID, EntityProperty, p.ID, ActionUpdated, map[string]interface{}{"status": p.Status})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProperty removes an owned listing together with its favorites and
// affiliations.
func (s *Store) DeleteProperty(ctx context.Context, id, userID int64) error {
	ctx, span := tracer.Start(ctx, "Store.DeleteProperty")
	defer span.End()
	span.SetAttributes(attribute.Int64("property.id", id))

	return s.transact(ctx, func(tx *gorm.DB) error {
		p, err := loadOwned(ctx, tx, EntityProperty, id, userID, func(p *models.Property) int64 { return p.UserID })
		if err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", p.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := tx.Where("property_id = ?", p.ID).Delete(&models.PropertyAffiliation{}).Error; err != nil {
			return fmt.Errorf("delete affiliations: %w", err)
		}
		if err := tx.Delete(p).Error; err != nil {
			return fmt.Errorf("delete property: %w", err)
		}
		return s.logActivity(tx, userID, EntityProperty, p.ID, ActionDeleted, map[string]interface{}{"title": p.Title})
	})
}

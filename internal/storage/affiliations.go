package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realtycore/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// DefaultCommissionRate applies when an owner enables affiliation without a rate.
const DefaultCommissionRate = 5.0

type MarketplaceQuery struct {
	UserID     int64
	Page       int
	Limit      int
	SearchTerm string
}

type PropertyOwner struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MarketplaceItem struct {
	models.Property
	Owner          PropertyOwner `json:"owner"`
	CommissionRate float64       `json:"commissionRate"`
}

type MarketplacePage struct {
	Items []MarketplaceItem `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func commissionOf(p *models.Property) float64 {
	if p.AffiliationCommissionRate == nil {
		return DefaultCommissionRate
	}
	return *p.AffiliationCommissionRate
}

// GetAffiliateMarketplace lists other users' properties that accept affiliates.
func (s *Store) GetAffiliateMarketplace(ctx context.Context, q MarketplaceQuery) (*MarketplacePage, error) {
	ctx, span := tracer.Start(ctx, "Store.GetAffiliateMarketplace")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", q.UserID), attribute.String("search", q.SearchTerm))

	page, limit := normalizePage(q.Page, q.Limit, 12)
	base := s.conn(ctx).Model(&models.Property{}).
		Where("user_id <> ? AND available_for_affiliation = ?", q.UserID, true)
	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?", like, like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count marketplace: %w", err)
	}
	var props []models.Property
	if err := base.Session(&gorm.Session{}).Order("created_at desc, id desc").
		Offset((page - 1) * limit).Limit(limit).Find(&props).Error; err != nil {
		return nil, fmt.Errorf("list marketplace: %w", err)
	}

	owners, err := s.ownersByID(ctx, props)
	if err != nil {
		return nil, err
	}
	items := make([]MarketplaceItem, 0, len(props))
	for i := range props {
		p := props[i]
		items = append(items, MarketplaceItem{
			Property:       p,
			Owner:          PropertyOwner{ID: p.UserID, Name: owners[p.UserID]},
			CommissionRate: commissionOf(&p),
		})
	}
	return &MarketplacePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Store) ownersByID(ctx context.Context, props []models.Property) (map[int64]string, error) {
	names := make(map[int64]string)
	if len(props) == 0 {
		return names, nil
	}
	ids := make([]int64, 0, len(props))
	for _, p := range props {
		if _, seen := names[p.UserID]; !seen {
			names[p.UserID] = ""
			ids = append(ids, p.UserID)
		}
	}
	var users []models.User
	if err := s.conn(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// RequestAffiliation asks to resell a property. The unique
// (property, affiliate) index turns any second request, whatever the status
// of the first, into ErrDuplicate.
func (s *Store) RequestAffiliation(ctx context.Context, userID, propertyID int64) (*models.PropertyAffiliation, error) {
	ctx, span := tracer.Start(ctx, "Store.RequestAffiliation")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int64("property.id", propertyID))

	var p models.Property
	found, err := s.lookup(ctx, &p, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load property %d: %w", propertyID, err)
	}
	if !found || !p.AvailableForAffiliation {
		s.metrics.IncrAffiliationRequest("not_found")
		return nil, &ErrNotFound{Resource: "affiliable property", ID: propertyID}
	}
	if p.UserID == userID {
		s.metrics.IncrAffiliationRequest("self")
		return nil, &ErrInvalidOperation{Reason: "cannot affiliate to your own property"}
	}

	row := models.PropertyAffiliation{
		PropertyID:     p.ID,
		AffiliateID:    userID,
		OwnerID:        p.UserID,
		Status:         models.StatusPending,
		CommissionRate: commissionOf(&p),
	}
	err = s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return &ErrDuplicate{Key: fmt.Sprintf("affiliation property=%d affiliate=%d", propertyID, userID)}
			}
			return fmt.Errorf("insert affiliation: %w", err)
		}
		return s.logActivity(tx, userID, EntityAffiliation, row.ID, ActionRequested, map[string]interface{}{
			"propertyId": p.ID,
			"ownerId":    p.UserID,
		})
	})
	if err != nil {
		var dup *ErrDuplicate
		if errors.As(err, &dup) {
			s.metrics.IncrAffiliationRequest("duplicate")
		}
		return nil, err
	}
	s.metrics.IncrAffiliationRequest("created")
	s.lg.Infow("affiliation requested", "affiliation_id", row.ID, "property_id", p.ID, "affiliate_id", userID)
	return &row, nil
}

// UpdateAffiliationStatus lets the property owner set any status, from any
// current status.
func (s *Store) UpdateAffiliationStatus(ctx context.Context, affiliationID, userID int64, status string) (*models.PropertyAffiliation, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateAffiliationStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("affiliation.id", affiliationID), attribute.String("status", status))

	var updated *models.PropertyAffiliation
	err := s.transact(ctx, func(tx *gorm.DB) error {
		a, err := loadOwned(ctx, tx, EntityAffiliation, affiliationID, userID, func(a *models.PropertyAffiliation) int64 { return a.OwnerID })
		if err != nil {
			return err
		}
		previous := a.Status
		if err := tx.Model(a).Update("status", status).Error; err != nil {
			return fmt.Errorf("update affiliation status: %w", err)
		}
		a.Status = status
		updated = a
		return s.logActivity(tx, userID, EntityAffiliation, a.ID, ActionStatusChanged, map[string]interface{}{
			"previousStatus": previous,
			"newStatus":      status,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrAffiliationTransition(status)
	s.lg.Infow("affiliation status changed", "affiliation_id", affiliationID, "status", status)
	return updated, nil
}

// AffiliationView is an affiliation with the property it refers to.
type AffiliationView struct {
	models.PropertyAffiliation
	PropertyTitle string `json:"propertyTitle"`
}

// ListAffiliationsForOwner returns requests received on the user's properties.
func (s *Store) ListAffiliationsForOwner(ctx context.Context, userID int64, status string) ([]AffiliationView, error) {
	return s.listAffiliations(ctx, "property_affiliations.owner_id = ?", userID, status)
}

// ListAffiliationsForAffiliate returns the requests the user sent.
func (s *Store) ListAffiliationsForAffiliate(ctx context.Context, userID int64, status string) ([]AffiliationView, error) {
	return s.listAffiliations(ctx, "property_affiliations.affiliate_id = ?", userID, status)
}

func (s *Store) listAffiliations(ctx context.Context, where string, userID int64, status string) ([]AffiliationView, error) {
	q := s.conn(ctx).Table("property_affiliations").
		Select("property_affiliations.*, properties.title AS property_title").
		Joins("LEFT JOIN properties ON properties.id = property_affiliations.property_id").
		Where(where, userID)
	if status != "" {
		q = q.Where("property_affiliations.status = ?", status)
	}
	var out []AffiliationView
	if err := q.Order("property_affiliations.created_at desc, property_affiliations.id desc").Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	return out, nil
}

// SetPropertyAffiliation toggles marketplace exposure of an owned property.
func (s *Store) SetPropertyAffiliation(ctx context.Context, propertyID, userID int64, enabled bool, rate *float64) (*models.Property, error) {
	ctx, span := tracer.Start(ctx, "Store.SetPropertyAffiliation")
	defer span.End()

	var out *models.Property
	err := s.transact(ctx, func(tx *gorm.DB) error {
		p, err := loadOwned(ctx, tx, EntityProperty, propertyID, userID, func(p *models.Property) int64 { return p.UserID })
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"available_for_affiliation": enabled}
		if rate != nil {
			updates["affiliation_commission_rate"] = *rate
		}
		if err := tx.Model(p).Updates(updates).Error; err != nil {
			return fmt.Errorf("update property affiliation: %w", err)
		}
		p.AvailableForAffiliation = enabled
		if rate != nil {
			p.AffiliationCommissionRate = rate
		}
		out = p
		return s.logActivity(tx, userID, EntityProperty, p.ID, ActionUpdated, map[string]interface{}{
			"availableForAffiliation": enabled,
			"commissionRate":          commissionOf(p),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

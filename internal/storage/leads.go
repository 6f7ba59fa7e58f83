package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"gorm.io/gorm"
)

type LeadInput struct {
	PropertyID  *int64
	Name        string
	Email       string
	Phone       string
	Source      string
	Description string
	Stage       string
}

// ListLeads returns the user's leads, newest first, optionally for one stage.
func (s *Store) ListLeads(ctx context.Context, userID int64, stage string) ([]models.Lead, error) {
	q := s.conn(ctx).Where("user_id = ?", userID)
	if stage != "" {
		q = q.Where("stage = ?", stage)
	}
	var leads []models.Lead
	if err := q.Order("created_at desc, id desc").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (s *Store) GetLead(ctx context.Context, leadID, userID int64) (*models.Lead, error) {
	return loadOwned(ctx, s.db, EntityLead, leadID, userID, func(l *models.Lead) int64 { return l.UserID })
}

// CreateLead stores a lead for userID. Without an explicit stage the lead
// lands in the first stage of the user's pipeline.
func (s *Store) CreateLead(ctx context.Context, userID int64, in LeadInput) (*models.Lead, error) {
	ctx, span := tracer.Start(ctx, "Store.CreateLead")
	defer span.End()

	if in.PropertyID != nil {
		if _, err := s.GetProperty(ctx, *in.PropertyID); err != nil {
			return nil, err
		}
	}
	if in.Stage == "" {
		configs, err := s.GetCrmStageConfigs(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(configs) > 0 {
			in.Stage = configs[0].StageID
		}
	}
	lead := models.Lead{
		UserID:      userID,
		PropertyID:  in.PropertyID,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Source:      orDefault(in.Source, "manual"),
		Description: in.Description,
		Stage:       in.Stage,
	}
	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}
		return s.logActivity(tx, userID, EntityLead, lead.ID, ActionCreated, map[string]interface{}{
			"source":     lead.Source,
			"propertyId": lead.PropertyID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("lead created", "lead_id", lead.ID, "user_id", userID, "stage", lead.Stage)
	return &lead, nil
}

// CaptureLead records a lead sent from a public listing page. The lead belongs
// to the owner of the property.
func (s *Store) CaptureLead(ctx context.Context, propertyID int64, in LeadInput) (*models.Lead, error) {
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	in.PropertyID = &p.ID
	in.Source = orDefault(in.Source, "website")
	in.Stage = ""
	return s.CreateLead(ctx, p.UserID, in)
}

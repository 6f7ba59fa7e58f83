package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StageDefinition is the shape shared by persisted configs and the built-in pipeline.
type StageDefinition struct {
	StageID   string `json:"stageId"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"isDefault"`
	IsArchive bool   `json:"isArchive"`
}

// DefaultStages is the pipeline used by users that never customised theirs.
var DefaultStages = []StageDefinition{
	{StageID: "initial_contact", Name: "Initial Contact", Color: "#3B82F6", IsDefault: true},
	{StageID: "qualification", Name: "Qualification", Color: "#8B5CF6", IsDefault: true},
	{StageID: "scheduled_visit", Name: "Scheduled Visit", Color: "#F59E0B", IsDefault: true},
	{StageID: "proposal", Name: "Proposal", Color: "#10B981", IsDefault: true},
	{StageID: "documentation", Name: "Documentation", Color: "#6366F1", IsDefault: true},
	{StageID: "closed", Name: "Closed", Color: "#6B7280", IsArchive: true},
}

// LeadCard is the kanban projection of a lead.
type LeadCard struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Source         string `json:"source"`
	Description    string `json:"description"`
	TimeAgo        string `json:"timeAgo"`
	StageID        string `json:"stageId"`
	UnmatchedStage bool   `json:"unmatchedStage,omitempty"`
}

// StageBucket is one kanban column.
type StageBucket struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	Position  int        `json:"position"`
	IsDefault bool       `json:"isDefault"`
	IsArchive bool       `json:"isArchive"`
	Count     int        `json:"count"`
	Leads     []LeadCard `json:"leads"`
}

func defaultStageConfigs(userID int64) []models.CrmStageConfig {
	out := make([]models.CrmStageConfig, len(DefaultStages))
	for i, d := range DefaultStages {
		out[i] = stageConfigFrom(userID, i, d)
	}
	return out
}

func stageConfigFrom(userID int64, position int, d StageDefinition) models.CrmStageConfig {
	return models.CrmStageConfig{
		UserID:    userID,
		StageID:   d.StageID,
		Name:      d.Name,
		Color:     d.Color,
		Position:  position,
		IsDefault: d.IsDefault,
		IsArchive: d.IsArchive,
	}
}

// GetCrmStageConfigs returns the user's pipeline ordered by position, or the
// built-in defaults (not persisted) when the user has none.
func (s *Store) GetCrmStageConfigs(ctx context.Context, userID int64) ([]models.CrmStageConfig, error) {
	ctx, span := tracer.Start(ctx, "Store.GetCrmStageConfigs")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var configs []models.CrmStageConfig
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("position asc, id asc").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("load stage configs: %w", err)
	}
	if len(configs) == 0 {
		return defaultStageConfigs(userID), nil
	}
	return configs, nil
}

// UpdateCrmStageConfigs replaces the whole pipeline. Positions follow the
// input order. Delete and insert share one transaction, so a failed insert
// leaves the previous pipeline in place.
func (s *Store) UpdateCrmStageConfigs(ctx context.Context, userID int64, stages []StageDefinition) ([]models.CrmStageConfig, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateCrmStageConfigs")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int("stages.count", len(stages)))

	rows := make([]models.CrmStageConfig, len(stages))
	for i, d := range stages {
		rows[i] = stageConfigFrom(userID, i, d)
	}
	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.CrmStageConfig{}).Error; err != nil {
			return fmt.Errorf("delete stage configs: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert stage configs: %w", err)
			}
		}
		return s.logActivity(tx, userID, EntityCrmStages, userID, ActionUpdated, map[string]interface{}{"count": len(rows)})
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("crm stages replaced", "user_id", userID, "count", len(rows))
	return rows, nil
}

// GetCrmStages builds the kanban board. A lead whose stage matches no
// configured stage is shown in the first column and flagged.
func (s *Store) GetCrmStages(ctx context.Context, userID int64) ([]StageBucket, error) {
	ctx, span := tracer.Start(ctx, "Store.GetCrmStages")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var (
		configs []models.CrmStageConfig
		leads   []models.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.GetCrmStageConfigs(gctx, userID)
		configs = c
		return err
	})
	g.Go(func() error {
		if err := s.conn(gctx).Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&leads).Error; err != nil {
			return fmt.Errorf("load leads: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buckets := make([]StageBucket, len(configs))
	index := make(map[string]int, len(configs))
	for i, c := range configs {
		buckets[i] = StageBucket{
			ID:        c.StageID,
			Name:      c.Name,
			Color:     c.Color,
			Position:  c.Position,
			IsDefault: c.IsDefault,
			IsArchive: c.IsArchive,
			Leads:     []LeadCard{},
		}
		if _, dup := index[c.StageID]; !dup {
			index[c.StageID] = i
		}
	}
	if len(buckets) == 0 {
		return buckets, nil
	}

	now := s.now()
	for _, l := range leads {
		i, ok := index[l.Stage]
		if !ok {
			i = 0
		}
		buckets[i].Leads = append(buckets[i].Leads, LeadCard{
			ID:             l.ID,
			Name:           l.Name,
			Source:         l.Source,
			Description:    l.Description,
			TimeAgo:        humanize.RelTime(l.CreatedAt, now, "ago", "from now"),
			StageID:        buckets[i].ID,
			UnmatchedStage: !ok,
		})
		buckets[i].Count++
	}
	return buckets, nil
}

// UpdateLeadStage moves a lead owned by userID. The stage id is not checked
// against the configured pipeline.
func (s *Store) UpdateLeadStage(ctx context.Context, leadID, userID int64, stageID string) (*models.Lead, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateLeadStage")
	defer span.End()
	span.SetAttributes(attribute.Int64("lead.id", leadID), attribute.String("stage.id", stageID))

	var lead *models.Lead
	err := s.transact(ctx, func(tx *gorm.DB) error {
		l, err := loadOwned(ctx, tx, EntityLead, leadID, userID, func(l *models.Lead) int64 { return l.UserID })
		if err != nil {
			return err
		}
		previous := l.Stage
		if err := tx.Model(l).Update("stage", stageID).Error; err != nil {
			return fmt.Errorf("update lead stage: %w", err)
		}
		l.Stage = stageID
		lead = l
		return s.logActivity(tx, userID, EntityLead, l.ID, ActionStageChanged, map[string]interface{}{
			"previousStage": previous,
			"newStage":      stageID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrStageChange()
	s.lg.Infow("lead stage changed", "lead_id", leadID, "user_id", userID, "stage", stageID)
	return lead, nil
}

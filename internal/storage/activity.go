package storage

import (
	"context"
	"fmt"
	"time"

	"realtycore/internal/models"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	EntityProperty    = "property"
	EntityLead        = "lead"
	EntityDocument    = "document"
	EntityAffiliation = "affiliation"
	EntityCrmStages   = "crm_stages"
	EntityDevelopment = "development"
	EntityWebsite     = "website"
)

const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStageChanged  = "stage_changed"
	ActionStatusChanged = "status_changed"
	ActionRequested     = "requested"
)

const (
	recentActivityFetch = 10
	recentActivityLimit = 3
)

// ActivityItem is one entry of the human readable activity feed.
type ActivityItem struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TimeAgo     string    `json:"timeAgo"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LogActivity appends an audit row outside of any transaction.
func (s *Store) LogActivity(ctx context.Context, userID int64, entityType string, entityID int64, action string, md map[string]interface{}) error {
	return s.logActivity(s.conn(ctx), userID, entityType, entityID, action, md)
}

// logActivity writes through db, which may be a transaction opened by
// transact. In that case the counter waits for the commit.
func (s *Store) logActivity(db *gorm.DB, userID int64, entityType string, entityID int64, action string, md map[string]interface{}) error {
	row := models.ActivityLog{
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Metadata:   models.NewJSONB(md),
		CreatedAt:  s.now(),
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("log activity %s/%s: %w", entityType, action, err)
	}
	if pending, ok := db.Statement.Context.Value(pendingActivityKey{}).(*[]pendingActivity); ok {
		*pending = append(*pending, pendingActivity{entityType: entityType, action: action})
		return nil
	}
	s.metrics.IncrActivity(entityType, action)
	return nil
}

// ListActivityLogs returns the raw audit trail, newest first. entityType and
// entityID narrow the result when set.
func (s *Store) ListActivityLogs(ctx context.Context, userID int64, entityType string, entityID int64, limit int) ([]models.ActivityLog, error) {
	_, limit = normalizePage(1, limit, 50)
	q := s.conn(ctx).Order("created_at desc, id desc").Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if entityID != 0 {
		q = q.Where("entity_id = ?", entityID)
	}
	var logs []models.ActivityLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}

// GetRecentActivities reads the last logs of the user and turns the ones it
// recognises into feed items. Logs whose entity is gone, or whose
// (entity, action) pair has no rendering, are skipped.
func (s *Store) GetRecentActivities(ctx context.Context, userID int64) ([]ActivityItem, error) {
	ctx, span := tracer.Start(ctx, "Store.GetRecentActivities")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	logs, err := s.ListActivityLogs(ctx, userID, "", 0, recentActivityFetch)
	if err != nil {
		return nil, err
	}
	items := make([]ActivityItem, 0, recentActivityLimit)
	for _, l := range logs {
		if len(items) == recentActivityLimit {
			break
		}
		item, ok, err := s.describeActivity(ctx, l)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) describeActivity(ctx context.Context, l models.ActivityLog) (ActivityItem, bool, error) {
	item := ActivityItem{
		ID:        l.ID,
		Type:      l.EntityType + "_" + l.Action,
		CreatedAt: l.CreatedAt,
		TimeAgo:   humanize.RelTime(l.CreatedAt, s.now(), "ago", "from now"),
	}
	md := l.Metadata.Decode()

	switch l.EntityType {
	case EntityLead:
		var lead models.Lead
		found, err := s.lookup(ctx, &lead, l.EntityID)
		if err != nil || !found {
			return item, false, err
		}
		switch l.Action {
		case ActionCreated:
			item.Title = "New lead"
			item.Description = fmt.Sprintf("%s arrived via %s", lead.Name, orDefault(lead.Source, "manual entry"))
		case ActionStageChanged:
			item.Title = "Lead moved"
			item.Description = fmt.Sprintf("%s moved to %v", lead.Name, md["newStage"])
		default:
			return item, false, nil
		}
	case EntityDocument:
		var doc models.Document
		found, err := s.lookup(ctx, &doc, l.EntityID)
		if err != nil || !found {
			return item, false, err
		}
		switch l.Action {
		case ActionCreated:
			item.Title = "Document added"
			item.Description = doc.Name
		case ActionStatusChanged:
			item.Title = "Document " + doc.Status
			item.Description = doc.Name
		default:
			return item, false, nil
		}
	case EntityProperty:
		if l.Action != ActionCreated {
			return item, false, nil
		}
		var p models.Property
		found, err := s.lookup(ctx, &p, l.EntityID)
		if err != nil || !found {
			return item, false, err
		}
		item.Title = "Property listed"
		item.Description = p.Title
	case EntityAffiliation:
		var a models.PropertyAffiliation
		found, err := s.lookup(ctx, &a, l.EntityID)
		if err != nil || !found {
			return item, false, err
		}
		var p models.Property
		if _, err := s.lookup(ctx, &p, a.PropertyID); err != nil {
			return item, false, err
		}
		switch l.Action {
		case ActionRequested:
			item.Title = "Affiliation requested"
		case ActionStatusChanged:
			item.Title = "Affiliation " + a.Status
		default:
			return item, false, nil
		}
		item.Description = p.Title
	default:
		return item, false, nil
	}
	return item, true, nil
}

func (s *Store) lookup(ctx context.Context, dst interface{}, id int64) (bool, error) {
	res := s.conn(ctx).Limit(1).Find(dst, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

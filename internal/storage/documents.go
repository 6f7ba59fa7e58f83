package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentInput struct {
	LeadID   *int64
	Name     string
	Type     string
	MimeType string
	Size     int64
}

func (s *Store) ListDocuments(ctx context.Context, userID int64, leadID *int64) ([]models.Document, error) {
	q := s.conn(ctx).Where("user_id = ?", userID)
	if leadID != nil {
		q = q.Where("lead_id = ?", *leadID)
	}
	var docs []models.Document
	if err := q.Order("created_at desc, id desc").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// CreateDocument records document metadata. The returned StorageKey names the
// object in whatever blob store holds the bytes.
func (s *Store) CreateDocument(ctx context.Context, userID int64, in DocumentInput) (*models.Document, error) {
	if in.LeadID != nil {
		if _, err := s.GetLead(ctx, *in.LeadID, userID); err != nil {
			return nil, err
		}
	}
	doc := models.Document{
		UserID:     userID,
		LeadID:     in.LeadID,
		Name:       in.Name,
		Type:       in.Type,
		MimeType:   in.MimeType,
		Size:       in.Size,
		StorageKey: fmt.Sprintf("users/%d/documents/%s", userID, uuid.NewString()),
		Status:     models.StatusPending,
	}
	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return s.logActivity(tx, userID, EntityDocument, doc.ID, ActionCreated, map[string]interface{}{
			"name":   doc.Name,
			"leadId": doc.LeadID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) UpdateDocumentStatus(ctx context.Context, id, userID int64, status string) (*models.Document, error) {
	var out *models.Document
	err := s.transact(ctx, func(tx *gorm.DB) error {
		d, err := loadOwned(ctx, tx, EntityDocument, id, userID, func(d *models.Document) int64 { return d.UserID })
		if err != nil {
			return err
		}
		previous := d.Status
		if err := tx.Model(d).Update("status", status).Error; err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		d.Status = status
		out = d
		return s.logActivity(tx, userID, EntityDocument, d.ID, ActionStatusChanged, map[string]interface{}{
			"previousStatus": previous,
			"newStatus":      status,
		})
	})
	return out, err
}

func (s *Store) DeleteDocument(ctx context.Context, id, userID int64) error {
	return s.transact(ctx, func(tx *gorm.DB) error {
		d, err := loadOwned(ctx, tx, EntityDocument, id, userID, func(d *models.Document) int64 { return d.UserID })
		if err != nil {
			return err
		}
		if err := tx.Delete(d).Error; err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.logActivity(tx, userID, EntityDocument, d.ID, ActionDeleted, map[string]interface{}{"name": d.Name})
	})
}

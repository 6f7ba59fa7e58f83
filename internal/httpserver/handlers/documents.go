package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

func ListDocuments(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var leadID *int64
		if raw := r.URL.Query().Get("leadId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				handleError(w, r, lg, &storage.ErrValidation{Fields: []storage.FieldError{{Field: "leadId", Message: "must be an integer"}}})
				return
			}
			leadID = &id
		}
		docs, err := st.ListDocuments(r.Context(), auth.UserID(r.Context()), leadID)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, docs)
	}
}

type documentReq struct {
	LeadID   *int64 `json:"leadId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

func CreateDocument(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req documentReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(strings.TrimSpace(req.Name) != "", "name", "required")
		f.check(req.Size >= 0, "size", "must not be negative")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		doc, err := st.CreateDocument(r.Context(), auth.UserID(r.Context()), storage.DocumentInput{
			LeadID:   req.LeadID,
			Name:     strings.TrimSpace(req.Name),
			Type:     req.Type,
			MimeType: req.MimeType,
			Size:     req.Size,
		})
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

type documentStatusReq struct {
	Status string `json:"status"`
}

func UpdateDocumentStatus(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req documentStatusReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(oneOf(req.Status, models.StatusPending, models.StatusApproved, models.StatusRejected),
			"status", "must be pending, approved or rejected")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		doc, err := st.UpdateDocumentStatus(r.Context(), id, auth.UserID(r.Context()), req.Status)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, doc)
	}
}

func DeleteDocument(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := st.DeleteDocument(r.Context(), id, auth.UserID(r.Context())); err != nil {
			handleError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"realtycore/internal/auth"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

func GetCrmStages(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buckets, err := st.GetCrmStages(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, buckets)
	}
}

func GetCrmStageConfigs(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configs, err := st.GetCrmStageConfigs(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, configs)
	}
}

type stageConfigReq struct {
	Stages []storage.StageDefinition `json:"stages"`
}

func UpdateCrmStageConfigs(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stageConfigReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.Stages != nil, "stages", "required")
		seen := make(map[string]bool, len(req.Stages))
		for i := range req.Stages {
			s := &req.Stages[i]
			s.StageID = strings.TrimSpace(s.StageID)
			s.Name = strings.TrimSpace(s.Name)
			prefix := fmt.Sprintf("stages[%d].", i)
			f.check(s.StageID != "", prefix+"stageId", "required")
			f.check(s.Name != "", prefix+"name", "required")
			f.check(s.StageID == "" || !seen[s.StageID], prefix+"stageId", "duplicate stage id")
			seen[s.StageID] = true
		}
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		configs, err := st.UpdateCrmStageConfigs(r.Context(), auth.UserID(r.Context()), req.Stages)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, configs)
	}
}

func ListLeads(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leads, err := st.ListLeads(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("stage"))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, leads)
	}
}

type leadReq struct {
	PropertyID  *int64 `json:"propertyId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Stage       string `json:"stage"`
}

func (req leadReq) validate() error {
	var f fields
	f.check(strings.TrimSpace(req.Name) != "", "name", "required")
	f.check(req.Email != "" || req.Phone != "", "email", "email or phone required")
	return f.err()
}

func (req leadReq) input() storage.LeadInput {
	return storage.LeadInput{
		PropertyID:  req.PropertyID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Source:      req.Source,
		Description: req.Description,
		Stage:       req.Stage,
	}
}

func CreateLead(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leadReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := req.validate(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		lead, err := st.CreateLead(r.Context(), auth.UserID(r.Context()), req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

func GetLead(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "leadId")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		lead, err := st.GetLead(r.Context(), id, auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, lead)
	}
}

type leadStageReq struct {
	StageID string `json:"stageId"`
}

func UpdateLeadStage(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "leadId")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req leadStageReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(strings.TrimSpace(req.StageID) != "", "stageId", "required")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		lead, err := st.UpdateLeadStage(r.Context(), id, auth.UserID(r.Context()), strings.TrimSpace(req.StageID))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, lead)
	}
}

// CapturePublicLead accepts contact forms from published listing pages.
func CapturePublicLead(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req leadReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.PropertyID != nil, "propertyId", "required")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := req.validate(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		lead, err := st.CaptureLead(r.Context(), *req.PropertyID, req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": lead.ID})
	}
}

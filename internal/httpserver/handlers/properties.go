package handlers

import (
	"net/http"
	"strings"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

type propertyReq struct {
	DevelopmentID *int64   `json:"developmentId"`
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Address       *string  `json:"address"`
	City          *string  `json:"city"`
	State         *string  `json:"state"`
	Type          *string  `json:"type"`
	Price         *float64 `json:"price"`
	Bedrooms      *int     `json:"bedrooms"`
	Bathrooms     *int     `json:"bathrooms"`
	Area          *float64 `json:"area"`
	Images        []string `json:"images"`
	Status        *string  `json:"status"`
}

func (req propertyReq) validate(creating bool) error {
	var f fields
	if creating || req.Title != nil {
		f.check(req.Title != nil && strings.TrimSpace(*req.Title) != "", "title", "required")
	}
	f.check(req.Price == nil || *req.Price >= 0, "price", "must not be negative")
	f.check(req.Area == nil || *req.Area >= 0, "area", "must not be negative")
	f.check(req.Bedrooms == nil || *req.Bedrooms >= 0, "bedrooms", "must not be negative")
	f.check(req.Bathrooms == nil || *req.Bathrooms >= 0, "bathrooms", "must not be negative")
	f.check(req.Status == nil || oneOf(*req.Status, models.PropertyActive, models.PropertyReserved, models.PropertySold, models.PropertyInactive),
		"status", "must be active, reserved, sold or inactive")
	return f.err()
}

func (req propertyReq) input() storage.PropertyInput {
	return storage.PropertyInput{
		DevelopmentID: req.DevelopmentID,
		Title:         req.Title,
		Description:   req.Description,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Type:          req.Type,
		Price:         req.Price,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		Area:          req.Area,
		Images:        req.Images,
		Status:        req.Status,
	}
}

func ListProperties(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := queryInt(r, "page")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		props, total, err := st.ListProperties(r.Context(), auth.UserID(r.Context()), storage.PropertyFilter{
			Status: r.URL.Query().Get("status"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]interface{}{"items": props, "total": total})
	}
}

func GetProperty(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		p, err := st.GetProperty(r.Context(), id)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func CreateProperty(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req propertyReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := req.validate(true); err != nil {
			handleError(w, r, lg, err)
			return
		}
		p, err := st.CreateProperty(r.Context(), auth.UserID(r.Context()), req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func UpdateProperty(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req propertyReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := req.validate(false); err != nil {
			handleError(w, r, lg, err)
			return
		}
		p, err := st.UpdateProperty(r.Context(), id, auth.UserID(r.Context()), req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func DeleteProperty(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := st.DeleteProperty(r.Context(), id, auth.UserID(r.Context())); err != nil {
			handleError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

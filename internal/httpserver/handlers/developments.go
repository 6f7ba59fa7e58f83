package handlers

import (
	"net/http"
	"strings"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

type developmentReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Status      *string `json:"status"`
}

func (req developmentReq) input() storage.DevelopmentInput {
	return storage.DevelopmentInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Status:      req.Status,
	}
}

func ListDevelopments(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devs, err := st.ListDevelopments(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, devs)
	}
}

func CreateDevelopment(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req developmentReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.Name != nil && strings.TrimSpace(*req.Name) != "", "name", "required")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		d, err := st.CreateDevelopment(r.Context(), auth.UserID(r.Context()), req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func UpdateDevelopment(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req developmentReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.Name == nil || strings.TrimSpace(*req.Name) != "", "name", "must not be empty")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		d, err := st.UpdateDevelopment(r.Context(), id, auth.UserID(r.Context()), req.input())
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, d)
	}
}

func DeleteDevelopment(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		if err := st.DeleteDevelopment(r.Context(), id, auth.UserID(r.Context())); err != nil {
			handleError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListUnits(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		units, err := st.ListUnits(r.Context(), id, auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, units)
	}
}

type unitReq struct {
	Identifier string  `json:"identifier"`
	Floor      int     `json:"floor"`
	Area       float64 `json:"area"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
}

func CreateUnit(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req unitReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(strings.TrimSpace(req.Identifier) != "", "identifier", "required")
		f.check(req.Price >= 0, "price", "must not be negative")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		u, err := st.CreateUnit(r.Context(), id, auth.UserID(r.Context()), models.Unit{
			Identifier: strings.TrimSpace(req.Identifier),
			Floor:      req.Floor,
			Area:       req.Area,
			Price:      req.Price,
			Status:     req.Status,
		})
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

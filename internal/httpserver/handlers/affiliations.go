package handlers

import (
	"net/http"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

func GetMarketplace(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
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
		out, err := st.GetAffiliateMarketplace(r.Context(), storage.MarketplaceQuery{
			UserID:     auth.UserID(r.Context()),
			Page:       page,
			Limit:      limit,
			SearchTerm: r.URL.Query().Get("search"),
		})
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, out)
	}
}

type affiliationReq struct {
	PropertyID int64 `json:"propertyId"`
}

func RequestAffiliation(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req affiliationReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.PropertyID > 0, "propertyId", "must be a positive integer")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		a, err := st.RequestAffiliation(r.Context(), auth.UserID(r.Context()), req.PropertyID)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

type affiliationStatusReq struct {
	Status string `json:"status"`
}

func UpdateAffiliationStatus(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req affiliationStatusReq
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
		a, err := st.UpdateAffiliationStatus(r.Context(), id, auth.UserID(r.Context()), req.Status)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, a)
	}
}

// ListIncomingAffiliations returns requests on the caller's properties.
func ListIncomingAffiliations(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := st.ListAffiliationsForOwner(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("status"))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, out)
	}
}

func ListMyAffiliations(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := st.ListAffiliationsForAffiliate(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("status"))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, out)
	}
}

type propertyAffiliationReq struct {
	Enabled        bool     `json:"enabled"`
	CommissionRate *float64 `json:"commissionRate"`
}

func SetPropertyAffiliation(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		var req propertyAffiliationReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.CommissionRate == nil || (*req.CommissionRate >= 0 && *req.CommissionRate <= 100),
			"commissionRate", "must be between 0 and 100")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		p, err := st.SetPropertyAffiliation(r.Context(), id, auth.UserID(r.Context()), req.Enabled, req.CommissionRate)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

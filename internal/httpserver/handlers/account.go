package handlers

import (
	"net/http"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

func ListFavorites(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		props, err := st.ListFavorites(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, props)
	}
}

func ToggleFavorite(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "propertyId")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		on, err := st.ToggleFavorite(r.Context(), auth.UserID(r.Context()), id)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]interface{}{"propertyId": id, "favorited": on})
	}
}

func GetWebsite(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, err := st.GetWebsite(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, site)
	}
}

func UpdateWebsite(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storage.WebsiteDTO
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		var f fields
		f.check(req.PrimaryColor == "" || isHexColor(req.PrimaryColor), "primaryColor", "must be a #RRGGBB color")
		f.check(req.SecondaryColor == "" || isHexColor(req.SecondaryColor), "secondaryColor", "must be a #RRGGBB color")
		f.check(len(req.Title) <= 120, "title", "must be at most 120 characters")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}
		site, err := st.UpsertWebsite(r.Context(), auth.UserID(r.Context()), req)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, site)
	}
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// RecentActivities is the three-item home page feed.
func RecentActivities(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := st.GetRecentActivities(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, items)
	}
}

// ActivityLogs returns the raw trail. Admins may pass all=1 to see every user.
func ActivityLogs(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		entityID, err := queryInt(r, "entityId")
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		claims := auth.FromContext(r.Context())
		userID := claims.UserID
		if r.URL.Query().Get("all") == "1" && claims.HasRole(models.RoleAdmin) {
			userID = 0
		}
		logs, err := st.ListActivityLogs(r.Context(), userID, r.URL.Query().Get("entityType"), int64(entityID), limit)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}

func Dashboard(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := st.GetDashboardSummary(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, sum)
	}
}

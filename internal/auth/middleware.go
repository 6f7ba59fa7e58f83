package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"realtycore/internal/models"

	"gorm.io/gorm"
)

// Authenticate validates the bearer token against the session table. When
// devUserID is set, requests without an Authorization header run as that user.
func Authenticate(db *gorm.DB, issuer *Issuer, devUserID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" && devUserID != 0 {
				var u models.User
				if err := db.WithContext(r.Context()).First(&u, "id = ?", devUserID).Error; err != nil {
					deny(w, http.StatusUnauthorized, "dev user not found")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), Claims{UserID: u.ID, Role: u.Role})))
				return
			}
			if !strings.HasPrefix(h, "Bearer ") {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := issuer.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}
			var sess models.Session
			if claims.JWTID == "" || db.WithContext(r.Context()).First(&sess, "jti = ?", claims.JWTID).Error != nil {
				deny(w, http.StatusUnauthorized, "session not found")
				return
			}
			if sess.RevokedAt != nil || time.Now().After(sess.ExpiresAt) {
				deny(w, http.StatusUnauthorized, "session expired/revoked")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !FromContext(r.Context()).HasRole(roles...) {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

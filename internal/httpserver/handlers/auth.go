package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type tokenResp struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func Register(st *storage.Store, issuer *auth.Issuer, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		req.Name = strings.TrimSpace(req.Name)
		if req.Role == "" {
			req.Role = models.RoleAgent
		}
		var f fields
		_, mailErr := mail.ParseAddress(req.Email)
		f.check(mailErr == nil, "email", "must be a valid address")
		f.check(len(req.Password) >= auth.MinPasswordLength, "password", "must be at least 8 characters")
		f.check(req.Name != "", "name", "required")
		f.check(oneOf(req.Role, models.RoleAgent, models.RoleClient), "role", "must be agent or client")
		if err := f.err(); err != nil {
			handleError(w, r, lg, err)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		u := &models.User{Email: req.Email, Name: req.Name, Phone: req.Phone, Role: req.Role, PasswordHash: hash}
		if err := st.CreateUser(r.Context(), u); err != nil {
			handleError(w, r, lg, err)
			return
		}
		resp, err := issueSession(r, st, issuer, u)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(st *storage.Store, issuer *auth.Issuer, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, lg, err)
			return
		}
		u, err := st.GetUserByEmail(r.Context(), req.Email)
		var nf *storage.ErrNotFound
		if errors.As(err, &nf) {
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		if auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			lg.Warnw("login rejected", "user_id", u.ID)
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		resp, err := issueSession(r, st, issuer, u)
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, resp)
	}
}

func issueSession(r *http.Request, st *storage.Store, issuer *auth.Issuer, u *models.User) (*tokenResp, error) {
	tok, jti, exp, err := issuer.Sign(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	if err := st.CreateSession(r.Context(), u.ID, jti, exp); err != nil {
		return nil, err
	}
	return &tokenResp{Token: tok, ExpiresAt: exp, User: u}, nil
}

func Logout(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Dev-user requests carry no session to revoke.
		if jti := auth.FromContext(r.Context()).JWTID; jti != "" {
			if err := st.RevokeSession(r.Context(), jti); err != nil {
				handleError(w, r, lg, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Me(st *storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := st.GetUser(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			handleError(w, r, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

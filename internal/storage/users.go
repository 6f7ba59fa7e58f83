package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realtycore/internal/models"
)

// CreateUser inserts an account. The caller supplies the password hash.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = models.RoleAgent
	}
	if err := s.conn(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return &ErrDuplicate{Key: "email " + u.Email}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	s.lg.Infow("user created", "user_id", u.ID, "role", u.Role)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, notFoundOr(err, "user", 0)
	}
	return &u, nil
}

func (s *Store) CreateSession(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	sess := models.Session{JTI: jti, UserID: userID, ExpiresAt: expiresAt, CreatedAt: s.now()}
	if err := s.conn(ctx).Create(&sess).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) RevokeSession(ctx context.Context, jti string) error {
	now := s.now()
	if err := s.conn(ctx).Model(&models.Session{}).Where("jti = ? AND revoked_at IS NULL", jti).Update("revoked_at", &now).Error; err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

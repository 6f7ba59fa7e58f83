package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"realtycore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Session{}))
	return db
}

func TestIssuer_SignVerify(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, jti, exp, err := iss.Sign(42, models.RoleAgent)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	c, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, models.RoleAgent, c.Role)
	assert.Equal(t, jti, c.JWTID)
}

func TestIssuer_RejectsWrongSecretAndExpired(t *testing.T) {
	tok, _, _, err := NewIssuer("a", time.Hour).Sign(1, models.RoleAgent)
	require.NoError(t, err)
	_, err = NewIssuer("b", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	old := NewIssuer("a", time.Minute)
	old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, _, err = old.Sign(1, models.RoleAgent)
	require.NoError(t, err)
	_, err = NewIssuer("a", time.Minute).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "nope"))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticate(t *testing.T) {
	db := setupDB(t)
	u := models.User{Email: "agent@example.com", Name: "Agent", PasswordHash: "x", Role: models.RoleAgent}
	require.NoError(t, db.Create(&u).Error)

	iss := NewIssuer("secret", time.Hour)
	tok, jti, exp, err := iss.Sign(u.ID, u.Role)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Session{JTI: jti, UserID: u.ID, ExpiresAt: exp}).Error)

	var seen int64
	protected := func(dev int64) http.Handler {
		return Authenticate(db, iss, dev)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = UserID(r.Context())
		}))
	}

	t.Run("valid token", func(t *testing.T) {
		seen = 0
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		protected(0).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, u.ID, seen)
	})

	t.Run("missing header without dev user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing header with dev user", func(t *testing.T) {
		seen = 0
		rec := httptest.NewRecorder()
		protected(u.ID).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, u.ID, seen)
	})

	t.Run("revoked session", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, db.Model(&models.Session{}).Where("jti = ?", jti).Update("revoked_at", &now).Error)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		protected(0).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), Claims{UserID: 1, Role: models.RoleAgent})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), Claims{UserID: 1, Role: models.RoleAdmin})))
	assert.Equal(t, http.StatusOK, rec.Code)

	staff := RequireRole(models.RoleAgent, models.RoleAssistant)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec = httptest.NewRecorder()
	staff.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), Claims{UserID: 1, Role: models.RoleAssistant})))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	staff.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), Claims{UserID: 1, Role: models.RoleClient})))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

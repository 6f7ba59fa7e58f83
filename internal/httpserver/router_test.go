package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"realtycore/internal/auth"
	"realtycore/internal/metrics"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	store  *storage.Store
	issuer *auth.Issuer
	router http.Handler
}

func newTestEnv(t *testing.T, devUserID int64) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, storage.Migrate(db))

	m := metrics.New()
	st := storage.New(db, nil, m)
	iss := auth.NewIssuer("test-secret", time.Hour)
	return &testEnv{
		db:     db,
		store:  st,
		issuer: iss,
		router: NewRouter(Deps{Store: st, Issuer: iss, Metrics: m, DevUserID: devUserID}),
	}
}

func (e *testEnv) user(t *testing.T, id int64, role string) string {
	t.Helper()
	u := models.User{ID: id, Email: role + strconv.FormatInt(id, 10) + "@example.com", Name: "User", PasswordHash: "x", Role: role}
	require.NoError(t, e.db.Create(&u).Error)
	tok, jti, exp, err := e.issuer.Sign(id, role)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateSession(context.Background(), id, jti, exp))
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t, 0)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", "", nil).Code)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "realty_http_requests_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodGet, "/api/crm/stages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevUserGetsDefaultBoard(t *testing.T) {
	env := newTestEnv(t, 7)
	env.user(t, 7, models.RoleAgent)

	rec := env.do(t, http.MethodGet, "/api/crm/stages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var buckets []storage.StageBucket
	decode(t, rec, &buckets)
	require.Len(t, buckets, 6)
	ids := make([]string, len(buckets))
	for i, b := range buckets {
		ids[i] = b.ID
		assert.Zero(t, b.Count)
		assert.Empty(t, b.Leads)
	}
	assert.Equal(t, []string{"initial_contact", "qualification", "scheduled_visit", "proposal", "documentation", "closed"}, ids)
	assert.Contains(t, rec.Body.String(), `"leads":[]`)
}

func TestClientRoleIsKeptOutOfCRM(t *testing.T) {
	env := newTestEnv(t, 0)
	tok := env.user(t, 1, models.RoleClient)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/crm/stages", tok, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/favorites", tok, nil).Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Agent@Example.com", "password": "longenough", "name": "Agent",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "agent@example.com", "password": "longenough", "name": "Again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "agent@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "agent@example.com", "password": "longenough"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = env.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decode(t, rec, &me)
	assert.Equal(t, "agent@example.com", me.Email)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/users/me", login.Token, nil).Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, 0)
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Errors []storage.FieldError `json:"errors"`
	}
	decode(t, rec, &body)
	fieldsSeen := map[string]bool{}
	for _, f := range body.Errors {
		fieldsSeen[f.Field] = true
	}
	assert.True(t, fieldsSeen["email"])
	assert.True(t, fieldsSeen["password"])
	assert.True(t, fieldsSeen["name"])
}

func TestStageConfigAndLeadStage(t *testing.T) {
	env := newTestEnv(t, 0)
	owner := env.user(t, 1, models.RoleAgent)
	other := env.user(t, 2, models.RoleAgent)

	rec := env.do(t, http.MethodPut, "/api/crm/stages/config", owner, map[string]interface{}{
		"stages": []map[string]interface{}{{"stageId": "new", "name": ""}, {"stageId": "new", "name": "Dup"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "stages[0].name")
	assert.Contains(t, rec.Body.String(), "duplicate stage id")

	rec = env.do(t, http.MethodPut, "/api/crm/stages/config", owner, map[string]interface{}{
		"stages": []map[string]interface{}{{"stageId": "new", "name": "New"}, {"stageId": "won", "name": "Won", "isArchive": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/crm/leads", owner, map[string]string{"name": "Ana", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var lead models.Lead
	decode(t, rec, &lead)
	assert.Equal(t, "new", lead.Stage)

	path := "/api/crm/leads/" + itoa(lead.ID)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, path, other, map[string]string{"stageId": "won"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, path, owner, map[string]string{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, "/api/crm/leads/9999", owner, map[string]string{"stageId": "won"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, "/api/crm/leads/abc", owner, map[string]string{"stageId": "won"}).Code)

	rec = env.do(t, http.MethodPatch, path, owner, map[string]string{"stageId": "won"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &lead)
	assert.Equal(t, "won", lead.Stage)

	rec = env.do(t, http.MethodGet, "/api/activities?entityType=lead", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.ActivityLog
	decode(t, rec, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "stage_changed", logs[0].Action)
}

func TestAffiliationEndpoints(t *testing.T) {
	env := newTestEnv(t, 0)
	owner := env.user(t, 1, models.RoleAgent)
	affiliate := env.user(t, 2, models.RoleAgent)
	rate := 3.0
	require.NoError(t, env.db.Create(&models.Property{ID: 42, UserID: 1, Title: "Beach", Status: models.PropertyActive, AvailableForAffiliation: true, AffiliationCommissionRate: &rate}).Error)

	rec := env.do(t, http.MethodGet, "/api/affiliate/marketplace", affiliate, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page storage.MarketplacePage
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 12, page.Limit)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/affiliate/marketplace?page=x", affiliate, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/affiliate/request", owner, map[string]int64{"propertyId": 42}).Code)

	rec = env.do(t, http.MethodPost, "/api/affiliate/request", affiliate, map[string]int64{"propertyId": 42})
	require.Equal(t, http.StatusCreated, rec.Code)
	var a models.PropertyAffiliation
	decode(t, rec, &a)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, 3.0, a.CommissionRate)
	assert.Equal(t, int64(1), a.OwnerID)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/affiliate/request", affiliate, map[string]int64{"propertyId": 42}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/affiliate/request", affiliate, map[string]int64{"propertyId": 7}).Code)

	path := "/api/affiliate/" + itoa(a.ID)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, path, owner, map[string]string{"status": "done"}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, path, affiliate, map[string]string{"status": "approved"}).Code)

	rec = env.do(t, http.MethodPatch, path, owner, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &a)
	assert.Equal(t, models.StatusApproved, a.Status)

	rec = env.do(t, http.MethodGet, "/api/affiliate/mine", affiliate, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"propertyTitle":"Beach"`)

	rec = env.do(t, http.MethodPut, "/api/properties/42/affiliation", affiliate, map[string]interface{}{"enabled": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPropertiesAndPublicLead(t *testing.T) {
	env := newTestEnv(t, 0)
	owner := env.user(t, 1, models.RoleAgent)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/properties", owner, map[string]interface{}{"price": -1}).Code)

	rec := env.do(t, http.MethodPost, "/api/properties", owner, map[string]interface{}{"title": "Loft", "price": 250000, "images": []string{"a.jpg"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Property
	decode(t, rec, &p)

	rec = env.do(t, http.MethodGet, "/api/properties/"+itoa(p.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/public/leads", "", map[string]interface{}{"propertyId": p.ID, "name": "Visitor", "phone": "555"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/public/leads", "", map[string]interface{}{"name": "Visitor"}).Code)

	rec = env.do(t, http.MethodGet, "/api/crm/leads", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var leads []models.Lead
	decode(t, rec, &leads)
	require.Len(t, leads, 1)
	assert.Equal(t, "website", leads[0].Source)

	rec = env.do(t, http.MethodPost, "/api/favorites/"+itoa(p.ID), owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"favorited":true`)

	rec = env.do(t, http.MethodGet, "/api/dashboard", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum storage.DashboardSummary
	decode(t, rec, &sum)
	assert.Equal(t, int64(1), sum.ActiveProperties)
	assert.Equal(t, int64(1), sum.Leads)
	assert.Equal(t, int64(1), sum.Favorites)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/properties/"+itoa(p.ID), owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/properties/"+itoa(p.ID), "", nil).Code)
}

func TestWebsiteEndpoints(t *testing.T) {
	env := newTestEnv(t, 0)
	owner := env.user(t, 1, models.RoleAgent)

	rec := env.do(t, http.MethodGet, "/api/users/me/website", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var site storage.WebsiteDTO
	decode(t, rec, &site)
	assert.Equal(t, storage.DefaultWebsite(), site)

	site.Title = "My site"
	site.PrimaryColor = "red"
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/users/me/website", owner, site).Code)

	site.PrimaryColor = "#AA0000"
	rec = env.do(t, http.MethodPut, "/api/users/me/website", owner, site)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &site)
	assert.Equal(t, "My site", site.Title)
	assert.Equal(t, "#AA0000", site.PrimaryColor)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

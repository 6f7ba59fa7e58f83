package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"realtycore/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetRecentActivities_LimitsToThree(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, "agent")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.CreateProperty(ctx, 1, PropertyInput{Title: strPtr(fmt.Sprintf("Listing %d", i))})
		require.NoError(t, err)
	}

	items, err := s.GetRecentActivities(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Listing 4", items[0].Description)
	assert.Equal(t, "property_created", items[0].Type)
	assert.Equal(t, "Property listed", items[0].Title)
	assert.Equal(t, "now", items[0].TimeAgo)
}

func TestGetRecentActivities_SkipsUnmappable(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, "agent")
	ctx := context.Background()

	lead, err := s.CreateLead(ctx, 1, LeadInput{Name: "Gone"})
	require.NoError(t, err)
	require.NoError(t, s.db.Delete(&models.Lead{}, lead.ID).Error)
	_, err = s.UpdateCrmStageConfigs(ctx, 1, DefaultStages)
	require.NoError(t, err)
	_, err = s.CreateLead(ctx, 1, LeadInput{Name: "Kept", Source: "referral"})
	require.NoError(t, err)

	items, err := s.GetRecentActivities(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New lead", items[0].Title)
	assert.Equal(t, "Kept arrived via referral", items[0].Description)
}

func TestGetRecentActivities_OnlyOwnLogs(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, "agent")
	seedUser(t, s, 2, "other")
	ctx := context.Background()
	_, err := s.CreateProperty(ctx, 2, PropertyInput{Title: strPtr("Elsewhere")})
	require.NoError(t, err)

	items, err := s.GetRecentActivities(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestListActivityLogs_Filters(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, "agent")
	ctx := context.Background()
	require.NoError(t, s.LogActivity(ctx, 1, EntityLead, 10, ActionCreated, nil))
	require.NoError(t, s.LogActivity(ctx, 1, EntityLead, 11, ActionCreated, map[string]interface{}{"k": "v"}))
	require.NoError(t, s.LogActivity(ctx, 1, EntityDocument, 10, ActionCreated, nil))

	logs, err := s.ListActivityLogs(ctx, 1, EntityLead, 0, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, int64(11), logs[0].EntityID)
	assert.Equal(t, "v", logs[0].Metadata.Decode()["k"])

	logs, err = s.ListActivityLogs(ctx, 1, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = s.ListActivityLogs(ctx, 1, "", 0, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLogActivity_CountsOnlyCommitted(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, 1, "agent")
	ctx := context.Background()

	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := s.logActivity(tx, 1, EntityLead, 10, ActionCreated, nil); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Zero(t, countRows(t, s, &models.ActivityLog{}, "entity_id = ?", 10))
	n, err := testutil.GatherAndCount(s.metrics.Registry, "realty_activity_logs_total")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.CreateLead(ctx, 1, LeadInput{Name: "Ana"})
	require.NoError(t, err)
	n, err = testutil.GatherAndCount(s.metrics.Registry, "realty_activity_logs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

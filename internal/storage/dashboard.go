package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"

	"golang.org/x/sync/errgroup"
)

type DashboardSummary struct {
	ActiveProperties    int64          `json:"activeProperties"`
	Leads               int64          `json:"leads"`
	PendingAffiliations int64          `json:"pendingAffiliations"`
	Favorites           int64          `json:"favorites"`
	RecentActivities    []ActivityItem `json:"recentActivities"`
}

// GetDashboardSummary gathers the home page counters concurrently.
func (s *Store) GetDashboardSummary(ctx context.Context, userID int64) (*DashboardSummary, error) {
	ctx, span := tracer.Start(ctx, "Store.GetDashboardSummary")
	defer span.End()

	var out DashboardSummary
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, model interface{}, query string, args ...interface{}) {
		g.Go(func() error {
			if err := s.conn(gctx).Model(model).Where(query, args...).Count(dst).Error; err != nil {
				return fmt.Errorf("dashboard count: %w", err)
			}
			return nil
		})
	}
	count(&out.ActiveProperties, &models.Property{}, "user_id = ? AND status = ?", userID, models.PropertyActive)
	count(&out.Leads, &models.Lead{}, "user_id = ?", userID)
	count(&out.PendingAffiliations, &models.PropertyAffiliation{}, "owner_id = ? AND status = ?", userID, models.StatusPending)
	count(&out.Favorites, &models.Favorite{}, "user_id = ?", userID)
	g.Go(func() error {
		items, err := s.GetRecentActivities(gctx, userID)
		out.RecentActivities = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

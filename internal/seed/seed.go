// Package seed creates bootstrap and demo records through the store, so
// seeded data goes through the same rules and activity logging as API writes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realtycore/internal/auth"
	"realtycore/internal/models"
	"realtycore/internal/storage"

	"go.uber.org/zap"
)

// Admin creates an admin account unless one with that email exists.
func Admin(ctx context.Context, st *storage.Store, lg *zap.SugaredLogger, email, password string) (*models.User, error) {
	existing, err := st.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	var nf *storage.ErrNotFound
	if !errors.As(err, &nf) {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("admin password: %w", err)
	}
	u := &models.User{Email: email, Name: "Administrator", PasswordHash: hash, Role: models.RoleAdmin}
	if err := st.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	lg.Infow("seeded admin", "email", u.Email)
	return u, nil
}

// Demo lists the records DemoData created.
type Demo struct {
	Owner      *models.User
	Affiliate  *models.User
	Properties []*models.Property
	Leads      []*models.Lead
}

// DemoData creates two agents, a few listings, leads spread over the default
// pipeline and one pending affiliation request.
func DemoData(ctx context.Context, st *storage.Store, lg *zap.SugaredLogger, password string) (*Demo, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	owner := &models.User{Email: "owner@realtycore.local", Name: "Olivia Owner", PasswordHash: hash, Role: models.RoleAgent}
	affiliate := &models.User{Email: "affiliate@realtycore.local", Name: "Arthur Affiliate", PasswordHash: hash, Role: models.RoleAgent}
	for _, u := range []*models.User{owner, affiliate} {
		if err := st.CreateUser(ctx, u); err != nil {
			return nil, err
		}
	}
	out := &Demo{Owner: owner, Affiliate: affiliate}

	listings := []struct {
		title string
		city  string
		price float64
		rate  *float64
	}{
		{"Sea view apartment", "Florianópolis", 890000, nil},
		{"Downtown loft", "São Paulo", 640000, floatPtr(4)},
		{"Country house", "Campinas", 1200000, floatPtr(6)},
	}
	for _, l := range listings {
		title, city, price := l.title, l.city, l.price
		p, err := st.CreateProperty(ctx, owner.ID, storage.PropertyInput{Title: &title, City: &city, Price: &price})
		if err != nil {
			return nil, err
		}
		if p, err = st.SetPropertyAffiliation(ctx, p.ID, owner.ID, true, l.rate); err != nil {
			return nil, err
		}
		out.Properties = append(out.Properties, p)
	}

	for i, name := range []string{"Beatriz", "Carlos", "Diana", "Eduardo"} {
		stage := storage.DefaultStages[i%len(storage.DefaultStages)].StageID
		lead, err := st.CreateLead(ctx, owner.ID, storage.LeadInput{
			PropertyID: &out.Properties[i%len(out.Properties)].ID,
			Name:       name,
			Email:      fmt.Sprintf("%s@example.com", strings.ToLower(name)),
			Source:     "seed",
			Stage:      stage,
		})
		if err != nil {
			return nil, err
		}
		out.Leads = append(out.Leads, lead)
	}

	if _, err := st.RequestAffiliation(ctx, affiliate.ID, out.Properties[0].ID); err != nil {
		return nil, err
	}
	lg.Infow("seeded demo data", "owner_id", owner.ID, "affiliate_id", affiliate.ID, "properties", len(out.Properties), "leads", len(out.Leads))
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }

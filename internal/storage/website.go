package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"realtycore/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebsiteDTO is the flat shape the site editor reads and writes.
type WebsiteDTO struct {
	Title            string   `json:"title"`
	Domain           string   `json:"domain"`
	Published        bool     `json:"published"`
	PrimaryColor     string   `json:"primaryColor"`
	SecondaryColor   string   `json:"secondaryColor"`
	FontFamily       string   `json:"fontFamily"`
	LogoURL          string   `json:"logoUrl"`
	HeroTitle        string   `json:"heroTitle"`
	HeroSubtitle     string   `json:"heroSubtitle"`
	ShowTestimonials bool     `json:"showTestimonials"`
	Sections         []string `json:"sections"`
}

type websiteTheme struct {
	Colors struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
	} `json:"colors"`
	Typography struct {
		FontFamily string `json:"fontFamily"`
	} `json:"typography"`
	Logo struct {
		URL string `json:"url"`
	} `json:"logo"`
}

type websiteLayout struct {
	Hero struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
	} `json:"hero"`
	Sections     []string `json:"sections"`
	Testimonials struct {
		Enabled bool `json:"enabled"`
	} `json:"testimonials"`
}

// DefaultWebsite is returned to users that never saved a site.
func DefaultWebsite() WebsiteDTO {
	return WebsiteDTO{
		PrimaryColor:     "#1E3A8A",
		SecondaryColor:   "#F59E0B",
		FontFamily:       "Inter",
		HeroTitle:        "Find your next home",
		ShowTestimonials: true,
		Sections:         []string{"hero", "featured", "about", "contact"},
	}
}

// storedTheme and storedLayout decode the documents with pointer leaves so an
// explicitly stored empty value is told apart from a missing key.
type storedTheme struct {
	Colors struct {
		Primary   *string `json:"primary"`
		Secondary *string `json:"secondary"`
	} `json:"colors"`
	Typography struct {
		FontFamily *string `json:"fontFamily"`
	} `json:"typography"`
	Logo struct {
		URL *string `json:"url"`
	} `json:"logo"`
}

type storedLayout struct {
	Hero struct {
		Title    *string `json:"title"`
		Subtitle *string `json:"subtitle"`
	} `json:"hero"`
	Sections     []string `json:"sections"`
	Testimonials struct {
		Enabled *bool `json:"enabled"`
	} `json:"testimonials"`
}

// ToWebsiteDTO flattens the stored theme and layout documents. Keys missing
// from the documents, or documents that fail to parse, fall back to the
// defaults. A key stored with an empty value stays empty.
func ToWebsiteDTO(w models.Website) WebsiteDTO {
	dto := DefaultWebsite()
	dto.Title = w.Title
	dto.Domain = w.Domain
	dto.Published = w.Published

	var theme storedTheme
	if len(w.Theme) > 0 && json.Unmarshal(w.Theme, &theme) == nil {
		setIfPresent(&dto.PrimaryColor, theme.Colors.Primary)
		setIfPresent(&dto.SecondaryColor, theme.Colors.Secondary)
		setIfPresent(&dto.FontFamily, theme.Typography.FontFamily)
		setIfPresent(&dto.LogoURL, theme.Logo.URL)
	}
	var layout storedLayout
	if len(w.Layout) > 0 && json.Unmarshal(w.Layout, &layout) == nil {
		setIfPresent(&dto.HeroTitle, layout.Hero.Title)
		setIfPresent(&dto.HeroSubtitle, layout.Hero.Subtitle)
		if layout.Testimonials.Enabled != nil {
			dto.ShowTestimonials = *layout.Testimonials.Enabled
		}
		if layout.Sections != nil {
			dto.Sections = layout.Sections
		}
	}
	return dto
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// FromWebsiteDTO is the inverse of ToWebsiteDTO.
func FromWebsiteDTO(userID int64, dto WebsiteDTO) (models.Website, error) {
	var theme websiteTheme
	theme.Colors.Primary = dto.PrimaryColor
	theme.Colors.Secondary = dto.SecondaryColor
	theme.Typography.FontFamily = dto.FontFamily
	theme.Logo.URL = dto.LogoURL

	var layout websiteLayout
	layout.Hero.Title = dto.HeroTitle
	layout.Hero.Subtitle = dto.HeroSubtitle
	layout.Sections = dto.Sections
	if layout.Sections == nil {
		layout.Sections = []string{}
	}
	layout.Testimonials.Enabled = dto.ShowTestimonials

	themeJSON, err := json.Marshal(theme)
	if err != nil {
		return models.Website{}, fmt.Errorf("encode theme: %w", err)
	}
	layoutJSON, err := json.Marshal(layout)
	if err != nil {
		return models.Website{}, fmt.Errorf("encode layout: %w", err)
	}
	return models.Website{
		UserID:    userID,
		Title:     dto.Title,
		Domain:    dto.Domain,
		Published: dto.Published,
		Theme:     datatypes.JSON(themeJSON),
		Layout:    datatypes.JSON(layoutJSON),
	}, nil
}

// GetWebsite returns the user's site, or the defaults when none is stored.
func (s *Store) GetWebsite(ctx context.Context, userID int64) (WebsiteDTO, error) {
	var w models.Website
	res := s.conn(ctx).Where("user_id = ?", userID).Limit(1).Find(&w)
	if res.Error != nil {
		return WebsiteDTO{}, fmt.Errorf("load website: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return DefaultWebsite(), nil
	}
	return ToWebsiteDTO(w), nil
}

// UpsertWebsite stores the site; users have at most one.
func (s *Store) UpsertWebsite(ctx context.Context, userID int64, dto WebsiteDTO) (WebsiteDTO, error) {
	w, err := FromWebsiteDTO(userID, dto)
	if err != nil {
		return WebsiteDTO{}, err
	}
	err = s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "domain", "published", "theme", "layout", "updated_at"}),
		}).Create(&w).Error; err != nil {
			return fmt.Errorf("upsert website: %w", err)
		}
		return s.logActivity(tx, userID, EntityWebsite, userID, ActionUpdated, map[string]interface{}{"published": w.Published})
	})
	if err != nil {
		return WebsiteDTO{}, err
	}
	return ToWebsiteDTO(w), nil
}

package storage

import (
	"context"
	"fmt"

	"realtycore/internal/models"
)

// ToggleFavorite adds the property to the user's favorites, or removes it if
// already there. It reports the resulting state.
func (s *Store) ToggleFavorite(ctx context.Context, userID, propertyID int64) (bool, error) {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return false, err
	}
	res := s.conn(ctx).Where("user_id = ? AND property_id = ?", userID, propertyID).Delete(&models.Favorite{})
	if res.Error != nil {
		return false, fmt.Errorf("delete favorite: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	fav := models.Favorite{UserID: userID, PropertyID: propertyID}
	if err := s.conn(ctx).Create(&fav).Error; err != nil {
		// A concurrent toggle already inserted it.
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("insert favorite: %w", err)
	}
	return true, nil
}

func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]models.Property, error) {
	var props []models.Property
	err := s.conn(ctx).
		Joins("JOIN favorites ON favorites.property_id = properties.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at desc, favorites.id desc").
		Find(&props).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return props, nil
}

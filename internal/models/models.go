package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAgent     = "agent"
	RoleAdmin     = "admin"
	RoleAssistant = "assistant"
	RoleClient    = "client"
)

const (
	PropertyActive   = "active"
	PropertyReserved = "reserved"
	PropertySold     = "sold"
	PropertyInactive = "inactive"
)

// Affiliation and document review share the same three states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type User struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email                 string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                  string     `gorm:"not null" json:"name"`
	PasswordHash          string     `gorm:"not null" json:"-"`
	Role                  string     `gorm:"not null;default:agent" json:"role"`
	ParentID              *int64     `gorm:"index" json:"parentId,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	SubscriptionPlan      string     `gorm:"not null;default:free" json:"subscriptionPlan"`
	SubscriptionStatus    string     `gorm:"not null;default:active" json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type Development struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Status      string    `gorm:"not null;default:planning" json:"status"`
	Units       []Unit    `gorm:"constraint:OnDelete:CASCADE" json:"units,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Unit struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DevelopmentID int64     `gorm:"index;not null" json:"developmentId"`
	Identifier    string    `gorm:"not null" json:"identifier"`
	Floor         int       `json:"floor"`
	Area          float64   `json:"area"`
	Price         float64   `json:"price"`
	Status        string    `gorm:"not null;default:available" json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Property struct {
	ID                        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                    int64          `gorm:"index;not null" json:"userId"`
	DevelopmentID             *int64         `gorm:"index" json:"developmentId,omitempty"`
	Title                     string         `gorm:"not null" json:"title"`
	Description               string         `json:"description"`
	Address                   string         `json:"address"`
	City                      string         `json:"city"`
	State                     string         `json:"state"`
	Type                      string         `json:"type"`
	Price                     float64        `json:"price"`
	Bedrooms                  int            `json:"bedrooms"`
	Bathrooms                 int            `json:"bathrooms"`
	Area                      float64        `json:"area"`
	Images                    datatypes.JSON `json:"images"`
	Status                    string         `gorm:"not null;default:active" json:"status"`
	AvailableForAffiliation   bool           `gorm:"not null;default:false" json:"availableForAffiliation"`
	AffiliationCommissionRate *float64       `json:"affiliationCommissionRate,omitempty"`
	CreatedAt                 time.Time      `json:"createdAt"`
	UpdatedAt                 time.Time      `json:"updatedAt"`
}

type Lead struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	PropertyID  *int64    `gorm:"index" json:"propertyId,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	Stage       string    `gorm:"index" json:"stage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CrmStageConfig struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	StageID   string    `gorm:"not null" json:"stageId"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	Position  int       `gorm:"not null" json:"position"`
	IsDefault bool      `gorm:"not null;default:false" json:"isDefault"`
	IsArchive bool      `gorm:"not null;default:false" json:"isArchive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PropertyAffiliation struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID     int64     `gorm:"not null;uniqueIndex:idx_affiliation_property_affiliate,priority:1" json:"propertyId"`
	AffiliateID    int64     `gorm:"not null;uniqueIndex:idx_affiliation_property_affiliate,priority:2;index" json:"affiliateId"`
	OwnerID        int64     `gorm:"not null;index" json:"ownerId"`
	Status         string    `gorm:"not null;default:pending" json:"status"`
	CommissionRate float64   `gorm:"not null" json:"commissionRate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Document struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"index;not null" json:"userId"`
	LeadID     *int64    `gorm:"index" json:"leadId,omitempty"`
	Name       string    `gorm:"not null" json:"name"`
	Type       string    `json:"type"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	StorageKey string    `gorm:"uniqueIndex;not null" json:"storageKey"`
	Status     string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ActivityLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"index;not null" json:"userId"`
	EntityType string    `gorm:"not null;index:idx_activity_entity,priority:1" json:"entityType"`
	EntityID   int64     `gorm:"not null;index:idx_activity_entity,priority:2" json:"entityId"`
	Action     string    `gorm:"not null" json:"action"`
	Metadata   JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

type Website struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64          `gorm:"uniqueIndex;not null" json:"userId"`
	Title     string         `json:"title"`
	Domain    string         `json:"domain"`
	Theme     datatypes.JSON `json:"theme"`
	Layout    datatypes.JSON `json:"layout"`
	Published bool           `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type Favorite struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_favorite_user_property,priority:1" json:"userId"`
	PropertyID int64     `gorm:"not null;uniqueIndex:idx_favorite_user_property,priority:2" json:"propertyId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    int64      `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{}, &Session{}, &Development{}, &Unit{}, &Property{}, &Lead{},
		&CrmStageConfig{}, &PropertyAffiliation{}, &Document{}, &ActivityLog{},
		&Website{}, &Favorite{},
	}
}

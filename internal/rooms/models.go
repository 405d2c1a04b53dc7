package rooms

import (
	"time"

	"github.com/google/uuid"
)

// Room defines the bookable inventory aggregate. TotalUnits is the per-night
// capacity unless an override says otherwise.
type Room struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(200);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	TotalUnits   int       `gorm:"not null;default:1" json:"total_units"`
	DefaultPrice float64   `gorm:"not null" json:"default_price"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Overrides []RoomAvailabilityOverride `json:"overrides,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE;"`
}

// RoomAvailabilityOverride is a manual per-date calendar entry. When
// AvailableCount is set it is the authoritative effective inventory for that
// date and may legitimately exceed TotalUnits; when unset and
// IsAvailable=false the date is hard-blocked.
type RoomAvailabilityOverride struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RoomID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_override_room_date" json:"room_id"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:idx_override_room_date" json:"date"`
	IsAvailable    bool      `gorm:"not null;default:true" json:"is_available"`
	OverridePrice  *float64  `json:"override_price,omitempty"`
	AvailableCount *int      `json:"available_count,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Room
func (Room) TableName() string {
	return "rooms"
}

// TableName sets the table name for RoomAvailabilityOverride
func (RoomAvailabilityOverride) TableName() string {
	return "room_availability_overrides"
}

// EffectiveInventory resolves the authoritative unit count for the override's
// date. AvailableCount wins over everything, including IsAvailable, and is
// never clamped to TotalUnits.
func (o *RoomAvailabilityOverride) EffectiveInventory(totalUnits int) int {
	if o.AvailableCount != nil {
		return *o.AvailableCount
	}
	if !o.IsAvailable {
		return 0
	}
	return totalUnits
}

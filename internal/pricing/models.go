package pricing

import (
	"time"

	"roomly/internal/shared/utils/dates"

	"github.com/google/uuid"
)

// RuleType classifies a pricing rule's matching behavior
type RuleType string

const (
	RuleTypeDefault      RuleType = "DEFAULT"
	RuleTypeWeekend      RuleType = "WEEKEND"
	RuleTypeHoliday      RuleType = "HOLIDAY"
	RuleTypeSeasonal     RuleType = "SEASONAL"
	RuleTypeSpecialEvent RuleType = "SPECIAL_EVENT"
	RuleTypeLongStay     RuleType = "LONG_STAY"
)

// IsValid checks if the rule type is valid
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeDefault, RuleTypeWeekend, RuleTypeHoliday, RuleTypeSeasonal, RuleTypeSpecialEvent, RuleTypeLongStay:
		return true
	}
	return false
}

// String returns the string representation of RuleType
func (t RuleType) String() string {
	return string(t)
}

// RoomPricingRule prices a room's nights when it matches the date. Among
// matching rules the highest Priority wins; ties break by most recent
// CreatedAt, then by rule ID, so resolution is deterministic.
type RoomPricingRule struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RoomID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"room_id"`
	RuleType      RuleType   `gorm:"type:varchar(20);not null" json:"rule_type"`
	DayOfWeek     *int       `json:"day_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	StartDate     *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	FixedPrice    float64    `gorm:"not null" json:"fixed_price"`
	Priority      int        `gorm:"not null;default:0" json:"priority"`
	MinimumNights int        `gorm:"not null;default:0" json:"minimum_nights"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HolidayCalendar marks dates whose multiplier applies when no override price
// and no pricing rule take precedence
type HolidayCalendar struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Date            time.Time `gorm:"type:date;not null;index" json:"date"`
	Country         string    `gorm:"type:varchar(2);not null;default:'US'" json:"country"`
	Name            string    `gorm:"type:varchar(200)" json:"name"`
	PriceMultiplier float64   `gorm:"not null;default:1.0" json:"price_multiplier"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// PriceBand classifies rooms for cheap search pre-filtering
const (
	PriceBandBudget   = "BUDGET"
	PriceBandStandard = "STANDARD"
	PriceBandPremium  = "PREMIUM"
	PriceBandLuxury   = "LUXURY"
)

// RoomPriceCache holds precomputed rolling price statistics per room. It is a
// read-only fast path for search, rebuilt on pricing rule or override change.
type RoomPriceCache struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RoomID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"room_id"`
	MinPrice30     float64   `json:"min_price_30"`
	MaxPrice30     float64   `json:"max_price_30"`
	AvgPrice30     float64   `json:"avg_price_30"`
	MinPrice90     float64   `json:"min_price_90"`
	MaxPrice90     float64   `json:"max_price_90"`
	AvgPrice90     float64   `json:"avg_price_90"`
	PriceBand      string    `gorm:"type:varchar(20)" json:"price_band"`
	DataValidUntil time.Time `json:"data_valid_until"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName sets the table name for RoomPricingRule
func (RoomPricingRule) TableName() string {
	return "room_pricing_rules"
}

// TableName sets the table name for HolidayCalendar
func (HolidayCalendar) TableName() string {
	return "holiday_calendar"
}

// TableName sets the table name for RoomPriceCache
func (RoomPriceCache) TableName() string {
	return "room_price_cache"
}

// IsValidForDate reports whether the rule applies to a stay night. Weekend
// rules match by day of week, Seasonal and SpecialEvent by date range
// containment, LongStay by the stay's night count against MinimumNights.
func (r *RoomPricingRule) IsValidForDate(date time.Time, stayNights int) bool {
	if !r.IsActive {
		return false
	}

	day := dates.Normalize(date)

	// An explicit date window restricts every rule type
	if r.StartDate != nil && day.Before(dates.Normalize(*r.StartDate)) {
		return false
	}
	if r.EndDate != nil && !day.Before(dates.Normalize(*r.EndDate)) {
		return false
	}

	switch r.RuleType {
	case RuleTypeWeekend:
		if r.DayOfWeek != nil {
			return int(day.Weekday()) == *r.DayOfWeek
		}
		return day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
	case RuleTypeSeasonal, RuleTypeSpecialEvent:
		// Containment is enforced by the date window above; a seasonal rule
		// without a window never matches
		return r.StartDate != nil && r.EndDate != nil
	case RuleTypeLongStay:
		return r.MinimumNights > 0 && stayNights >= r.MinimumNights
	case RuleTypeDefault, RuleTypeHoliday:
		return true
	}

	return false
}

// IsExpired reports whether the cached price band data is stale
func (c *RoomPriceCache) IsExpired(now time.Time) bool {
	return now.After(c.DataValidUntil)
}

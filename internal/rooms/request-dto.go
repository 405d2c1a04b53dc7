package rooms

// BulkAvailabilityRequest sets one override shape across many dates
type BulkAvailabilityRequest struct {
	Dates          []string `json:"dates" binding:"required" validate:"required,min=1,dive,datetime=2006-01-02"`
	IsAvailable    bool     `json:"is_available"`
	OverridePrice  *float64 `json:"override_price,omitempty"`
	AvailableCount *int     `json:"available_count,omitempty"`
}

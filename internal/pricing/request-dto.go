package pricing

// CreateRuleRequest creates a pricing rule for a room
type CreateRuleRequest struct {
	RoomID        string  `json:"room_id" binding:"required,uuid"`
	RuleType      string  `json:"rule_type" binding:"required"`
	DayOfWeek     *int    `json:"day_of_week,omitempty" binding:"omitempty,min=0,max=6"`
	StartDate     string  `json:"start_date,omitempty"`
	EndDate       string  `json:"end_date,omitempty"`
	FixedPrice    float64 `json:"fixed_price" binding:"required"`
	Priority      int     `json:"priority"`
	MinimumNights int     `json:"minimum_nights"`
}

package reservations

// CreateReservationRequest starts a timed hold on a room's date range
type CreateReservationRequest struct {
	RoomID   string `json:"room_id" validate:"required,uuid"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1,max=10"`
}

// CheckAvailabilityRequest is the query shape for availability lookups
type CheckAvailabilityRequest struct {
	RoomID   string `form:"room_id" validate:"required,uuid"`
	CheckIn  string `form:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" validate:"required,datetime=2006-01-02"`
	Quantity int    `form:"quantity" validate:"omitempty,min=1,max=10"`
}

// SearchUnavailableRequest asks which rooms cannot host a stay. An empty
// RoomIDs list means check every active room.
type SearchUnavailableRequest struct {
	CheckIn  string   `form:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string   `form:"check_out" validate:"required,datetime=2006-01-02"`
	Quantity int      `form:"quantity" validate:"omitempty,min=1,max=10"`
	RoomIDs  []string `form:"room_ids" validate:"omitempty,dive,uuid"`
}

// ConfirmReservationRequest carries the payment reference recorded at
// confirmation; gateway verification happens upstream
type ConfirmReservationRequest struct {
	PaymentReference string `json:"payment_reference" validate:"omitempty,max=128"`
}

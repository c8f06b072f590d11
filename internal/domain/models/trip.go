package models

// Trip is a user-created record of a planned journey.
type Trip struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"-"`
	TripName    string  `json:"trip_name"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	Budget      float64 `json:"budget"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// TripUpdate holds the fields of an update-trip call; nil keeps the stored value.
type TripUpdate struct {
	TripName    *string
	Destination *string
	StartDate   *string
	EndDate     *string
	Budget      *float64
	Latitude    *float64
	Longitude   *float64
}

// IsEmpty reports whether the update changes nothing.
func (u TripUpdate) IsEmpty() bool {
	return u.TripName == nil && u.Destination == nil && u.StartDate == nil && u.EndDate == nil &&
		u.Budget == nil && u.Latitude == nil && u.Longitude == nil
}

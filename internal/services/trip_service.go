package services

import (
	"strings"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/geo"
	"smarttravel/internal/repositories"
	"smarttravel/internal/utils"
)

type TripService struct {
	Trips     repositories.TripRepository
	RequestID string
}

// TripInput is the add-trip payload after decoding.
type TripInput struct {
	TripName    string
	Destination string
	StartDate   string
	EndDate     string
	Budget      float64
	Latitude    float64
	Longitude   float64
}

func (s TripService) Add(userID int64, in TripInput) (int64, error) {
	in.TripName = utils.NormalizeSpace(in.TripName)
	in.Destination = utils.NormalizeSpace(in.Destination)
	if in.TripName == "" || in.Destination == "" || !(geo.Point{Lat: in.Latitude, Lon: in.Longitude}).Valid() {
		return 0, domain.ValidationError{Msg: "Trip name, destination, and location are required"}
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return 0, err
	}
	if in.Budget < 0 {
		return 0, domain.ValidationError{Field: "budget", Msg: "budget cannot be negative"}
	}

	id, err := s.Trips.Create(models.Trip{
		UserID:      userID,
		TripName:    in.TripName,
		Destination: in.Destination,
		StartDate:   strings.TrimSpace(in.StartDate),
		EndDate:     strings.TrimSpace(in.EndDate),
		Budget:      in.Budget,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	})
	if err != nil {
		return 0, domain.InternalError{Msg: "Failed to add trip", Err: err}
	}
	utils.LogEventf(s.RequestID, "trips", "add", "user_id=%d trip_id=%d", userID, id)
	return id, nil
}

func (s TripService) List(userID int64) ([]models.Trip, error) {
	return s.Trips.ListByUser(userID)
}

// Get returns a trip owned by userID.
func (s TripService) Get(userID, tripID int64) (models.Trip, error) {
	if tripID <= 0 {
		return models.Trip{}, domain.ValidationError{Field: "trip_id", Msg: "trip_id required"}
	}
	trip, err := s.Trips.GetByID(tripID)
	return ownedTrip(userID, trip, err)
}

// ownedTrip maps a trip lookup result to the caller-facing not found and
// forbidden errors.
func ownedTrip(userID int64, trip models.Trip, err error) (models.Trip, error) {
	if err != nil {
		if domain.IsNotFound(err) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip", Msg: "Trip not found", Err: err}
		}
		return models.Trip{}, err
	}
	if trip.UserID != userID {
		return models.Trip{}, domain.ForbiddenError{Resource: "trip", Msg: "Not authorized"}
	}
	return trip, nil
}

// Update applies a partial update in one statement; nil fields keep their values.
func (s TripService) Update(userID, tripID int64, u models.TripUpdate) error {
	current, err := s.Get(userID, tripID)
	if err != nil {
		return err
	}
	if u.IsEmpty() {
		return nil
	}
	if u.TripName != nil && utils.NormalizeSpace(*u.TripName) == "" {
		return domain.ValidationError{Field: "trip_name", Msg: "trip name cannot be empty"}
	}
	if u.Destination != nil && utils.NormalizeSpace(*u.Destination) == "" {
		return domain.ValidationError{Field: "destination", Msg: "destination cannot be empty"}
	}

	start, end := current.StartDate, current.EndDate
	if u.StartDate != nil {
		start = *u.StartDate
	}
	if u.EndDate != nil {
		end = *u.EndDate
	}
	if err := validateDates(start, end); err != nil {
		return err
	}

	ok, err := s.Trips.Update(tripID, u)
	if err != nil {
		return domain.InternalError{Msg: "Update failed", Err: err}
	}
	if !ok {
		return domain.NotFoundError{Resource: "trip", Msg: "Trip not found"}
	}
	utils.LogEventf(s.RequestID, "trips", "update", "user_id=%d trip_id=%d", userID, tripID)
	return nil
}

// Delete removes a trip owned by userID.
func (s TripService) Delete(userID, tripID int64) error {
	if tripID <= 0 {
		return domain.ValidationError{Field: "trip_id", Msg: "No trip id provided"}
	}
	ok, err := s.Trips.Delete(tripID, userID)
	if err != nil {
		return domain.InternalError{Msg: "Failed to delete trip", Err: err}
	}
	if !ok {
		return domain.NotFoundError{Resource: "trip", Msg: "Trip not found or not authorized"}
	}
	utils.LogEventf(s.RequestID, "trips", "delete", "user_id=%d trip_id=%d", userID, tripID)
	return nil
}

// SetBudget writes an estimated budget back to a trip owned by userID.
func (s TripService) SetBudget(userID, tripID int64, budget float64) error {
	ok, err := s.Trips.SetBudget(tripID, userID, budget)
	if err != nil {
		return domain.InternalError{Msg: "Failed to save budget", Err: err}
	}
	if !ok {
		return domain.NotFoundError{Resource: "trip", Msg: "Trip not found or not authorized"}
	}
	return nil
}

func validateDates(start, end string) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	var err error
	if start != "" {
		if _, err = utils.ParseDate(start); err != nil {
			return domain.ValidationError{Field: "start_date", Msg: "start_date must be YYYY-MM-DD"}
		}
	}
	if end != "" {
		if _, err = utils.ParseDate(end); err != nil {
			return domain.ValidationError{Field: "end_date", Msg: "end_date must be YYYY-MM-DD"}
		}
	}
	if start != "" && end != "" && end < start {
		return domain.ValidationError{Field: "end_date", Msg: "end_date cannot be before start_date"}
	}
	return nil
}

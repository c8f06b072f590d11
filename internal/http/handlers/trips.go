package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
	"smarttravel/internal/domain/models"
	"smarttravel/internal/services"
)

type addTripRequest struct {
	TripName    string  `json:"trip_name"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Budget      float64 `json:"budget"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// updateTripRequest uses pointers so absent keys keep the stored values.
type updateTripRequest struct {
	TripID      json.RawMessage `json:"trip_id"`
	TripName    *string         `json:"trip_name"`
	Destination *string         `json:"destination"`
	StartDate   *string         `json:"start_date"`
	EndDate     *string         `json:"end_date"`
	Budget      *float64        `json:"budget"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
}

type tripIDRequest struct {
	TripID json.RawMessage `json:"trip_id"`
}

// POST /add-trip
func (a *App) AddTrip(c *gin.Context) {
	var req addTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	_, err := a.tripService(c).Add(int64(currentUserID(c)), services.TripInput{
		TripName:    req.TripName,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"message": "Trip added successfully!"})
}

// GET /get-trips
func (a *App) GetTrips(c *gin.Context) {
	trips, err := a.tripService(c).List(int64(currentUserID(c)))
	if err != nil {
		RespondDomainError(c, domain.InternalError{Msg: "Failed to load trips", Err: err})
		return
	}
	RespondSuccess(c, gin.H{"trips": trips})
}

// POST /update-trip
func (a *App) UpdateTrip(c *gin.Context) {
	var req updateTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	tripID, err := decodeTripID(req.TripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	err = a.tripService(c).Update(int64(currentUserID(c)), tripID, models.TripUpdate{
		TripName:    req.TripName,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"message": "Trip updated successfully"})
}

// POST /delete-trip
func (a *App) DeleteTrip(c *gin.Context) {
	var req tripIDRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	tripID, err := decodeTripID(req.TripID)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "trip_id", Msg: "No trip id provided"})
		return
	}
	userID := currentUserID(c)
	if err := a.tripService(c).Delete(int64(userID), tripID); err != nil {
		RespondDomainError(c, err)
		return
	}
	// A deleted trip cannot stay selected for tracking.
	if snap := a.Sessions.Get(userID).Snapshot(); snap.Tracking.SelectedTrip != nil && snap.Tracking.SelectedTrip.ID == tripID {
		a.Sessions.Get(userID).Stop(true)
	}
	RespondSuccess(c, gin.H{"message": "Trip deleted successfully"})
}

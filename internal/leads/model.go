package leads

import (
	"strings"
	"time"
)

// Lead statuses walk the sales funnel in order.
const (
	StatusNew            = "new"
	StatusContacted      = "contacted"
	StatusEngaged        = "engaged"
	StatusAppointmentSet = "appointment_set"
	StatusClosedWon      = "closed_won"
	StatusClosedLost     = "closed_lost"
)

// Lead represents a prospective customer captured from a web form or a
// third-party listing site.
type Lead struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	VehicleInterest string    `json:"vehicle_interest"`
	Message         string    `json:"message"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateLeadRequest represents the request body for creating a lead.
type CreateLeadRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	VehicleInterest string `json:"vehicle_interest"`
	Message         string `json:"message"`
	Source          string `json:"source"`
}

// Validate checks the request has enough to create a workable lead.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case StatusNew, StatusContacted, StatusEngaged, StatusAppointmentSet, StatusClosedWon, StatusClosedLost:
		return true
	}
	return false
}

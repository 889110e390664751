package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Service is a bookable offering. StartTime and EndTime bound the daily
// operating window as 24h wall-clock strings ("09:00"). Inactive services are
// hidden from booking but kept for their historical appointments.
type Service struct {
	Base
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Duration    int     `db:"duration" json:"duration"` // in minutes
	Price       float64 `db:"price" json:"price"`
	Category    string  `db:"category" json:"category"`
	Days        DaySet  `db:"available_days" json:"available_days"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
	Active      bool    `db:"active" json:"active"`
}

// MinutesOfDay parses an "HH:MM" wall-clock string into minutes since
// midnight.
func MinutesOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

// Validate checks the invariants admins can violate through the catalog API.
func (s *Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if s.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("at least one available day is required")
	}
	start, err := MinutesOfDay(s.StartTime)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := MinutesOfDay(s.EndTime)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}

type CreateServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Duration    int     `json:"duration" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"gte=0"`
	Category    string  `json:"category"`
	Days        string  `json:"available_days" binding:"required,dayset"`
	StartTime   string  `json:"start_time" binding:"required,hhmm"`
	EndTime     string  `json:"end_time" binding:"required,hhmm"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Days        *string  `json:"available_days"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Active      *bool    `json:"active"`
}

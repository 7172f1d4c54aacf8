package events

import "time"

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the lifecycle record published to the booking events topic.
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	BookingID  string    `json:"bookingId"`
	TourID     string    `json:"tourId"`
	Status     string    `json:"status"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"totalPrice"`
}

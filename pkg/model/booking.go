package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TourID     string    `json:"tourId" bson:"tour_id" validate:"required,mongodb"`
	FullName   string    `json:"fullName" bson:"full_name" validate:"required,min=2,max=100"`
	Email      string    `json:"email" bson:"email" validate:"required,email"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=30"`
	Guests     int       `json:"guests" bson:"guests" validate:"required,min=1"`
	Date       time.Time `json:"date" bson:"date" validate:"required"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
	Status     string    `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
	TotalPrice float64   `json:"totalPrice" bson:"total_price" validate:"omitempty,gte=0"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at" validate:"omitempty"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updated_at" validate:"omitempty"`
}

// BookingWithTour joins a booking with its referenced catalog record for read accessors.
type BookingWithTour struct {
	Booking `bson:",inline"`
	Tour    *Tour `json:"tour,omitempty" bson:"tour,omitempty"`
}

// BookingListResult is a page of bookings, each joined with its tour.
type BookingListResult struct {
	Bookings   []*BookingWithTour `json:"bookings"`
	Pagination Pagination         `json:"pagination"`
}

// BookingReceipt is the creation response: the persisted booking plus one
// nullable delivery reference per notification attempt (customer, operator).
type BookingReceipt struct {
	Booking      *Booking  `json:"booking"`
	EmailResults []*string `json:"emailResults"`
}

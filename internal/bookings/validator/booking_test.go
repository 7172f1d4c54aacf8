package validator

import (
	"strings"
	"testing"
	"time"

	"roamio/pkg/logger"
	"roamio/pkg/model"
)

func newTestValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{Level: "error", Service: "test"}))
}

func validBooking() *model.Booking {
	return &model.Booking{
		TourID:   "507f1f77bcf86cd799439011",
		FullName: "Asha Rao",
		Email:    "asha.rao@example.com",
		Guests:   2,
		Date:     time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate_ValidBooking(t *testing.T) {
	v := newTestValidator()

	if err := v.Validate(validBooking()); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_InvalidBookings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *model.Booking)
		field  string
	}{
		{
			name:   "missing tour id",
			mutate: func(b *model.Booking) { b.TourID = "" },
			field:  "TourID",
		},
		{
			name:   "malformed tour id",
			mutate: func(b *model.Booking) { b.TourID = "not-an-object-id" },
			field:  "TourID",
		},
		{
			name:   "name too short",
			mutate: func(b *model.Booking) { b.FullName = "A" },
			field:  "FullName",
		},
		{
			name:   "invalid email",
			mutate: func(b *model.Booking) { b.Email = "nope" },
			field:  "Email",
		},
		{
			name:   "zero guests",
			mutate: func(b *model.Booking) { b.Guests = 0 },
			field:  "Guests",
		},
		{
			name:   "missing date",
			mutate: func(b *model.Booking) { b.Date = time.Time{} },
			field:  "Date",
		},
		{
			name:   "unknown status",
			mutate: func(b *model.Booking) { b.Status = "archived" },
			field:  "Status",
		},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			if err == nil {
				t.Fatal("Validate() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestValidate_OptionalFieldsMayBeEmpty(t *testing.T) {
	v := newTestValidator()

	booking := validBooking()
	booking.Phone = ""
	booking.Notes = ""
	booking.Status = ""

	if err := v.Validate(booking); err != nil {
		t.Errorf("Validate() error = %v, want nil for empty optional fields", err)
	}
}

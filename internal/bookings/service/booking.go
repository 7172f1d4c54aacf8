package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	bookingserrors "roamio/internal/bookings/errors"
	"roamio/internal/bookings/repository"
	"roamio/internal/bookings/validator"
	tourserrors "roamio/internal/tours/errors"
	toursrepository "roamio/internal/tours/repository"
	"roamio/pkg/config"
	apperrors "roamio/pkg/errors"
	"roamio/pkg/events"
	"roamio/pkg/mailer"
	"roamio/pkg/model"
	"roamio/pkg/sanitizer"
)

const (
	customerSubject = "Your Booking Request"
	operatorSubject = "New Booking Request"

	// How long a notification attempt may run once the booking is persisted.
	notifyTimeout = 30 * time.Second
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) (*model.BookingReceipt, error)
	GetByID(ctx context.Context, id string) (*model.BookingWithTour, error)
	GetAll(ctx context.Context, page, limit int) (*model.BookingListResult, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	tours     toursrepository.TourRepository
	validator *validator.BookingValidator
	sender    mailer.Sender
	producer  *events.Producer
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	tours toursrepository.TourRepository,
	validator *validator.BookingValidator,
	sender mailer.Sender,
	producer *events.Producer,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		tours:     tours,
		validator: validator,
		sender:    sender,
		producer:  producer,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) (*model.BookingReceipt, error) {
	booking.FullName = sanitizer.NormalizeName(booking.FullName)
	booking.Email = sanitizer.NormalizeEmail(booking.Email)
	booking.Notes = sanitizer.NormalizeFreeText(booking.Notes)

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	tour, err := s.tours.FindByID(ctx, booking.TourID)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) || errors.Is(err, tourserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Tour", booking.TourID)
		}
		s.cfg.Log.Error("Failed to resolve tour for booking", "tour_id", booking.TourID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}

	// The price is computed server-side from the catalog, never trusted
	// from the request.
	booking.TotalPrice = tour.Price * float64(booking.Guests)
	booking.Status = model.StatusPending

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "tour_id", booking.TourID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"tour_id", booking.TourID,
		"guests", booking.Guests,
		"total_price", booking.TotalPrice,
	)

	emailResults := s.notify(ctx, booking, tour)
	s.publishEvent(ctx, events.TypeBookingCreated, booking)

	return &model.BookingReceipt{
		Booking:      booking,
		EmailResults: emailResults,
	}, nil
}

// notify dispatches the customer and operator emails concurrently and waits
// for both to settle. A failed delivery yields a nil reference in its slot and
// never fails the booking.
func (s *bookingService) notify(ctx context.Context, booking *model.Booking, tour *model.Tour) []*string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	body := s.buildSummaryBody(booking, tour)
	results := make([]*string, 2)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		results[0] = s.send(ctx, booking, booking.Email, customerSubject, body)
	}()

	go func() {
		defer wg.Done()
		results[1] = s.send(ctx, booking, s.cfg.OperatorAddr, operatorSubject, body)
	}()

	wg.Wait()
	return results
}

func (s *bookingService) send(ctx context.Context, booking *model.Booking, to, subject, body string) *string {
	result, err := s.sender.Send(ctx, to, subject, body)
	if err != nil {
		s.cfg.Log.Error("Failed to send booking notification",
			"booking_id", booking.ID,
			"to", to,
			"subject", subject,
			"error", err,
		)
		return nil
	}
	return &result.Reference
}

func (s *bookingService) buildSummaryBody(booking *model.Booking, tour *model.Tour) string {
	return fmt.Sprintf(
		`<h2>Booking Request</h2>
<ul>
  <li><strong>Name:</strong> %s</li>
  <li><strong>Tour:</strong> %s</li>
  <li><strong>Date:</strong> %s</li>
  <li><strong>Guests:</strong> %d</li>
  <li><strong>Total:</strong> $%.2f</li>
</ul>
<p>Status: %s</p>`,
		html.EscapeString(booking.FullName),
		html.EscapeString(tour.Title),
		booking.Date.Format("January 2, 2006"),
		booking.Guests,
		booking.TotalPrice,
		booking.Status,
	)
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	err := s.producer.Publish(ctx, eventType, events.BookingEvent{
		BookingID:  booking.ID,
		TourID:     booking.TourID,
		Status:     booking.Status,
		Guests:     booking.Guests,
		TotalPrice: booking.TotalPrice,
	})
	if err != nil {
		// Events are best effort; the booking itself already succeeded.
		s.cfg.Log.Error("Failed to publish booking event",
			"booking_id", booking.ID,
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingWithTour, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking id cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return s.withTour(ctx, booking), nil
}

func (s *bookingService) GetAll(ctx context.Context, page, limit int) (*model.BookingListResult, error) {
	page = config.NormalizePage(page)
	limit = config.NormalizeLimit(limit)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, page, limit)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, errCount
	}
	if errFind != nil {
		return nil, errFind
	}

	joined := make([]*model.BookingWithTour, 0, len(bookings))
	for _, booking := range bookings {
		joined = append(joined, s.withTour(ctx, booking))
	}

	return &model.BookingListResult{
		Bookings:   joined,
		Pagination: buildPagination(page, limit, count),
	}, nil
}

// withTour joins the booking with its catalog record. A missing tour leaves
// the reference nil rather than failing the read.
func (s *bookingService) withTour(ctx context.Context, booking *model.Booking) *model.BookingWithTour {
	result := &model.BookingWithTour{Booking: *booking}

	tour, err := s.tours.FindByID(ctx, booking.TourID)
	if err != nil {
		if !errors.Is(err, tourserrors.ErrNotFound) && !errors.Is(err, tourserrors.ErrInvalidID) {
			s.cfg.Log.Error("Failed to resolve tour for booking", "booking_id", booking.ID, "tour_id", booking.TourID, "error", err)
		}
		return result
	}

	result.Tour = tour
	return result
}

func buildPagination(page, limit int, totalCount int64) model.Pagination {
	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	p := model.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking id cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	// Cancelling an already-cancelled booking is a no-op.
	if booking.Status != model.StatusCancelled {
		if err := s.repo.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Booking", id)
			}
			s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to cancel booking", err)
		}

		booking.Status = model.StatusCancelled
		s.cfg.Log.Info("Booking cancelled", "id", id)
		s.publishEvent(ctx, events.TypeBookingCancelled, booking)
	}

	return booking, nil
}

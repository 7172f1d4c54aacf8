package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "roamio/internal/bookings/errors"
	"roamio/internal/bookings/validator"
	tourserrors "roamio/internal/tours/errors"
	"roamio/pkg/config"
	apperrors "roamio/pkg/errors"
	"roamio/pkg/logger"
	"roamio/pkg/mailer"
	"roamio/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks for testing
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc       func(ctx context.Context, booking *model.Booking) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc      func(ctx context.Context, page, limit int) ([]*model.Booking, error)
	countFunc        func(ctx context.Context) (int64, error)
	updateStatusFunc func(ctx context.Context, id string, status string) error
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "68b1c2d3e4f5a6b7c8d9e0f1"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, page, limit int) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, page, limit)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

// mockCatalog stubs the tour lookup the booking flow depends on.
type mockCatalog struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Tour, error)
}

func (m *mockCatalog) FindByID(ctx context.Context, id string) (*model.Tour, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, tourserrors.ErrNotFound
}

func (m *mockCatalog) Search(ctx context.Context, query model.TourQuery) ([]*model.Tour, error) {
	return nil, nil
}

func (m *mockCatalog) CountMatching(ctx context.Context, filter model.TourFilter) (int64, error) {
	return 0, nil
}

func (m *mockCatalog) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return nil, tourserrors.ErrNotFound
}

func (m *mockCatalog) Create(ctx context.Context, tour *model.Tour) error { return nil }

func (m *mockCatalog) UpdateBySlug(ctx context.Context, slug string, tour *model.Tour) (*mongo.UpdateResult, error) {
	return nil, nil
}

func (m *mockCatalog) DeleteBySlug(ctx context.Context, slug string) error { return nil }

func (m *mockCatalog) SetReviews(ctx context.Context, slug string, reviews []model.Review, numReviews int, rating float64) error {
	return nil
}

func (m *mockCatalog) AggregateOverview(ctx context.Context) (*model.StatsOverview, error) {
	return nil, nil
}

func (m *mockCatalog) AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error) {
	return nil, nil
}

func (m *mockCatalog) AggregateByLocation(ctx context.Context, limit int) ([]model.LocationStats, error) {
	return nil, nil
}

type mockSender struct {
	sendFunc func(ctx context.Context, to, subject, htmlBody string) (*mailer.Result, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockSender) Send(ctx context.Context, to, subject, htmlBody string) (*mailer.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, to)
	m.mu.Unlock()

	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, htmlBody)
	}
	return &mailer.Result{Accepted: true, Reference: "ref-" + to}, nil
}

func newTestService(repo *mockBookingRepository, catalog *mockCatalog, sender *mockSender) *bookingService {
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		OperatorAddr: "operator@example.com",
	}
	svc := NewBookingService(repo, catalog, validator.NewBookingValidator(log), sender, nil, cfg).(*bookingService)
	return svc
}

const (
	testTourID = "507f1f77bcf86cd799439011"
)

func validBooking() *model.Booking {
	return &model.Booking{
		TourID:   testTourID,
		FullName: "Asha Rao",
		Email:    "Asha.Rao@Example.com",
		Guests:   3,
		Date:     time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
	}
}

func catalogWith(tour *model.Tour) *mockCatalog {
	return &mockCatalog{
		findByIDFunc: func(ctx context.Context, id string) (*model.Tour, error) {
			if id == tour.ID {
				return tour, nil
			}
			return nil, tourserrors.ErrNotFound
		},
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_ComputesTotalPriceFromCatalog(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 100}
	repo := &mockBookingRepository{}
	sender := &mockSender{}
	svc := newTestService(repo, catalogWith(tour), sender)

	booking := validBooking()
	booking.TotalPrice = 5 // client-supplied price must be ignored

	receipt, err := svc.Create(context.Background(), booking)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if receipt.Booking.TotalPrice != 300 {
		t.Errorf("TotalPrice = %v, want 300", receipt.Booking.TotalPrice)
	}
	if receipt.Booking.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", receipt.Booking.Status, model.StatusPending)
	}
	if receipt.Booking.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if receipt.Booking.Email != "asha.rao@example.com" {
		t.Errorf("Email = %q, want lowercased", receipt.Booking.Email)
	}
}

func TestCreate_UnknownTourRejectedBeforePersist(t *testing.T) {
	created := false
	repo := &mockBookingRepository{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			created = true
			return nil
		},
	}
	sender := &mockSender{}
	svc := newTestService(repo, &mockCatalog{}, sender)

	_, err := svc.Create(context.Background(), validBooking())
	if err == nil {
		t.Fatal("expected error for unknown tour")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeNotFound)
	}
	if created {
		t.Error("booking must not be persisted when the tour does not exist")
	}
	if len(sender.calls) != 0 {
		t.Errorf("no notifications expected, got %d", len(sender.calls))
	}
}

func TestCreate_ValidationFailsBeforeAnyLookup(t *testing.T) {
	looked := false
	catalog := &mockCatalog{
		findByIDFunc: func(ctx context.Context, id string) (*model.Tour, error) {
			looked = true
			return nil, tourserrors.ErrNotFound
		},
	}
	svc := newTestService(&mockBookingRepository{}, catalog, &mockSender{})

	booking := validBooking()
	booking.Email = "not-an-email"

	_, err := svc.Create(context.Background(), booking)
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeValidation)
	}
	if looked {
		t.Error("catalog must not be consulted for invalid input")
	}
}

func TestCreate_NotifiesCustomerAndOperator(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 80}
	sender := &mockSender{}
	svc := newTestService(&mockBookingRepository{}, catalogWith(tour), sender)

	receipt, err := svc.Create(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if len(receipt.EmailResults) != 2 {
		t.Fatalf("EmailResults length = %d, want 2", len(receipt.EmailResults))
	}
	if receipt.EmailResults[0] == nil || *receipt.EmailResults[0] != "ref-asha.rao@example.com" {
		t.Errorf("customer reference = %v, want ref-asha.rao@example.com", receipt.EmailResults[0])
	}
	if receipt.EmailResults[1] == nil || *receipt.EmailResults[1] != "ref-operator@example.com" {
		t.Errorf("operator reference = %v, want ref-operator@example.com", receipt.EmailResults[1])
	}
}

func TestCreate_SucceedsWhenNotificationsFail(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 80}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, to, subject, htmlBody string) (*mailer.Result, error) {
			if to == "operator@example.com" {
				return nil, errors.New("smtp connection refused")
			}
			return &mailer.Result{Accepted: true, Reference: "ref-customer"}, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, catalogWith(tour), sender)

	receipt, err := svc.Create(context.Background(), validBooking())
	if err != nil {
		t.Fatalf("Create() error = %v, notification failure must not fail the booking", err)
	}

	if receipt.EmailResults[0] == nil || *receipt.EmailResults[0] != "ref-customer" {
		t.Errorf("customer reference = %v, want ref-customer", receipt.EmailResults[0])
	}
	if receipt.EmailResults[1] != nil {
		t.Errorf("operator reference = %v, want nil for failed delivery", *receipt.EmailResults[1])
	}
	if receipt.Booking.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", receipt.Booking.Status, model.StatusPending)
	}
}

func TestCreate_NotificationsSettleConcurrently(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 80}

	// Both sends block until the other has started; sequential dispatch deadlocks.
	started := make(chan struct{}, 2)
	sender := &mockSender{
		sendFunc: func(ctx context.Context, to, subject, htmlBody string) (*mailer.Result, error) {
			started <- struct{}{}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-waitForBoth(started):
				return &mailer.Result{Accepted: true, Reference: "ref-" + to}, nil
			}
		},
	}
	svc := newTestService(&mockBookingRepository{}, catalogWith(tour), sender)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Create(context.Background(), validBooking()); err != nil {
			t.Errorf("Create() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notifications did not run concurrently")
	}
}

func waitForBoth(started chan struct{}) <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		for len(started) < 2 {
			time.Sleep(time.Millisecond)
		}
		close(ready)
	}()
	return ready
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_SetsStatusCancelled(t *testing.T) {
	var updatedStatus string
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, TourID: testTourID, Status: model.StatusPending}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			updatedStatus = status
			return nil
		},
	}
	svc := newTestService(repo, &mockCatalog{}, &mockSender{})

	booking, err := svc.Cancel(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if booking.Status != model.StatusCancelled {
		t.Errorf("Status = %q, want %q", booking.Status, model.StatusCancelled)
	}
	if updatedStatus != model.StatusCancelled {
		t.Errorf("persisted status = %q, want %q", updatedStatus, model.StatusCancelled)
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	updates := 0
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, TourID: testTourID, Status: model.StatusCancelled}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			updates++
			return nil
		},
	}
	svc := newTestService(repo, &mockCatalog{}, &mockSender{})

	for i := 0; i < 2; i++ {
		booking, err := svc.Cancel(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
		if err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if booking.Status != model.StatusCancelled {
			t.Errorf("Status = %q, want %q", booking.Status, model.StatusCancelled)
		}
	}

	if updates != 0 {
		t.Errorf("update count = %d, want 0 for an already-cancelled booking", updates)
	}
}

func TestCancel_UnknownBookingNotFound(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockCatalog{}, &mockSender{})

	_, err := svc.Cancel(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
	if err == nil {
		t.Fatal("expected error for unknown booking")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeNotFound)
	}
}

// ────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────

func TestGetByID_JoinsTour(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 80}
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, TourID: testTourID, Status: model.StatusPending}, nil
		},
	}
	svc := newTestService(repo, catalogWith(tour), &mockSender{})

	result, err := svc.GetByID(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if result.Tour == nil || result.Tour.Title != "Desert Safari" {
		t.Errorf("joined tour = %+v, want Desert Safari", result.Tour)
	}
}

func TestGetByID_MissingTourLeavesJoinNil(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, TourID: testTourID, Status: model.StatusPending}, nil
		},
	}
	svc := newTestService(repo, &mockCatalog{}, &mockSender{})

	result, err := svc.GetByID(context.Background(), "68b1c2d3e4f5a6b7c8d9e0f1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if result.Tour != nil {
		t.Errorf("joined tour = %+v, want nil when the catalog record is gone", result.Tour)
	}
}

func TestGetAll_PaginationMetadata(t *testing.T) {
	tour := &model.Tour{ID: testTourID, Title: "Desert Safari", Price: 80}
	repo := &mockBookingRepository{
		findAllFunc: func(ctx context.Context, page, limit int) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "b1", TourID: testTourID},
				{ID: "b2", TourID: testTourID},
			}, nil
		},
		countFunc: func(ctx context.Context) (int64, error) {
			return 5, nil
		},
	}
	svc := newTestService(repo, catalogWith(tour), &mockSender{})

	result, err := svc.GetAll(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}

	if len(result.Bookings) != 2 {
		t.Fatalf("bookings length = %d, want 2", len(result.Bookings))
	}
	p := result.Pagination
	if p.TotalCount != 5 || p.TotalPages != 3 || !p.HasNextPage || p.HasPrevPage {
		t.Errorf("pagination = %+v, want totalCount 5, totalPages 3, next only", p)
	}
	for _, b := range result.Bookings {
		if b.Tour == nil {
			t.Errorf("booking %s missing joined tour", b.ID)
		}
	}
}

func TestGetAll_EmptyList(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockCatalog{}, &mockSender{})

	result, err := svc.GetAll(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}

	if result.Bookings == nil {
		t.Error("bookings must be an empty slice, not nil")
	}
	if result.Pagination.CurrentPage != 1 || result.Pagination.Limit != config.DefaultPageSize {
		t.Errorf("pagination = %+v, want normalized page 1 and default limit", result.Pagination)
	}
}

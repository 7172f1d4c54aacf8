package service

import (
	"context"
	"errors"
	"sync"
	"time"

	tourserrors "roamio/internal/tours/errors"
	"roamio/internal/tours/repository"
	"roamio/internal/tours/validator"
	"roamio/pkg/config"
	apperrors "roamio/pkg/errors"
	"roamio/pkg/model"
	"roamio/pkg/sanitizer"
)

const (
	// Seed rating for new tours, matching the catalog's historical default.
	defaultSeedRating = 4.7

	summaryDescriptionLen = 150
	popularLocationsLimit = 10

	availabilitySlots    = 24
	availabilityStride   = 3
	availabilityCapacity = 24
)

type TourService interface {
	Search(ctx context.Context, query model.TourQuery) (*model.TourSearchResult, error)
	GetBySlugOrID(ctx context.Context, identifier string) (*model.Tour, error)
	GetSummary(ctx context.Context, identifier string) (*model.TourSummary, error)
	Create(ctx context.Context, tour *model.Tour) error
	Update(ctx context.Context, slug string, updates *model.TourUpdate) (*model.Tour, error)
	Delete(ctx context.Context, slug string) error
	AddReview(ctx context.Context, slug string, input *model.ReviewInput) (*model.ReviewResult, error)
	Stats(ctx context.Context) (*model.TourStats, error)
	Availability(ctx context.Context, identifier string) (*model.Availability, error)
}

type tourService struct {
	repo      repository.TourRepository
	validator *validator.TourValidator
	cfg       *config.Config

	// Injectable clock so availability projections are testable against a fixed day.
	now func() time.Time
}

func NewTourService(
	repo repository.TourRepository,
	validator *validator.TourValidator,
	cfg *config.Config,
) TourService {
	return &tourService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *tourService) Search(ctx context.Context, query model.TourQuery) (*model.TourSearchResult, error) {
	query.Page = config.NormalizePage(query.Page)
	query.Limit = config.NormalizeLimit(query.Limit)

	var count int64
	var tours []*model.Tour
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountMatching(ctx, query.Filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count tours", "error", errCount)
			errCount = apperrors.Internal("Failed to count tours", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		tours, errFind = s.repo.Search(ctx, query)
		if errFind != nil {
			s.cfg.Log.Error("Failed to search tours", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve tours", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, errCount
	}
	if errFind != nil {
		return nil, errFind
	}

	if tours == nil {
		tours = []*model.Tour{}
	}

	result := &model.TourSearchResult{
		Tours:      tours,
		Pagination: buildPagination(query.Page, query.Limit, count),
		Filters:    buildAppliedFilters(query.Filter),
	}

	s.cfg.Log.Debug("Tour search completed",
		"count", len(tours),
		"total_count", count,
		"page", query.Page,
		"limit", query.Limit,
	)
	return result, nil
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

func buildAppliedFilters(f model.TourFilter) model.AppliedFilters {
	applied := model.AppliedFilters{
		PriceRange: model.PriceRange{Min: f.MinPrice, Max: f.MaxPrice},
		MinRating:  f.MinRating,
	}
	if f.Query != "" {
		applied.Search = &f.Query
	}
	if f.Category != "" {
		applied.Category = &f.Category
	}
	if f.Location != "" {
		applied.Location = &f.Location
	}
	if f.Featured != nil && *f.Featured {
		applied.Featured = f.Featured
	}
	return applied
}

// resolve looks a tour up by slug first, then by store identifier.
func (s *tourService) resolve(ctx context.Context, identifier string) (*model.Tour, error) {
	tour, err := s.repo.FindBySlug(ctx, identifier)
	if err == nil {
		return tour, nil
	}
	if !errors.Is(err, tourserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}

	tour, err = s.repo.FindByID(ctx, identifier)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) || errors.Is(err, tourserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Tour", identifier)
		}
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}
	return tour, nil
}

func (s *tourService) GetBySlugOrID(ctx context.Context, identifier string) (*model.Tour, error) {
	if identifier == "" {
		return nil, apperrors.InvalidInput("Tour identifier cannot be empty")
	}
	return s.resolve(ctx, identifier)
}

func (s *tourService) GetSummary(ctx context.Context, identifier string) (*model.TourSummary, error) {
	tour, err := s.GetBySlugOrID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return &model.TourSummary{
		ID:               tour.ID,
		Slug:             tour.Slug,
		Title:            tour.Title,
		Location:         tour.Location,
		Price:            tour.Price,
		DurationDays:     tour.DurationDays,
		ImageURL:         tour.ImageURL,
		Rating:           tour.Rating,
		NumReviews:       tour.NumReviews,
		Category:         tour.Category,
		Featured:         tour.Featured,
		ShortDescription: truncate(tour.Description, summaryDescriptionLen),
		CreatedAt:        tour.CreatedAt,
	}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}

func (s *tourService) Create(ctx context.Context, tour *model.Tour) error {
	s.sanitize(tour)
	s.applyDefaults(tour)
	if err := s.validator.Validate(tour); err != nil {
		s.cfg.Log.Warn("Tour validation failed", "error", err)
		return apperrors.Validation("Tour validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, tour); err != nil {
		if errors.Is(err, tourserrors.ErrSlugTaken) {
			return apperrors.Conflict("A tour with this slug already exists")
		}
		s.cfg.Log.Error("Failed to create tour", "slug", tour.Slug, "error", err)
		return apperrors.Internal("Failed to create tour", err)
	}

	s.cfg.Log.Info("Tour created successfully", "id", tour.ID, "slug", tour.Slug)
	return nil
}

func (s *tourService) Update(ctx context.Context, slug string, updates *model.TourUpdate) (*model.Tour, error) {
	if slug == "" {
		return nil, apperrors.InvalidInput("Tour slug cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Tour update validation failed", "slug", slug, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", slug)
		}
		return nil, apperrors.Internal("Failed to check tour existence", err)
	}

	merged := s.mergeTourUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Tour validation failed", "slug", slug, "error", err)
		return nil, apperrors.Validation("Tour validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.UpdateBySlug(ctx, slug, merged); err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", slug)
		}
		s.cfg.Log.Error("Failed to update tour", "slug", slug, "error", err)
		return nil, apperrors.Internal("Failed to update tour", err)
	}

	s.cfg.Log.Info("Tour updated successfully", "slug", slug)
	return merged, nil
}

func (s *tourService) Delete(ctx context.Context, slug string) error {
	if slug == "" {
		return apperrors.InvalidInput("Tour slug cannot be empty")
	}

	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Tour", slug)
		}
		s.cfg.Log.Error("Failed to delete tour", "slug", slug, "error", err)
		return apperrors.Internal("Failed to delete tour", err)
	}

	s.cfg.Log.Info("Tour deleted successfully", "slug", slug)
	return nil
}

func (s *tourService) AddReview(ctx context.Context, slug string, input *model.ReviewInput) (*model.ReviewResult, error) {
	if slug == "" {
		return nil, apperrors.InvalidInput("Tour slug cannot be empty")
	}

	input.Text = sanitizer.NormalizeFreeText(input.Text)
	input.Author = sanitizer.NormalizeName(input.Author)
	if input.Author == "" {
		input.Author = "Anonymous"
	}

	if err := s.validator.ValidateReview(input); err != nil {
		s.cfg.Log.Warn("Review validation failed", "slug", slug, "error", err)
		return nil, apperrors.Validation("Review validation failed", map[string]any{"error": err.Error()})
	}

	tour, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", slug)
		}
		return nil, apperrors.Internal("Failed to retrieve tour", err)
	}

	review := model.Review{
		Author:    input.Author,
		Rating:    input.Rating,
		Text:      input.Text,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	reviews := append(tour.Reviews, review)
	numReviews := len(reviews)

	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	averageRating := float64(sum) / float64(numReviews)

	if err := s.repo.SetReviews(ctx, slug, reviews, numReviews, averageRating); err != nil {
		if errors.Is(err, tourserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tour", slug)
		}
		s.cfg.Log.Error("Failed to persist review", "slug", slug, "error", err)
		return nil, apperrors.Internal("Failed to add review", err)
	}

	s.cfg.Log.Info("Review added successfully",
		"slug", slug,
		"rating", review.Rating,
		"num_reviews", numReviews,
	)
	return &model.ReviewResult{
		Review:        review,
		AverageRating: averageRating,
		NumReviews:    numReviews,
	}, nil
}

func (s *tourService) Stats(ctx context.Context) (*model.TourStats, error) {
	var overview *model.StatsOverview
	var categories []model.CategoryStats
	var locations []model.LocationStats
	var errOverview, errCategories, errLocations error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		overview, errOverview = s.repo.AggregateOverview(ctx)
		if errOverview != nil {
			s.cfg.Log.Error("Failed to aggregate tour overview", "error", errOverview)
			errOverview = apperrors.Internal("Failed to compute tour statistics", errOverview)
		}
	}()

	go func() {
		defer wg.Done()
		categories, errCategories = s.repo.AggregateByCategory(ctx)
		if errCategories != nil {
			s.cfg.Log.Error("Failed to aggregate tours by category", "error", errCategories)
			errCategories = apperrors.Internal("Failed to compute tour statistics", errCategories)
		}
	}()

	go func() {
		defer wg.Done()
		locations, errLocations = s.repo.AggregateByLocation(ctx, popularLocationsLimit)
		if errLocations != nil {
			s.cfg.Log.Error("Failed to aggregate tours by location", "error", errLocations)
			errLocations = apperrors.Internal("Failed to compute tour statistics", errLocations)
		}
	}()

	wg.Wait()
	for _, err := range []error{errOverview, errCategories, errLocations} {
		if err != nil {
			return nil, err
		}
	}

	if categories == nil {
		categories = []model.CategoryStats{}
	}
	if locations == nil {
		locations = []model.LocationStats{}
	}

	return &model.TourStats{
		Overview:         *overview,
		Categories:       categories,
		PopularLocations: locations,
	}, nil
}

// Availability produces a deterministic pseudo-availability projection. This is
// a placeholder scheduling simulation derived from the tour title, not a real
// inventory system; bookings never decrement it.
func (s *tourService) Availability(ctx context.Context, identifier string) (*model.Availability, error) {
	if identifier == "" {
		return nil, apperrors.InvalidInput("Tour identifier cannot be empty")
	}

	tour, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	titleLen := len(tour.Title)
	if titleLen == 0 {
		titleLen = 7
	}

	today := s.now()
	slots := make([]model.AvailabilitySlot, 0, availabilitySlots)
	for i := 1; i <= availabilitySlots; i++ {
		day := today.AddDate(0, 0, i*availabilityStride)
		booked := (titleLen * (i + 3)) % availabilityCapacity
		remaining := max(0, availabilityCapacity-booked)
		slots = append(slots, model.AvailabilitySlot{
			Date:      day.Format("2006-01-02"),
			Capacity:  availabilityCapacity,
			Remaining: remaining,
		})
	}

	return &model.Availability{
		TourID: tour.ID,
		Slug:   tour.Slug,
		Slots:  slots,
	}, nil
}

// --- Helpers ---

func (s *tourService) sanitize(t *model.Tour) {
	t.Title = sanitizer.TrimAndNormalize(t.Title)
	t.Location = sanitizer.TrimAndNormalize(t.Location)
	t.Category = sanitizer.TrimAndNormalize(t.Category)
	t.Description = sanitizer.NormalizeFreeText(t.Description)
}

func (s *tourService) applyDefaults(t *model.Tour) {
	if t.Rating == 0 && len(t.Reviews) == 0 {
		t.Rating = defaultSeedRating
	}
	if t.Reviews == nil {
		t.Reviews = []model.Review{}
	}
	t.NumReviews = len(t.Reviews)
}

func (s *tourService) mergeTourUpdates(existing *model.Tour, updates *model.TourUpdate) *model.Tour {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.DurationDays != nil {
		merged.DurationDays = *updates.DurationDays
	}
	if updates.ImageURL != "" {
		merged.ImageURL = updates.ImageURL
	}
	if updates.Location != "" {
		merged.Location = updates.Location
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.Featured != nil {
		merged.Featured = *updates.Featured
	}

	return &merged
}

package model

import (
	"time"
)

type Review struct {
	Author    string    `json:"author" bson:"author"`
	Rating    int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Text      string    `json:"text" bson:"text" validate:"required,min=5,max=2000"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type Tour struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title        string    `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Slug         string    `json:"slug" bson:"slug" validate:"required,min=2,max=200"`
	Description  string    `json:"description" bson:"description" validate:"required,min=10"`
	Price        float64   `json:"price" bson:"price" validate:"gte=0"`
	DurationDays int       `json:"durationDays" bson:"duration_days" validate:"required,min=1"`
	ImageURL     string    `json:"imageUrl" bson:"image_url" validate:"required,min=4"`
	Location     string    `json:"location" bson:"location" validate:"required,min=2"`
	Category     string    `json:"category" bson:"category" validate:"omitempty,min=2,max=100"`
	Featured     bool      `json:"featured" bson:"featured"`
	Rating       float64   `json:"rating" bson:"rating" validate:"gte=0,lte=5"`
	NumReviews   int       `json:"numReviews" bson:"num_reviews" validate:"gte=0"`
	Reviews      []Review  `json:"reviews" bson:"reviews"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at" validate:"omitempty"`
}

type TourUpdate struct {
	Title        string   `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  string   `json:"description,omitempty" validate:"omitempty,min=10"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	DurationDays *int     `json:"durationDays,omitempty" validate:"omitempty,min=1"`
	ImageURL     string   `json:"imageUrl,omitempty" validate:"omitempty,min=4"`
	Location     string   `json:"location,omitempty" validate:"omitempty,min=2"`
	Category     string   `json:"category,omitempty" validate:"omitempty,min=2,max=100"`
	Featured     *bool    `json:"featured,omitempty"`
}

// TourSummary is the reduced projection for bandwidth-constrained callers.
// Description is truncated and full review content omitted.
type TourSummary struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Location         string    `json:"location"`
	Price            float64   `json:"price"`
	DurationDays     int       `json:"durationDays"`
	ImageURL         string    `json:"imageUrl"`
	Rating           float64   `json:"rating"`
	NumReviews       int       `json:"numReviews"`
	Category         string    `json:"category"`
	Featured         bool      `json:"featured"`
	ShortDescription string    `json:"shortDescription"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TourFilter holds the optional search criteria. Nil or zero fields impose
// no constraint; the repository translates the set fields into the native query.
type TourFilter struct {
	Query     string
	Category  string
	Location  string
	Featured  *bool
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

type TourQuery struct {
	Filter    TourFilter
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	NextPage    *int  `json:"nextPage"`
	PrevPage    *int  `json:"prevPage"`
}

type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// AppliedFilters echoes the normalized filter values a search actually applied.
type AppliedFilters struct {
	Search     *string    `json:"search"`
	Category   *string    `json:"category"`
	Location   *string    `json:"location"`
	PriceRange PriceRange `json:"priceRange"`
	MinRating  *float64   `json:"minRating"`
	Featured   *bool      `json:"featured"`
}

type TourSearchResult struct {
	Tours      []*Tour        `json:"tours"`
	Pagination Pagination     `json:"pagination"`
	Filters    AppliedFilters `json:"filters"`
}

type StatsOverview struct {
	TotalTours    int64   `json:"totalTours" bson:"total_tours"`
	AveragePrice  float64 `json:"averagePrice" bson:"average_price"`
	AverageRating float64 `json:"averageRating" bson:"average_rating"`
	TotalReviews  int64   `json:"totalReviews" bson:"total_reviews"`
	MinPrice      float64 `json:"minPrice" bson:"min_price"`
	MaxPrice      float64 `json:"maxPrice" bson:"max_price"`
}

type CategoryStats struct {
	Category      string  `json:"category" bson:"_id"`
	Count         int64   `json:"count" bson:"count"`
	AveragePrice  float64 `json:"averagePrice" bson:"average_price"`
	AverageRating float64 `json:"averageRating" bson:"average_rating"`
}

type LocationStats struct {
	Location     string  `json:"location" bson:"_id"`
	Count        int64   `json:"count" bson:"count"`
	AveragePrice float64 `json:"averagePrice" bson:"average_price"`
}

type TourStats struct {
	Overview         StatsOverview   `json:"overview"`
	Categories       []CategoryStats `json:"categories"`
	PopularLocations []LocationStats `json:"popularLocations"`
}

type AvailabilitySlot struct {
	Date      string `json:"date"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}

type Availability struct {
	TourID string             `json:"tourId"`
	Slug   string             `json:"slug"`
	Slots  []AvailabilitySlot `json:"slots"`
}

type ReviewInput struct {
	Author string `json:"author" validate:"omitempty,max=100"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,min=5,max=2000"`
}

type ReviewResult struct {
	Review        Review  `json:"review"`
	AverageRating float64 `json:"averageRating"`
	NumReviews    int     `json:"numReviews"`
}

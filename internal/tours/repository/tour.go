package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	tourserrors "roamio/internal/tours/errors"
	"roamio/pkg/config"
	"roamio/pkg/model"
)

const (
	CollectionName = "Tours"
)

// Sort field whitelist: API name to stored key. Anything else falls back to createdAt.
var sortFieldColumns = map[string]string{
	"createdAt":    "created_at",
	"price":        "price",
	"rating":       "rating",
	"title":        "title",
	"durationDays": "duration_days",
}

type mongoTourRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type TourRepository interface {
	Search(ctx context.Context, query model.TourQuery) ([]*model.Tour, error)
	CountMatching(ctx context.Context, filter model.TourFilter) (int64, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tour, error)
	FindByID(ctx context.Context, id string) (*model.Tour, error)
	Create(ctx context.Context, tour *model.Tour) error
	UpdateBySlug(ctx context.Context, slug string, tour *model.Tour) (*mongo.UpdateResult, error)
	DeleteBySlug(ctx context.Context, slug string) error
	SetReviews(ctx context.Context, slug string, reviews []model.Review, numReviews int, rating float64) error
	AggregateOverview(ctx context.Context) (*model.StatsOverview, error)
	AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error)
	AggregateByLocation(ctx context.Context, limit int) ([]model.LocationStats, error)
}

func NewMongoTourRepository(cfg *config.Config) TourRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTourRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout, respecting any tighter deadline
// already present.
func (r *mongoTourRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// buildSearchFilter translates the typed filter criteria into the native query.
// Regex inputs are quoted, so free-text terms match as plain substrings.
func buildSearchFilter(f model.TourFilter) bson.M {
	filter := bson.M{}

	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"location": pattern},
			{"description": pattern},
			{"category": pattern},
		}
	}

	if f.Featured != nil && *f.Featured {
		filter["featured"] = true
	}

	if f.Category != "" {
		filter["category"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Category), Options: "i"}
	}

	if f.Location != "" {
		filter["location"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Location), Options: "i"}
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}

	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}

	return filter
}

// buildSort maps the requested sort onto the stored key, falling back to
// createdAt for anything outside the whitelist. Ascending only on literal "asc".
func buildSort(sortBy, sortOrder string) bson.D {
	column, ok := sortFieldColumns[sortBy]
	if !ok {
		column = sortFieldColumns["createdAt"]
	}

	direction := -1
	if sortOrder == "asc" {
		direction = 1
	}

	return bson.D{{Key: column, Value: direction}}
}

func (r *mongoTourRepository) Search(ctx context.Context, query model.TourQuery) ([]*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	skip := int64(query.Page-1) * int64(query.Limit)
	opts := options.Find().
		SetSort(buildSort(query.SortBy, query.SortOrder)).
		SetSkip(skip).
		SetLimit(int64(query.Limit))

	cursor, err := r.collection.Find(ctx, buildSearchFilter(query.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours: %w", err)
	}
	defer cursor.Close(ctx)

	var tours []*model.Tour
	if err = cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}

	return tours, nil
}

func (r *mongoTourRepository) CountMatching(ctx context.Context, filter model.TourFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count tours: %w", err)
	}
	return count, nil
}

func (r *mongoTourRepository) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tour model.Tour
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tourserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tour by slug: %w", err)
	}

	return &tour, nil
}

func (r *mongoTourRepository) FindByID(ctx context.Context, id string) (*model.Tour, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tourserrors.ErrInvalidID, id)
	}

	var tour model.Tour
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tourserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}

	return &tour, nil
}

func (r *mongoTourRepository) Create(ctx context.Context, tour *model.Tour) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tour.CreatedAt = now
	tour.UpdatedAt = now

	existing := r.collection.FindOne(ctx, bson.M{"slug": tour.Slug})
	if existing.Err() == nil {
		return tourserrors.ErrSlugTaken
	} else if !errors.Is(existing.Err(), mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to check slug uniqueness: %w", existing.Err())
	}

	result, err := r.collection.InsertOne(ctx, tour)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tourserrors.ErrSlugTaken
		}
		return fmt.Errorf("failed to create tour: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tour.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTourRepository) UpdateBySlug(ctx context.Context, slug string, tour *model.Tour) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"title":         tour.Title,
			"description":   tour.Description,
			"price":         tour.Price,
			"duration_days": tour.DurationDays,
			"image_url":     tour.ImageURL,
			"location":      tour.Location,
			"category":      tour.Category,
			"featured":      tour.Featured,
			"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"slug": slug}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, tourserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoTourRepository) DeleteBySlug(ctx context.Context, slug string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	if result.DeletedCount == 0 {
		return tourserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTourRepository) SetReviews(ctx context.Context, slug string, reviews []model.Review, numReviews int, rating float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"reviews":     reviews,
			"num_reviews": numReviews,
			"rating":      rating,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"slug": slug}, update)
	if err != nil {
		return fmt.Errorf("failed to update tour reviews: %w", err)
	}

	if result.MatchedCount == 0 {
		return tourserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTourRepository) AggregateOverview(ctx context.Context) (*model.StatsOverview, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_tours":    bson.M{"$sum": 1},
			"average_price":  bson.M{"$avg": "$price"},
			"average_rating": bson.M{"$avg": "$rating"},
			"total_reviews":  bson.M{"$sum": "$num_reviews"},
			"min_price":      bson.M{"$min": "$price"},
			"max_price":      bson.M{"$max": "$price"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tour overview: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.StatsOverview
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode tour overview: %w", err)
	}

	// Zero-valued overview when the catalog is empty.
	if len(results) == 0 {
		return &model.StatsOverview{}, nil
	}

	return &results[0], nil
}

func (r *mongoTourRepository) AggregateByCategory(ctx context.Context) ([]model.CategoryStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$category",
			"count":          bson.M{"$sum": 1},
			"average_price":  bson.M{"$avg": "$price"},
			"average_rating": bson.M{"$avg": "$rating"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tours by category: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.CategoryStats
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode category stats: %w", err)
	}

	return results, nil
}

func (r *mongoTourRepository) AggregateByLocation(ctx context.Context, limit int) ([]model.LocationStats, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           "$location",
			"count":         bson.M{"$sum": 1},
			"average_price": bson.M{"$avg": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tours by location: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.LocationStats
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode location stats: %w", err)
	}

	return results, nil
}

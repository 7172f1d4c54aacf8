package repository

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"roamio/pkg/model"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestBuildSearchFilter_Empty(t *testing.T) {
	filter := buildSearchFilter(model.TourFilter{})
	if len(filter) != 0 {
		t.Errorf("expected empty filter for empty criteria, got %v", filter)
	}
}

func TestBuildSearchFilter_FreeText(t *testing.T) {
	filter := buildSearchFilter(model.TourFilter{Query: "beach"})

	or, ok := filter["$or"].([]bson.M)
	if !ok {
		t.Fatalf("expected $or clause, got %v", filter)
	}
	if len(or) != 4 {
		t.Fatalf("expected 4 $or branches (title, location, description, category), got %d", len(or))
	}

	fields := map[string]bool{}
	for _, branch := range or {
		for field, value := range branch {
			fields[field] = true
			re, ok := value.(primitive.Regex)
			if !ok {
				t.Fatalf("expected regex match for %s, got %T", field, value)
			}
			if re.Options != "i" {
				t.Errorf("expected case-insensitive match for %s, got options %q", field, re.Options)
			}
		}
	}
	for _, field := range []string{"title", "location", "description", "category"} {
		if !fields[field] {
			t.Errorf("expected free-text branch for %s", field)
		}
	}
}

func TestBuildSearchFilter_FreeTextQuotesMetaChars(t *testing.T) {
	filter := buildSearchFilter(model.TourFilter{Query: "a.b*c"})

	or := filter["$or"].([]bson.M)
	re := or[0]["title"].(primitive.Regex)
	if re.Pattern != `a\.b\*c` {
		t.Errorf("expected quoted pattern, got %q", re.Pattern)
	}
}

func TestBuildSearchFilter_PriceRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		expected bson.M
	}{
		{"both bounds", floatPtr(50), floatPtr(200), bson.M{"$gte": 50.0, "$lte": 200.0}},
		{"min only", floatPtr(50), nil, bson.M{"$gte": 50.0}},
		{"max only", nil, floatPtr(200), bson.M{"$lte": 200.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := buildSearchFilter(model.TourFilter{MinPrice: tt.min, MaxPrice: tt.max})
			price, ok := filter["price"].(bson.M)
			if !ok {
				t.Fatalf("expected price clause, got %v", filter)
			}
			if len(price) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, price)
			}
			for op, v := range tt.expected {
				if price[op] != v {
					t.Errorf("expected %s=%v, got %v", op, v, price[op])
				}
			}
		})
	}
}

func TestBuildSearchFilter_NoPriceClauseWhenUnbounded(t *testing.T) {
	filter := buildSearchFilter(model.TourFilter{MinRating: floatPtr(4)})

	if _, ok := filter["price"]; ok {
		t.Errorf("expected no price clause, got %v", filter["price"])
	}
	rating, ok := filter["rating"].(bson.M)
	if !ok || rating["$gte"] != 4.0 {
		t.Errorf("expected rating $gte 4, got %v", filter["rating"])
	}
}

func TestBuildSearchFilter_Featured(t *testing.T) {
	filter := buildSearchFilter(model.TourFilter{Featured: boolPtr(true)})
	if filter["featured"] != true {
		t.Errorf("expected featured=true clause, got %v", filter)
	}

	// A false flag means the caller supplied something other than "true";
	// it imposes no constraint.
	filter = buildSearchFilter(model.TourFilter{Featured: boolPtr(false)})
	if _, ok := filter["featured"]; ok {
		t.Errorf("expected no featured clause, got %v", filter)
	}
}

func TestBuildSort(t *testing.T) {
	tests := []struct {
		name          string
		sortBy, order string
		wantKey       string
		wantDirection int
	}{
		{"default descending createdAt", "", "", "created_at", -1},
		{"price ascending", "price", "asc", "price", 1},
		{"price descending", "price", "desc", "price", -1},
		{"durationDays maps to stored key", "durationDays", "asc", "duration_days", 1},
		{"unknown field falls back", "__proto__", "asc", "created_at", 1},
		{"non-asc order is descending", "rating", "ascending", "rating", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sort := buildSort(tt.sortBy, tt.order)
			if len(sort) != 1 {
				t.Fatalf("expected single sort key, got %v", sort)
			}
			if sort[0].Key != tt.wantKey {
				t.Errorf("expected sort key %s, got %s", tt.wantKey, sort[0].Key)
			}
			if sort[0].Value != tt.wantDirection {
				t.Errorf("expected direction %d, got %v", tt.wantDirection, sort[0].Value)
			}
		})
	}
}

package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roamio"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Catalog pagination: default page size when none supplied, hard cap per page.
	DefaultPageSize = 12
	MaxPageSize     = 50

	DefaultSMTPPort     = 587
	DefaultSMTPFrom     = "Roamio Tours <no-reply@roamio.example>"
	DefaultOperatorAddr = "bookings@roamio.example"

	DefaultBookingEventsTopic = "booking.events"
)

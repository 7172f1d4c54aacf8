package main

import (
	"github.com/joho/godotenv"

	"roamio/internal/bookings/handler"
	"roamio/internal/bookings/repository"
	"roamio/internal/bookings/service"
	"roamio/internal/bookings/validator"
	toursrepository "roamio/internal/tours/repository"
	"roamio/pkg/app"
	"roamio/pkg/config"
	"roamio/pkg/events"
	"roamio/pkg/mailer"
)

const ServiceName = "bookings"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	sender := mailer.NewSMTPSender(mailer.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}, cfg.Log)

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.BookingEventsTopic, cfg.Log)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close event producer", "error", err)
		}
	}()

	bookingRepository := repository.NewMongoBookingRepository(cfg)
	tourRepository := toursrepository.NewMongoTourRepository(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := service.NewBookingService(
		bookingRepository,
		tourRepository,
		bookingValidator,
		sender,
		producer,
		cfg,
	)
	bookingHandler := handler.NewBookingHandler(bookingService, cfg.Log)

	application := app.NewApplication(cfg)
	application.SetApp(bookingHandler)
	application.Run()
}

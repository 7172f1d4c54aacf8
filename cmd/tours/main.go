package main

import (
	"github.com/joho/godotenv"

	"roamio/internal/tours/handler"
	"roamio/internal/tours/repository"
	"roamio/internal/tours/service"
	"roamio/internal/tours/validator"
	"roamio/pkg/app"
	"roamio/pkg/config"
)

const ServiceName = "tours"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	tourRepository := repository.NewMongoTourRepository(cfg)
	tourValidator := validator.NewTourValidator(cfg.Log)
	tourService := service.NewTourService(tourRepository, tourValidator, cfg)
	tourHandler := handler.NewTourHandler(tourService, cfg.Log)

	application := app.NewApplication(cfg)
	application.SetApp(tourHandler)
	application.Run()
}

package main

import (
	"go.uber.org/fx"

	"esign-canvas/internal/config"
	deliveryhttp "esign-canvas/internal/delivery/http"
	"esign-canvas/internal/infrastructure/database"
	"esign-canvas/internal/infrastructure/httpclient"
	"esign-canvas/internal/infrastructure/iplookup"
	"esign-canvas/internal/infrastructure/logger"
	"esign-canvas/internal/infrastructure/raster"
	"esign-canvas/internal/infrastructure/redis"
	"esign-canvas/internal/infrastructure/repository"
	"esign-canvas/internal/server"
	"esign-canvas/internal/usecase"
)

func main() {
	fx.New(
		// Configuration
		config.Module,

		// Infrastructure
		logger.Module,
		database.Module,
		redis.Module,
		httpclient.Module,
		repository.Module,
		iplookup.Module,
		raster.Module,

		// Business Logic
		usecase.Module,

		// Delivery
		deliveryhttp.Module,

		// Server
		server.Module,
	).Run()
}

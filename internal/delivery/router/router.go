package router

import (
	"advertisement-service/internal/delivery/handler"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/logger"

	"github.com/go-chi/chi/v5"
)

func SetupAdvertisementRoutes(r *chi.Mux, adService service.AdvertisementService, loggers *logger.Loggers, metrics *metrics.HandlerMetrics) {
	adHandler := handler.NewAdvertisementHandler(adService, loggers, metrics)

	r.Get("/", adHandler.Health)
	r.Post("/advertisement", adHandler.CreateAd)
	r.Get("/advertisement", adHandler.SearchAds)
	r.Get("/advertisement/{id}", adHandler.GetAdByID)
	r.Patch("/advertisement/{id}", adHandler.UpdateAd)
	r.Delete("/advertisement/{id}", adHandler.DeleteAd)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/logger"
	"advertisement-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultSearchLimit = 100

type AdvertisementHandler struct {
	service service.AdvertisementService
	logger  *logger.Loggers
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

func NewAdvertisementHandler(service service.AdvertisementService, logger *logger.Loggers, metrics *metrics.HandlerMetrics) *AdvertisementHandler {
	tracer := otel.Tracer("advertisement-service/handler")
	return &AdvertisementHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (h *AdvertisementHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Advertisement Service is running"})
}

func (h *AdvertisementHandler) CreateAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		h.metrics.RequestCount.WithLabelValues("POST", "/advertisement", status).Inc()
		h.metrics.RequestDuration.WithLabelValues("POST", "/advertisement", status).Observe(duration)
	}()

	var adReq domain.Advertisement
	if err := json.NewDecoder(r.Body).Decode(&adReq); err != nil {
		status = "error"
		h.logger.ErrorLogger.Error("invalid request payload", utils.Err(err))
		span.RecordError(err)
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	// id and created_at are store-assigned, never client-supplied.
	adReq.ID = 0
	adReq.CreatedAt = time.Time{}

	span.SetAttributes(
		attribute.String("advertisement.title", adReq.Title),
		attribute.Float64("advertisement.price", adReq.Price),
	)

	createdAd, err := h.service.CreateAd(ctx, &adReq)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			status = "invalid"
			respondWithViolations(w, validationErr)
		} else {
			status = "error"
			h.logger.ErrorLogger.Error("could not create advertisement", utils.Err(err))
			span.RecordError(err)
			utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "could not create advertisement")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, createdAd)
}

func (h *AdvertisementHandler) GetAdByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		h.metrics.RequestCount.WithLabelValues("GET", "/advertisement/{id}", status).Inc()
		h.metrics.RequestDuration.WithLabelValues("GET", "/advertisement/{id}", status).Observe(duration)
	}()

	id, ok := parseIDParam(w, r)
	if !ok {
		status = "error"
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	ad, err := h.service.GetAdByID(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			status = "error"
			utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		} else if errors.Is(err, service.ErrAdNotFound) {
			status = "not_found"
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
		} else {
			status = "error"
			h.logger.ErrorLogger.Error("failed to get advertisement by ID", utils.Err(err))
			span.RecordError(err)
			utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *AdvertisementHandler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		h.metrics.RequestCount.WithLabelValues("PATCH", "/advertisement/{id}", status).Inc()
		h.metrics.RequestDuration.WithLabelValues("PATCH", "/advertisement/{id}", status).Observe(duration)
	}()

	id, ok := parseIDParam(w, r)
	if !ok {
		status = "error"
		return
	}

	var update domain.AdvertisementUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		status = "error"
		h.logger.ErrorLogger.Error("failed to decode request body", utils.Err(err))
		span.RecordError(err)
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	updatedAd, err := h.service.UpdateAd(ctx, id, update)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.Is(err, service.ErrInvalidID) {
			status = "error"
			utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		} else if errors.Is(err, service.ErrAdNotFound) {
			status = "not_found"
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
		} else if errors.As(err, &validationErr) {
			status = "invalid"
			respondWithViolations(w, validationErr)
		} else {
			status = "error"
			h.logger.ErrorLogger.Error("failed to update advertisement", utils.Err(err))
			span.RecordError(err)
			utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updatedAd)
}

func (h *AdvertisementHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		h.metrics.RequestCount.WithLabelValues("DELETE", "/advertisement/{id}", status).Inc()
		h.metrics.RequestDuration.WithLabelValues("DELETE", "/advertisement/{id}", status).Observe(duration)
	}()

	id, ok := parseIDParam(w, r)
	if !ok {
		status = "error"
		return
	}

	err := h.service.DeleteAd(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidID) {
			status = "error"
			utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		} else if errors.Is(err, service.ErrAdNotFound) {
			status = "not_found"
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
		} else {
			status = "error"
			h.logger.ErrorLogger.Error("failed to delete advertisement", utils.Err(err))
			span.RecordError(err)
			utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdvertisementHandler) SearchAds(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SearchAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		h.metrics.RequestCount.WithLabelValues("GET", "/advertisement", status).Inc()
		h.metrics.RequestDuration.WithLabelValues("GET", "/advertisement", status).Observe(duration)
	}()

	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		status = "invalid"
		utils.RespondWithErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	span.SetAttributes(
		attribute.Int("search.limit", filter.Limit),
		attribute.Int("search.offset", filter.Offset),
	)

	ads, err := h.service.SearchAds(ctx, filter)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			status = "invalid"
			respondWithViolations(w, validationErr)
		} else {
			status = "error"
			h.logger.ErrorLogger.Error("failed to search advertisements", utils.Err(err))
			span.RecordError(err)
			utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "could not search advertisements")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ads)
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "missing id parameter")
		return 0, false
	}

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}

	return id, true
}

func parseSearchFilter(query url.Values) (domain.SearchFilter, error) {
	var filter domain.SearchFilter

	if v := query.Get("title"); v != "" {
		filter.Title = &v
	}
	if v := query.Get("description"); v != "" {
		filter.Description = &v
	}
	if v := query.Get("author"); v != "" {
		filter.Author = &v
	}

	var err error
	if filter.Price, err = parseFloatParam(query, "price"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = parseFloatParam(query, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parseFloatParam(query, "max_price"); err != nil {
		return filter, err
	}

	filter.Limit = defaultSearchLimit
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid limit parameter")
		}
		filter.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("invalid offset parameter")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func parseFloatParam(query url.Values, name string) (*float64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New("invalid " + name + " parameter")
	}
	return &value, nil
}

func respondWithViolations(w http.ResponseWriter, validationErr *service.ValidationError) {
	utils.RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":      "validation failed",
		"violations": validationErr.Violations,
	})
}

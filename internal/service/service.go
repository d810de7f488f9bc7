package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	titleMaxLen       = 100
	descriptionMaxLen = 1000
	authorMaxLen      = 50

	searchLimitMax = 1000
)

type AdvertisementService interface {
	CreateAd(ctx context.Context, ad *domain.Advertisement) (*domain.Advertisement, error)
	GetAdByID(ctx context.Context, id int64) (*domain.Advertisement, error)
	UpdateAd(ctx context.Context, id int64, update domain.AdvertisementUpdate) (*domain.Advertisement, error)
	DeleteAd(ctx context.Context, id int64) error
	SearchAds(ctx context.Context, filter domain.SearchFilter) ([]*domain.Advertisement, error)
}

type advertisementService struct {
	repository repository.AdvertisementRepository
	metrics    *metrics.ServiceMetrics
	tracer     trace.Tracer
}

func NewAdvertisementService(repository repository.AdvertisementRepository, metrics *metrics.ServiceMetrics) AdvertisementService {
	tracer := otel.Tracer("advertisement-service/service")
	return &advertisementService{
		repository: repository,
		metrics:    metrics,
		tracer:     tracer,
	}
}

func (s *advertisementService) CreateAd(ctx context.Context, ad *domain.Advertisement) (*domain.Advertisement, error) {
	ctx, span := s.tracer.Start(ctx, "CreateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		s.metrics.MethodCount.WithLabelValues("CreateAd", status).Inc()
		s.metrics.MethodDuration.WithLabelValues("CreateAd", status).Observe(duration)
	}()

	if err := validateNewAd(ad); err != nil {
		status = "invalid"
		return nil, err
	}

	createdAd, err := s.repository.Create(ctx, ad)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("advertisement.id", createdAd.ID),
		attribute.String("advertisement.title", createdAd.Title),
		attribute.Float64("advertisement.price", createdAd.Price),
	)
	return createdAd, nil
}

func (s *advertisementService) GetAdByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "GetAdByID")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		s.metrics.MethodCount.WithLabelValues("GetAdByID", status).Inc()
		s.metrics.MethodDuration.WithLabelValues("GetAdByID", status).Observe(duration)
	}()

	ad, err := s.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))
	return ad, nil
}

func (s *advertisementService) UpdateAd(ctx context.Context, id int64, update domain.AdvertisementUpdate) (*domain.Advertisement, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "UpdateAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		s.metrics.MethodCount.WithLabelValues("UpdateAd", status).Inc()
		s.metrics.MethodDuration.WithLabelValues("UpdateAd", status).Observe(duration)
	}()

	if err := validateUpdate(update); err != nil {
		status = "invalid"
		return nil, err
	}

	updatedAd, err := s.repository.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("advertisement.id", updatedAd.ID),
		attribute.String("advertisement.title", updatedAd.Title),
		attribute.Float64("advertisement.price", updatedAd.Price),
	)
	return updatedAd, nil
}

func (s *advertisementService) DeleteAd(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	ctx, span := s.tracer.Start(ctx, "DeleteAd")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		s.metrics.MethodCount.WithLabelValues("DeleteAd", status).Inc()
		s.metrics.MethodDuration.WithLabelValues("DeleteAd", status).Observe(duration)
	}()

	err := s.repository.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return ErrAdNotFound
		}
		status = "error"
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int64("advertisement.id", id))
	return nil
}

func (s *advertisementService) SearchAds(ctx context.Context, filter domain.SearchFilter) ([]*domain.Advertisement, error) {
	ctx, span := s.tracer.Start(ctx, "SearchAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		s.metrics.MethodCount.WithLabelValues("SearchAds", status).Inc()
		s.metrics.MethodDuration.WithLabelValues("SearchAds", status).Observe(duration)
	}()

	if err := validateFilter(filter); err != nil {
		status = "invalid"
		return nil, err
	}

	ads, err := s.repository.Search(ctx, filter)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("search.limit", filter.Limit),
		attribute.Int("search.offset", filter.Offset),
		attribute.Int("search.results", len(ads)),
	)
	return ads, nil
}

func validateNewAd(ad *domain.Advertisement) error {
	var violations []FieldViolation

	violations = appendTitleViolation(violations, ad.Title)
	violations = appendDescriptionViolation(violations, ad.Description)
	violations = appendPriceViolation(violations, ad.Price)
	violations = appendAuthorViolation(violations, ad.Author)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// validateUpdate checks only the fields present in the mask. Absent fields
// are not the update's business.
func validateUpdate(update domain.AdvertisementUpdate) error {
	var violations []FieldViolation

	if update.Title != nil {
		violations = appendTitleViolation(violations, *update.Title)
	}
	if update.Description != nil {
		violations = appendDescriptionViolation(violations, *update.Description)
	}
	if update.Price != nil {
		violations = appendPriceViolation(violations, *update.Price)
	}
	if update.Author != nil {
		violations = appendAuthorViolation(violations, *update.Author)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// validateFilter enforces pagination and price-filter bounds. A contradictory
// range (min_price > max_price) is allowed and simply matches nothing.
func validateFilter(filter domain.SearchFilter) error {
	var violations []FieldViolation

	if filter.Limit < 1 || filter.Limit > searchLimitMax {
		violations = append(violations, FieldViolation{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", searchLimitMax),
		})
	}
	if filter.Offset < 0 {
		violations = append(violations, FieldViolation{
			Field:  "offset",
			Reason: "must not be negative",
		})
	}
	if filter.Price != nil && *filter.Price < 0 {
		violations = append(violations, FieldViolation{
			Field:  "price",
			Reason: "must not be negative",
		})
	}
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		violations = append(violations, FieldViolation{
			Field:  "min_price",
			Reason: "must not be negative",
		})
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		violations = append(violations, FieldViolation{
			Field:  "max_price",
			Reason: "must not be negative",
		})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func appendTitleViolation(violations []FieldViolation, title string) []FieldViolation {
	if n := utf8.RuneCountInString(title); n < 1 || n > titleMaxLen {
		violations = append(violations, FieldViolation{
			Field:  "title",
			Reason: fmt.Sprintf("must be between 1 and %d characters", titleMaxLen),
		})
	}
	return violations
}

func appendDescriptionViolation(violations []FieldViolation, description string) []FieldViolation {
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		violations = append(violations, FieldViolation{
			Field:  "description",
			Reason: fmt.Sprintf("must be at most %d characters", descriptionMaxLen),
		})
	}
	return violations
}

func appendPriceViolation(violations []FieldViolation, price float64) []FieldViolation {
	if price <= 0 {
		violations = append(violations, FieldViolation{
			Field:  "price",
			Reason: "must be greater than 0",
		})
	}
	return violations
}

func appendAuthorViolation(violations []FieldViolation, author string) []FieldViolation {
	if n := utf8.RuneCountInString(author); n < 1 || n > authorMaxLen {
		violations = append(violations, FieldViolation{
			Field:  "author",
			Reason: fmt.Sprintf("must be between 1 and %d characters", authorMaxLen),
		})
	}
	return violations
}

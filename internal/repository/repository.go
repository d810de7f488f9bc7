package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"advertisement-service/internal/domain"
	"advertisement-service/internal/infrastructure/cache"
	"advertisement-service/internal/infrastructure/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AdvertisementRepository interface {
	Create(ctx context.Context, ad *domain.Advertisement) (*domain.Advertisement, error)
	GetByID(ctx context.Context, id int64) (*domain.Advertisement, error)
	Update(ctx context.Context, id int64, update domain.AdvertisementUpdate) (*domain.Advertisement, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Advertisement, error)
}

const (
	adCacheTTL         = 10 * time.Minute
	defaultSearchKey   = "advertisements:default_page"
	defaultSearchLimit = 100
)

type mysqlAdvertisementRepository struct {
	db      *sql.DB
	cache   cache.Cache
	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

func NewMysqlAdvertisementRepository(db *sql.DB, cache cache.Cache, metrics *metrics.RepositoryMetrics) AdvertisementRepository {
	tracer := otel.Tracer("advertisement-service/repository")
	return &mysqlAdvertisementRepository{
		db:      db,
		cache:   cache,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (r *mysqlAdvertisementRepository) Create(ctx context.Context, ad *domain.Advertisement) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("advertisement.title", ad.Title),
		attribute.Float64("advertisement.price", ad.Price),
	)

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.QueryCount.WithLabelValues("Create", status).Inc()
		r.metrics.QueryDuration.WithLabelValues("Create", status).Observe(duration)
	}()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO advertisements (title, description, price, author) VALUES (?, ?, ?, ?)",
		ad.Title, ad.Description, ad.Price, ad.Author)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert advertisement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	inserted, err := r.selectByID(ctx, id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch inserted advertisement: %w", err)
	}

	r.invalidateSearchCache(ctx)

	return inserted, nil
}

func (r *mysqlAdvertisementRepository) GetByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	cacheKey := fmt.Sprintf("advertisement:%d", id)

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Get")
	cached, err := r.cache.Get(cacheSpanCtx, cacheKey)
	cacheSpan.End()

	if err == nil {
		var ad domain.Advertisement
		if err := json.Unmarshal([]byte(cached), &ad); err == nil {
			return &ad, nil
		}
	}

	ad, err := r.selectByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	adJSON, err := json.Marshal(ad)
	if err == nil {
		cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Set")
		r.cache.Set(cacheSpanCtx, cacheKey, string(adJSON), adCacheTTL)
		cacheSpan.End()
	}

	return ad, nil
}

func (r *mysqlAdvertisementRepository) Update(ctx context.Context, id int64, update domain.AdvertisementUpdate) (*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository Update")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.QueryCount.WithLabelValues("Update", status).Inc()
		r.metrics.QueryDuration.WithLabelValues("Update", status).Observe(duration)
	}()

	if !update.IsEmpty() {
		query, args := buildUpdateQuery(id, update)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			status = "error"
			span.RecordError(err)
			return nil, fmt.Errorf("failed to update advertisement: %w", err)
		}
	}

	// Re-read instead of trusting RowsAffected: MySQL reports zero affected
	// rows when the new values equal the old ones.
	updated, err := r.selectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, sql.ErrNoRows
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch updated advertisement: %w", err)
	}

	cacheKey := fmt.Sprintf("advertisement:%d", id)

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Delete")
	r.cache.Delete(cacheSpanCtx, cacheKey)
	cacheSpan.End()

	updatedJSON, err := json.Marshal(updated)
	if err == nil {
		cacheSpanCtx, cacheSpan = r.tracer.Start(ctx, "Redis Set")
		r.cache.Set(cacheSpanCtx, cacheKey, string(updatedJSON), adCacheTTL)
		cacheSpan.End()
	}

	r.invalidateSearchCache(ctx)

	return updated, nil
}

func (r *mysqlAdvertisementRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "Repository Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("advertisement.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.QueryCount.WithLabelValues("Delete", status).Inc()
		r.metrics.QueryDuration.WithLabelValues("Delete", status).Observe(duration)
	}()

	result, err := r.db.ExecContext(ctx, "DELETE FROM advertisements WHERE id = ?", id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to delete advertisement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return sql.ErrNoRows
	}

	cacheKey := fmt.Sprintf("advertisement:%d", id)

	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Delete")
	r.cache.Delete(cacheSpanCtx, cacheKey)
	cacheSpan.End()

	r.invalidateSearchCache(ctx)

	return nil
}

func (r *mysqlAdvertisementRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Advertisement, error) {
	ctx, span := r.tracer.Start(ctx, "Repository Search")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.QueryCount.WithLabelValues("Search", status).Inc()
		r.metrics.QueryDuration.WithLabelValues("Search", status).Observe(duration)
	}()

	isDefaultSearch := isUnfiltered(filter) && filter.Limit == defaultSearchLimit && filter.Offset == 0

	if isDefaultSearch {
		cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Get")
		cached, err := r.cache.Get(cacheSpanCtx, defaultSearchKey)
		cacheSpan.End()

		if err == nil {
			var ads []*domain.Advertisement
			if err := json.Unmarshal([]byte(cached), &ads); err == nil {
				return ads, nil
			}
		}
	}

	query, args := buildSearchQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(
			attribute.String("query", query),
			attribute.Int("limit", filter.Limit),
			attribute.Int("offset", filter.Offset),
		)
		return nil, fmt.Errorf("failed to search advertisements: %w", err)
	}
	defer rows.Close()

	ads := []*domain.Advertisement{}
	for rows.Next() {
		var ad domain.Advertisement
		if err := rows.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.Price, &ad.Author, &ad.CreatedAt); err != nil {
			status = "error"
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan advertisement: %w", err)
		}
		ads = append(ads, &ad)
	}

	if err := rows.Err(); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if isDefaultSearch {
		adsJSON, err := json.Marshal(ads)
		if err == nil {
			cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Set")
			r.cache.Set(cacheSpanCtx, defaultSearchKey, string(adsJSON), adCacheTTL)
			cacheSpan.End()
		}
	}

	return ads, nil
}

func (r *mysqlAdvertisementRepository) selectByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ad := &domain.Advertisement{}
	err := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan(
		&ad.ID,
		&ad.Title,
		&ad.Description,
		&ad.Price,
		&ad.Author,
		&ad.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ad, nil
}

func (r *mysqlAdvertisementRepository) invalidateSearchCache(ctx context.Context) {
	cacheSpanCtx, cacheSpan := r.tracer.Start(ctx, "Redis Delete")
	r.cache.Delete(cacheSpanCtx, defaultSearchKey)
	cacheSpan.End()
}

func isUnfiltered(filter domain.SearchFilter) bool {
	return filter.Title == nil && filter.Description == nil && filter.Author == nil &&
		filter.Price == nil && filter.MinPrice == nil && filter.MaxPrice == nil
}

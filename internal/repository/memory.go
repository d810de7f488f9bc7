package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"advertisement-service/internal/domain"
)

// memoryAdvertisementRepository implements AdvertisementRepository over a
// plain map. It exists so the service and handler layers can be tested
// without a running MySQL instance; each instance carries its own state, so
// parallel tests never share anything.
type memoryAdvertisementRepository struct {
	mu     sync.Mutex
	ads    map[int64]domain.Advertisement
	nextID int64
}

func NewMemoryAdvertisementRepository() AdvertisementRepository {
	return &memoryAdvertisementRepository{
		ads:    make(map[int64]domain.Advertisement),
		nextID: 1,
	}
}

func (r *memoryAdvertisementRepository) Create(ctx context.Context, ad *domain.Advertisement) (*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *ad
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	r.nextID++

	r.ads[stored.ID] = stored

	result := stored
	return &result, nil
}

func (r *memoryAdvertisementRepository) GetByID(ctx context.Context, id int64) (*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}

	result := ad
	return &result, nil
}

func (r *memoryAdvertisementRepository) Update(ctx context.Context, id int64, update domain.AdvertisementUpdate) (*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}

	if update.Title != nil {
		ad.Title = *update.Title
	}
	if update.Description != nil {
		ad.Description = *update.Description
	}
	if update.Price != nil {
		ad.Price = *update.Price
	}
	if update.Author != nil {
		ad.Author = *update.Author
	}

	r.ads[id] = ad

	result := ad
	return &result, nil
}

func (r *memoryAdvertisementRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ads[id]; !ok {
		return sql.ErrNoRows
	}

	delete(r.ads, id)
	return nil
}

func (r *memoryAdvertisementRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]domain.Advertisement, 0, len(r.ads))
	for _, ad := range r.ads {
		if matchesFilter(ad, filter) {
			matched = append(matched, ad)
		}
	}

	// Map iteration order is unspecified; sort by primary key so pagination
	// is stable, same as the SQL implementation.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	result := []*domain.Advertisement{}
	for i := filter.Offset; i < len(matched) && len(result) < filter.Limit; i++ {
		ad := matched[i]
		result = append(result, &ad)
	}

	return result, nil
}

func matchesFilter(ad domain.Advertisement, filter domain.SearchFilter) bool {
	if filter.Title != nil && !containsFold(ad.Title, *filter.Title) {
		return false
	}
	if filter.Description != nil && !containsFold(ad.Description, *filter.Description) {
		return false
	}
	if filter.Author != nil && !containsFold(ad.Author, *filter.Author) {
		return false
	}
	if filter.Price != nil && ad.Price != *filter.Price {
		return false
	}
	if filter.MinPrice != nil && ad.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && ad.Price > *filter.MaxPrice {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

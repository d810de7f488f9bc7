package repository

import (
	"testing"

	"advertisement-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQuery_NoFilters(t *testing.T) {
	query, args := buildSearchQuery(domain.SearchFilter{Limit: 100})

	assert.Equal(t,
		"SELECT id, title, description, price, author, created_at FROM advertisements ORDER BY id LIMIT ? OFFSET ?",
		query)
	assert.Equal(t, []interface{}{100, 0}, args)
}

func TestBuildSearchQuery_ConjunctivePredicates(t *testing.T) {
	query, args := buildSearchQuery(domain.SearchFilter{
		Title:    strPtr("Red"),
		MaxPrice: floatPtr(100),
		Limit:    50,
		Offset:   10,
	})

	assert.Equal(t,
		"SELECT id, title, description, price, author, created_at FROM advertisements"+
			" WHERE LOWER(title) LIKE ? AND price <= ? ORDER BY id LIMIT ? OFFSET ?",
		query)
	assert.Equal(t, []interface{}{"%red%", float64(100), 50, 10}, args)
}

func TestBuildSearchQuery_AllPredicates(t *testing.T) {
	query, args := buildSearchQuery(domain.SearchFilter{
		Title:       strPtr("bike"),
		Description: strPtr("new"),
		Author:      strPtr("al"),
		Price:       floatPtr(25),
		MinPrice:    floatPtr(10),
		MaxPrice:    floatPtr(100),
		Limit:       100,
	})

	assert.Contains(t, query, "LOWER(title) LIKE ?")
	assert.Contains(t, query, "LOWER(description) LIKE ?")
	assert.Contains(t, query, "LOWER(author) LIKE ?")
	assert.Contains(t, query, "price = ?")
	assert.Contains(t, query, "price >= ?")
	assert.Contains(t, query, "price <= ?")
	assert.Len(t, args, 8)
}

func TestBuildSearchQuery_LowercasesPattern(t *testing.T) {
	_, args := buildSearchQuery(domain.SearchFilter{
		Author: strPtr("ALICE"),
		Limit:  100,
	})

	assert.Equal(t, "%alice%", args[0])
}

func TestBuildUpdateQuery_PartialMask(t *testing.T) {
	query, args := buildUpdateQuery(7, domain.AdvertisementUpdate{
		Price: floatPtr(20),
	})

	assert.Equal(t, "UPDATE advertisements SET price = ? WHERE id = ?", query)
	assert.Equal(t, []interface{}{float64(20), int64(7)}, args)
}

func TestBuildUpdateQuery_FullMask(t *testing.T) {
	query, args := buildUpdateQuery(3, domain.AdvertisementUpdate{
		Title:       strPtr("Road Bike"),
		Description: strPtr(""),
		Price:       floatPtr(15),
		Author:      strPtr("Bob"),
	})

	assert.Equal(t,
		"UPDATE advertisements SET title = ?, description = ?, price = ?, author = ? WHERE id = ?",
		query)
	assert.Equal(t, []interface{}{"Road Bike", "", float64(15), "Bob", int64(3)}, args)
}

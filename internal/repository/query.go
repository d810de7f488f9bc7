package repository

import (
	"strings"

	"advertisement-service/internal/domain"
)

const selectColumns = "SELECT id, title, description, price, author, created_at FROM advertisements"

// buildSearchQuery folds the supplied predicates into a conjunctive WHERE
// clause. Absent predicates contribute nothing. Ordering is always by primary
// key so pagination stays stable across pages.
func buildSearchQuery(filter domain.SearchFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Title != nil {
		conditions = append(conditions, "LOWER(title) LIKE ?")
		args = append(args, substringPattern(*filter.Title))
	}
	if filter.Description != nil {
		conditions = append(conditions, "LOWER(description) LIKE ?")
		args = append(args, substringPattern(*filter.Description))
	}
	if filter.Author != nil {
		conditions = append(conditions, "LOWER(author) LIKE ?")
		args = append(args, substringPattern(*filter.Author))
	}
	if filter.Price != nil {
		conditions = append(conditions, "price = ?")
		args = append(args, *filter.Price)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	var sb strings.Builder
	sb.WriteString(selectColumns)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY id LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Offset)

	return sb.String(), args
}

func substringPattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// buildUpdateQuery writes only the fields present in the mask. Callers must
// not pass an empty mask.
func buildUpdateQuery(id int64, update domain.AdvertisementUpdate) (string, []interface{}) {
	var assignments []string
	var args []interface{}

	if update.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		assignments = append(assignments, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Price != nil {
		assignments = append(assignments, "price = ?")
		args = append(args, *update.Price)
	}
	if update.Author != nil {
		assignments = append(assignments, "author = ?")
		args = append(args, *update.Author)
	}

	query := "UPDATE advertisements SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	args = append(args, id)

	return query, args
}

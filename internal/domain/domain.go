package domain

import "time"

type Advertisement struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdvertisementUpdate is a field-presence mask for partial updates: a nil
// field means "leave untouched", a non-nil field means "set to this value",
// so setting description to the empty string stays distinguishable from not
// sending the field at all.
type AdvertisementUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Author      *string  `json:"author"`
}

func (u AdvertisementUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.Author == nil
}

// SearchFilter holds the optional search predicates. A nil field means no
// constraint on that column. Supplied predicates combine with AND.
type SearchFilter struct {
	Title       *string
	Description *string
	Author      *string
	Price       *float64
	MinPrice    *float64
	MaxPrice    *float64
	Limit       int
	Offset      int
}

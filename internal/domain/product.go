package domain

import "time"

type Product struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description" json:"description"`
	Category    string    `bson:"category" json:"category"`
	Collection  string    `bson:"collection,omitempty" json:"collection,omitempty"`
	Price       Amount    `bson:"price" json:"price"`
	Images      []string  `bson:"images" json:"images"`
	Stock       int       `bson:"stock" json:"stock"`
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Collection struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description" json:"description"`
	Image       string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// ProductFilter drives catalog listing. Zero values mean "no constraint".
type ProductFilter struct {
	Query      string
	Category   string
	Collection string
	MinPrice   *Amount
	MaxPrice   *Amount
	ActiveOnly bool
	Sort       SortSpec
	Pagination Pagination
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Review is a single rating left on a product. It has no identity of its own.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewList is stored as a JSON column on the product row.
type ReviewList []Review

func (l ReviewList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ReviewList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = ReviewList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ReviewList", value)
	}

	var out ReviewList
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = ReviewList{}
	}
	*l = out
	return nil
}

// Product represents a product in the store.
type Product struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	Price        int64      `json:"price" gorm:"not null;default:0"`
	Description  string     `json:"description"`
	Category     string     `json:"category" gorm:"type:varchar(100);index"`
	Reviews      ReviewList `json:"reviews" gorm:"type:jsonb"`
	Rating       float64    `json:"rating" gorm:"not null;default:0"`
	TotalReviews int        `json:"total_reviews" gorm:"not null;default:0"`
	Version      int64      `json:"-" gorm:"not null;default:0"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewProduct builds a product with its own empty review list and zeroed aggregates.
func NewProduct(name string, price int64, description, category string) *Product {
	return &Product{
		Name:        name,
		Price:       price,
		Description: description,
		Category:    category,
		Reviews:     ReviewList{},
	}
}

// AppendReview adds r as the newest review and recomputes TotalReviews and Rating.
func (p *Product) AppendReview(r Review) {
	reviews := make(ReviewList, len(p.Reviews), len(p.Reviews)+1)
	copy(reviews, p.Reviews)
	p.Reviews = append(reviews, r)
	p.recomputeRating()
}

func (p *Product) recomputeRating() {
	p.TotalReviews = len(p.Reviews)
	if p.TotalReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.TotalReviews)
}

// Clone returns a deep copy so callers never share the review slice.
func (p *Product) Clone() *Product {
	c := *p
	c.Reviews = make(ReviewList, len(p.Reviews))
	copy(c.Reviews, p.Reviews)
	return &c
}

package models_test

import (
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct_FreshReviewList(t *testing.T) {
	a := models.NewProduct("A", 1, "d", "c")
	b := models.NewProduct("B", 2, "d", "c")

	assert.NotNil(t, a.Reviews)
	assert.Empty(t, a.Reviews)
	assert.Zero(t, a.Rating)
	assert.Zero(t, a.TotalReviews)

	a.AppendReview(models.Review{Rating: 5, Comment: "x"})
	assert.Len(t, a.Reviews, 1)
	assert.Empty(t, b.Reviews, "review lists must not alias between products")
}

func TestProduct_AppendReview(t *testing.T) {
	p := models.NewProduct("Widget", 10, "d", "c")

	p.AppendReview(models.Review{Rating: 8, Comment: "good", CreatedAt: time.Now()})
	assert.Equal(t, 1, p.TotalReviews)
	assert.Equal(t, 8.0, p.Rating)

	p.AppendReview(models.Review{Rating: 4, Comment: "meh", CreatedAt: time.Now()})
	assert.Equal(t, 2, p.TotalReviews)
	assert.Equal(t, 6.0, p.Rating)
	require.Len(t, p.Reviews, 2)
	assert.Equal(t, "good", p.Reviews[0].Comment)
	assert.Equal(t, "meh", p.Reviews[1].Comment)

	// Mean is not rounded.
	p.AppendReview(models.Review{Rating: 1, Comment: "bad"})
	assert.InDelta(t, 13.0/3.0, p.Rating, 1e-9)
}

func TestProduct_CloneDoesNotShareReviews(t *testing.T) {
	p := models.NewProduct("Widget", 10, "d", "c")
	p.AppendReview(models.Review{Rating: 3})

	c := p.Clone()
	c.AppendReview(models.Review{Rating: 9})

	assert.Len(t, p.Reviews, 1)
	assert.Len(t, c.Reviews, 2)
}

func TestReviewList_ValueScan(t *testing.T) {
	var empty models.ReviewList
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var scanned models.ReviewList
	require.NoError(t, scanned.Scan(nil))
	assert.NotNil(t, scanned)
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan([]byte(`[{"rating":7,"comment":"ok","created_at":"2024-01-02T03:04:05Z"}]`)))
	require.Len(t, scanned, 1)
	assert.Equal(t, 7, scanned[0].Rating)

	require.NoError(t, scanned.Scan("null"))
	assert.NotNil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

package movie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectAppliesFallbacks(t *testing.T) {
	d := Project(Movie{ID: "tt9999999"})
	assert.Equal(t, "tt9999999", d.ID)
	assert.Equal(t, "Unknown Title", d.Title)
	assert.Equal(t, PosterPlaceholder, d.Poster)
	assert.Zero(t, d.Year)
	assert.Zero(t, d.RuntimeMin)
}

func TestProjectKeepsPresentFields(t *testing.T) {
	d := Project(Movie{
		ID:         "tt0133093",
		Title:      "The Matrix",
		Year:       1999,
		RuntimeMin: 136,
		Poster:     "https://example.com/matrix.jpg",
		Director:   "Lana Wachowski, Lilly Wachowski",
	})
	assert.Equal(t, "The Matrix", d.Title)
	assert.Equal(t, 1999, d.Year)
	assert.Equal(t, 136, d.RuntimeMin)
	assert.Equal(t, "https://example.com/matrix.jpg", d.Poster)
	assert.Equal(t, "Lana Wachowski, Lilly Wachowski", d.Director)
}

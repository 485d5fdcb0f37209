// Package movie defines the canonical movie value type used across the
// metadata provider, the roster and night nominations. Provider payloads are
// converted into this shape exactly once, at the provider boundary; no layer
// downstream re-shapes the record.
package movie

// PosterPlaceholder is served when a catalogued movie has no poster URL.
const PosterPlaceholder = "/assets/poster-placeholder.png"

// Movie carries the descriptive fields cached from the metadata provider.
// ID is the provider's external identifier (IMDb id) and is the unique key
// for both the roster and night nominations.
type Movie struct {
	ID         string `json:"imdb_id"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
	RuntimeMin int    `json:"runtime_min,omitempty"`
	Poster     string `json:"poster,omitempty"`
	Rated      string `json:"rated,omitempty"`
	Released   string `json:"released,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Director   string `json:"director,omitempty"`
	Writer     string `json:"writer,omitempty"`
	Actors     string `json:"actors,omitempty"`
	Plot       string `json:"plot,omitempty"`
	Language   string `json:"language,omitempty"`
	Country    string `json:"country,omitempty"`
	Awards     string `json:"awards,omitempty"`
	IMDBRating string `json:"imdb_rating,omitempty"`
	Metascore  string `json:"metascore,omitempty"`
	Type       string `json:"type,omitempty"`
	BoxOffice  string `json:"box_office,omitempty"`
}

// Display is the flat shape handed to clients when listing the roster or a
// night's nominations. Missing fields get defined fallbacks instead of
// nulls: title "Unknown Title", year/runtime 0, poster a placeholder asset.
type Display struct {
	ID         string `json:"imdb_id"`
	Title      string `json:"title"`
	Year       int    `json:"year"`
	RuntimeMin int    `json:"runtime_min"`
	Poster     string `json:"poster"`
	Genre      string `json:"genre,omitempty"`
	Director   string `json:"director,omitempty"`
	Actors     string `json:"actors,omitempty"`
	Plot       string `json:"plot,omitempty"`
	IMDBRating string `json:"imdb_rating,omitempty"`
}

// Project maps a cached Movie into its Display shape, applying fallbacks for
// absent fields.
func Project(m Movie) Display {
	d := Display{
		ID:         m.ID,
		Title:      m.Title,
		Year:       m.Year,
		RuntimeMin: m.RuntimeMin,
		Poster:     m.Poster,
		Genre:      m.Genre,
		Director:   m.Director,
		Actors:     m.Actors,
		Plot:       m.Plot,
		IMDBRating: m.IMDBRating,
	}
	if d.Title == "" {
		d.Title = "Unknown Title"
	}
	if d.Poster == "" {
		d.Poster = PosterPlaceholder
	}
	return d
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookcatalog/pkg/models"
)

func TestPlaceholderCover(t *testing.T) {
	assert.Equal(t, "/placeholder.svg?height=300&width=200&text=The+Hobbit", PlaceholderCover("The Hobbit"))
	assert.Equal(t, "/placeholder.svg?height=300&width=200&text=Tom+%26+Jerry", PlaceholderCover("Tom & Jerry"))
}

func TestWithCover(t *testing.T) {
	real := "https://covers.example.org/dune.jpg"

	cases := []struct {
		name     string
		in       models.BookFields
		previous *models.Book
		want     string
	}{
		{
			name: "create without cover",
			in:   models.BookFields{Title: "Dune"},
			want: PlaceholderCover("Dune"),
		},
		{
			name: "create with cover",
			in:   models.BookFields{Title: "Dune", CoverURL: real},
			want: real,
		},
		{
			name:     "rename regenerates placeholder",
			in:       models.BookFields{Title: "Dune Messiah", CoverURL: PlaceholderCover("Dune")},
			previous: &models.Book{Title: "Dune", CoverURL: PlaceholderCover("Dune")},
			want:     PlaceholderCover("Dune Messiah"),
		},
		{
			name:     "update without cover keeps real one",
			in:       models.BookFields{Title: "Dune Messiah"},
			previous: &models.Book{Title: "Dune", CoverURL: real},
			want:     real,
		},
		{
			name:     "update replaces real cover",
			in:       models.BookFields{Title: "Dune", CoverURL: "https://covers.example.org/new.jpg"},
			previous: &models.Book{Title: "Dune", CoverURL: real},
			want:     "https://covers.example.org/new.jpg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, withCover(tc.in, tc.previous).CoverURL)
		})
	}
}

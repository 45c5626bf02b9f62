package catalog

import (
	"net/url"
	"strings"

	"bookcatalog/pkg/models"
)

const placeholderPrefix = "/placeholder.svg?"

// PlaceholderCover builds the generated cover used when a book has no image.
func PlaceholderCover(title string) string {
	return placeholderPrefix + "height=300&width=200&text=" + url.QueryEscape(title)
}

func isPlaceholderCover(u string) bool {
	return u == "" || strings.HasPrefix(u, placeholderPrefix)
}

// withCover fills or refreshes a generated cover. A cover the user supplied is
// kept as is.
func withCover(f models.BookFields, previous *models.Book) models.BookFields {
	switch {
	case f.CoverURL != "" && !isPlaceholderCover(f.CoverURL):
		return f
	case previous != nil && !isPlaceholderCover(previous.CoverURL) && f.CoverURL == "":
		f.CoverURL = previous.CoverURL
		return f
	default:
		f.CoverURL = PlaceholderCover(f.Title)
		return f
	}
}

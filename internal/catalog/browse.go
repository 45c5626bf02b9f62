package catalog

import (
	"cmp"
	"slices"
	"strings"

	"bookcatalog/pkg/models"
)

// BrowseOptions narrows and orders an already fetched list. Nothing here is
// pushed into SQL.
type BrowseOptions struct {
	Query     string // substring of title or author
	Genre     string
	Language  string
	YearFrom  int
	YearTo    int
	MinRating float64
	SortBy    string // title, author, year, rating, added_date
	Desc      bool
}

var sortKeys = map[string]func(a, b models.Book) int{
	"title":  func(a, b models.Book) int { return cmp.Compare(a.Title, b.Title) },
	"author": func(a, b models.Book) int { return cmp.Compare(a.Author, b.Author) },
	"year": func(a, b models.Book) int {
		return cmpOptional(a.Year, b.Year)
	},
	"rating": func(a, b models.Book) int {
		return cmpOptional(a.Rating, b.Rating)
	},
	"added_date": func(a, b models.Book) int { return cmp.Compare(a.AddedDate, b.AddedDate) },
}

// ValidSortKey reports whether Browse understands key.
func ValidSortKey(key string) bool {
	_, ok := sortKeys[key]
	return ok || key == ""
}

// Browse returns the books matching opts in the requested order. The input
// slice is not modified.
func Browse(books []models.Book, opts BrowseOptions) []models.Book {
	q := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if opts.Genre != "" && !strings.EqualFold(b.Genre, opts.Genre) {
			continue
		}
		if opts.Language != "" && !strings.EqualFold(b.Language, opts.Language) {
			continue
		}
		if opts.YearFrom > 0 && (b.Year == nil || *b.Year < opts.YearFrom) {
			continue
		}
		if opts.YearTo > 0 && (b.Year == nil || *b.Year > opts.YearTo) {
			continue
		}
		if opts.MinRating > 0 && (b.Rating == nil || *b.Rating < opts.MinRating) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		out = append(out, b)
	}

	less, ok := sortKeys[opts.SortBy]
	if !ok {
		less = sortKeys["title"]
	}
	slices.SortStableFunc(out, func(a, b models.Book) int {
		c := less(a, b)
		if opts.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Title, b.Title)
		}
		return c
	})
	return out
}

// cmpOptional orders missing values after present ones; a descending sort
// therefore lists them first.
func cmpOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

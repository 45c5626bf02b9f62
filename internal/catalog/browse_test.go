package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bookcatalog/pkg/models"
)

func floatp(v float64) *float64 { return &v }

func browseFixture() []models.Book {
	return []models.Book{
		{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", Year: intp(1937), Rating: floatp(4.3), Language: "English", AddedDate: "2024-01-03 00:00:00"},
		{ID: 2, Title: "1984", Author: "George Orwell", Genre: "Dystopian", Year: intp(1949), Rating: floatp(4.2), Language: "English", AddedDate: "2024-01-01 00:00:00"},
		{ID: 3, Title: "Der Prozess", Author: "Franz Kafka", Genre: "Fiction", Year: intp(1925), Language: "German", AddedDate: "2024-01-02 00:00:00"},
		{ID: 4, Title: "Untitled", Author: "Anonymous"},
	}
}

func TestBrowseDefaultsToTitleOrder(t *testing.T) {
	got := Browse(browseFixture(), BrowseOptions{})
	assert.Equal(t, []string{"1984", "Der Prozess", "The Hobbit", "Untitled"}, titles(got))
}

func TestBrowseDoesNotModifyInput(t *testing.T) {
	in := browseFixture()
	_ = Browse(in, BrowseOptions{SortBy: "year", Desc: true})
	assert.Equal(t, browseFixture(), in)
}

func TestBrowseFilters(t *testing.T) {
	cases := []struct {
		name string
		opts BrowseOptions
		want []string
	}{
		{"genre ignores case", BrowseOptions{Genre: "fantasy"}, []string{"The Hobbit"}},
		{"language", BrowseOptions{Language: "German"}, []string{"Der Prozess"}},
		{"year from", BrowseOptions{YearFrom: 1930}, []string{"1984", "The Hobbit"}},
		{"year range", BrowseOptions{YearFrom: 1920, YearTo: 1940}, []string{"Der Prozess", "The Hobbit"}},
		{"min rating drops unrated", BrowseOptions{MinRating: 4.25}, []string{"The Hobbit"}},
		{"query matches author", BrowseOptions{Query: " orwell "}, []string{"1984"}},
		{"query ignores genre", BrowseOptions{Query: "dystopian"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(Browse(browseFixture(), tc.opts)))
		})
	}
}

func TestBrowseSort(t *testing.T) {
	cases := []struct {
		name string
		opts BrowseOptions
		want []string
	}{
		{"year asc missing last", BrowseOptions{SortBy: "year"}, []string{"Der Prozess", "The Hobbit", "1984", "Untitled"}},
		{"rating desc", BrowseOptions{SortBy: "rating", Desc: true}, []string{"Der Prozess", "Untitled", "The Hobbit", "1984"}},
		{"author", BrowseOptions{SortBy: "author"}, []string{"Untitled", "Der Prozess", "1984", "The Hobbit"}},
		{"added date", BrowseOptions{SortBy: "added_date"}, []string{"Untitled", "1984", "Der Prozess", "The Hobbit"}},
		{"title desc", BrowseOptions{SortBy: "title", Desc: true}, []string{"Untitled", "The Hobbit", "Der Prozess", "1984"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, titles(Browse(browseFixture(), tc.opts)))
		})
	}
}

func TestValidSortKey(t *testing.T) {
	for _, k := range []string{"", "title", "author", "year", "rating", "added_date"} {
		assert.True(t, ValidSortKey(k), k)
	}
	assert.False(t, ValidSortKey("isbn"))
}

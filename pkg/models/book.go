package models

import "strings"

// AddedDateLayout is the on-disk format of Book.AddedDate.
const AddedDateLayout = "2006-01-02 15:04:05"

type Book struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre,omitempty"`
	Year        *int     `json:"year,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Pages       *int     `json:"pages,omitempty"`
	Language    string   `json:"language,omitempty"`
	AddedDate   string   `json:"added_date"`
}

// BookFields is the replaceable part of a Book: everything except the id and
// the creation timestamp.
type BookFields struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre,omitempty"`
	Year        *int     `json:"year,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Pages       *int     `json:"pages,omitempty"`
	Language    string   `json:"language,omitempty"`
}

func (b Book) Fields() BookFields {
	return BookFields{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Year:        b.Year,
		ISBN:        b.ISBN,
		Description: b.Description,
		CoverURL:    b.CoverURL,
		Rating:      b.Rating,
		Pages:       b.Pages,
		Language:    b.Language,
	}
}

// Normalize trims surrounding whitespace from every text field.
func (f BookFields) Normalize() BookFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.Genre = strings.TrimSpace(f.Genre)
	f.ISBN = strings.TrimSpace(f.ISBN)
	f.Description = strings.TrimSpace(f.Description)
	f.CoverURL = strings.TrimSpace(f.CoverURL)
	f.Language = strings.TrimSpace(f.Language)
	return f
}

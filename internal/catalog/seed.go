package catalog

import "bookcatalog/pkg/models"

// Genres is the vocabulary offered by the add/edit form. Free text is still
// accepted by the store.
var Genres = []string{
	"Fiction", "Non-Fiction", "Science Fiction", "Fantasy",
	"Mystery", "Thriller", "Romance", "Biography",
	"History", "Self-Help", "Other",
}

type seedBook struct {
	title, author, genre string
	year                 int
	isbn, description    string
	rating               float64
	pages                int
}

var seedBooks = []seedBook{
	{"To Kill a Mockingbird", "Harper Lee", "Fiction", 1960, "978-0061120084",
		"A classic of modern American literature about racial inequality.", 4.3, 336},
	{"1984", "George Orwell", "Dystopian", 1949, "978-0451524935",
		"A dystopian social science fiction novel about totalitarianism.", 4.2, 328},
	{"The Great Gatsby", "F. Scott Fitzgerald", "Classic", 1925, "978-0743273565",
		"A novel about the American Dream set in the Roaring Twenties.", 3.9, 180},
	{"Pride and Prejudice", "Jane Austen", "Romance", 1813, "978-0141439518",
		"A romantic novel of manners that depicts the emotional development of Elizabeth Bennet.", 4.3, 432},
	{"The Hobbit", "J.R.R. Tolkien", "Fantasy", 1937, "978-0547928227",
		"A fantasy novel about the adventures of hobbit Bilbo Baggins.", 4.3, 310},
	{"The Lord of the Rings", "J.R.R. Tolkien", "Fantasy", 1954, "978-0544003415",
		"An epic high-fantasy quest to destroy the One Ring.", 4.5, 1178},
	{"The Catcher in the Rye", "J.D. Salinger", "Fiction", 1951, "978-0316769488",
		"Holden Caulfield's restless days in New York after leaving prep school.", 3.8, 277},
	{"Moby-Dick", "Herman Melville", "Classic", 1851, "978-0142437247",
		"Captain Ahab's obsessive hunt for the white whale.", 3.5, 720},
	{"Brave New World", "Aldous Huxley", "Dystopian", 1932, "978-0060850524",
		"An engineered society kept content by conditioning and soma.", 4.0, 288},
	{"Jane Eyre", "Charlotte Brontë", "Romance", 1847, "978-0141441146",
		"An orphaned governess finds independence and love at Thornfield Hall.", 4.1, 532},
}

// SeedBooks returns the fixed set inserted into an empty catalog.
func SeedBooks() []models.BookFields {
	out := make([]models.BookFields, 0, len(seedBooks))
	for _, s := range seedBooks {
		year, rating, pages := s.year, s.rating, s.pages
		out = append(out, models.BookFields{
			Title:       s.title,
			Author:      s.author,
			Genre:       s.genre,
			Year:        &year,
			ISBN:        s.isbn,
			Description: s.description,
			CoverURL:    PlaceholderCover(s.title),
			Rating:      &rating,
			Pages:       &pages,
			Language:    "English",
		})
	}
	return out
}

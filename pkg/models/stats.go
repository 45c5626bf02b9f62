package models

// CountBucket is one row of a GROUP BY frequency table.
type CountBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalBooks    int           `json:"total_books"`
	TotalAuthors  int           `json:"total_authors"`
	AverageRating *float64      `json:"average_rating,omitempty"`
	ByGenre       []CountBucket `json:"by_genre"`
	ByLanguage    []CountBucket `json:"by_language"`
	ByYear        []CountBucket `json:"by_year"`
}

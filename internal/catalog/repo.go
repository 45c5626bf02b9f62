package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookcatalog/pkg/database"
	"bookcatalog/pkg/models"
)

// Repo is the catalog store. Every method is a single statement (or a single
// read transaction for Statistics) against the books table.
type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, Now: time.Now}
}

const bookColumns = `id, title, author, genre, year, isbn, description, cover_url, rating, pages, language, added_date`

// Initialize brings the schema up to date and seeds an empty catalog.
// Calling it on every start is safe.
func (r *Repo) Initialize(ctx context.Context) error {
	if err := database.Migrate(r.DB); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	added := r.addedDate()
	for _, f := range SeedBooks() {
		if _, err := stmt.ExecContext(ctx, append(fieldArgs(f), added)...); err != nil {
			return fmt.Errorf("insert seed %q: %w", f.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func (r *Repo) ListAll(ctx context.Context) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		ORDER BY title ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	return collectBooks(rows)
}

// GetByID returns (nil, nil) when no book has the given id.
func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE id = ?
	`, id)

	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &b, nil
}

const insertSQL = `
	INSERT INTO books (title, author, genre, year, isbn, description, cover_url, rating, pages, language, added_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Add stores a new book and returns its id. Required fields are the caller's
// concern; the store accepts whatever it is given.
func (r *Repo) Add(ctx context.Context, f models.BookFields) (int64, error) {
	res, err := r.DB.ExecContext(ctx, insertSQL, append(fieldArgs(f), r.addedDate())...)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Update replaces every mutable field of the book. It reports false when no
// book has the given id. added_date is never written.
func (r *Repo) Update(ctx context.Context, id int64, f models.BookFields) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE books
		SET title = ?, author = ?, genre = ?, year = ?, isbn = ?, description = ?,
			cover_url = ?, rating = ?, pages = ?, language = ?
		WHERE id = ?
	`, append(fieldArgs(f), id)...)
	if err != nil {
		return false, fmt.Errorf("update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete reports false when nothing was removed; deleting twice is not an error.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}
	return n > 0, nil
}

// Search matches q as a literal, case-insensitive substring of title, author,
// genre, isbn or language. A blank query matches nothing.
func (r *Repo) Search(ctx context.Context, q string) ([]models.Book, error) {
	if strings.TrimSpace(q) == "" {
		return []models.Book{}, nil
	}
	kw := likePattern(q)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE LOWER(title) LIKE ? ESCAPE '\'
		   OR LOWER(author) LIKE ? ESCAPE '\'
		   OR LOWER(genre) LIKE ? ESCAPE '\'
		   OR LOWER(isbn) LIKE ? ESCAPE '\'
		   OR LOWER(language) LIKE ? ESCAPE '\'
		ORDER BY title ASC, id ASC
	`, kw, kw, kw, kw, kw)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	return collectBooks(rows)
}

// Statistics reads all aggregates inside one transaction so the numbers agree
// with each other.
func (r *Repo) Statistics(ctx context.Context) (*models.Stats, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin stats tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		st  models.Stats
		avg sql.NullFloat64
	)
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT author), AVG(rating)
		FROM books
	`).Scan(&st.TotalBooks, &st.TotalAuthors, &avg); err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	if avg.Valid {
		v := avg.Float64
		st.AverageRating = &v
	}

	if st.ByGenre, err = countBuckets(ctx, tx, `
		SELECT genre, COUNT(*) AS n
		FROM books
		WHERE genre IS NOT NULL AND genre <> ''
		GROUP BY genre
		ORDER BY n DESC, genre ASC
	`); err != nil {
		return nil, fmt.Errorf("stats by genre: %w", err)
	}

	if st.ByLanguage, err = countBuckets(ctx, tx, `
		SELECT language, COUNT(*) AS n
		FROM books
		WHERE language IS NOT NULL AND language <> ''
		GROUP BY language
		ORDER BY n DESC, language ASC
	`); err != nil {
		return nil, fmt.Errorf("stats by language: %w", err)
	}

	if st.ByYear, err = countBuckets(ctx, tx, `
		SELECT CAST(year AS TEXT), COUNT(*) AS n
		FROM books
		WHERE year IS NOT NULL
		GROUP BY year
		ORDER BY year ASC
	`); err != nil {
		return nil, fmt.Errorf("stats by year: %w", err)
	}

	return &st, nil
}

func (r *Repo) addedDate() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().UTC().Format(models.AddedDateLayout)
}

func countBuckets(ctx context.Context, tx *sql.Tx, query string) ([]models.CountBucket, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.CountBucket, 0)
	for rows.Next() {
		var b models.CountBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var (
		b           models.Book
		genre       sql.NullString
		year        sql.NullInt64
		isbn        sql.NullString
		description sql.NullString
		coverURL    sql.NullString
		rating      sql.NullFloat64
		pages       sql.NullInt64
		language    sql.NullString
	)

	if err := row.Scan(
		&b.ID, &b.Title, &b.Author, &genre, &year, &isbn, &description,
		&coverURL, &rating, &pages, &language, &b.AddedDate,
	); err != nil {
		return models.Book{}, err
	}

	b.Genre = genre.String
	b.ISBN = isbn.String
	b.Description = description.String
	b.CoverURL = coverURL.String
	b.Language = language.String
	if year.Valid {
		v := int(year.Int64)
		b.Year = &v
	}
	if pages.Valid {
		v := int(pages.Int64)
		b.Pages = &v
	}
	if rating.Valid {
		v := rating.Float64
		b.Rating = &v
	}
	return b, nil
}

func collectBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()

	out := make([]models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// fieldArgs returns the mutable columns in insert/update order.
func fieldArgs(f models.BookFields) []any {
	return []any{
		f.Title,
		f.Author,
		nullString(f.Genre),
		nullInt(f.Year),
		nullString(f.ISBN),
		nullString(f.Description),
		nullString(f.CoverURL),
		nullFloat(f.Rating),
		nullInt(f.Pages),
		nullString(f.Language),
	}
}

func likePattern(q string) string {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + esc.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ParseID parses a positive book id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/catalog"
	"bookcatalog/internal/logging"
	"bookcatalog/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type bookListResponse struct {
	Query string        `json:"query,omitempty"`
	Total int           `json:"total"`
	Items []models.Book `json:"items"`
}

var log *slog.Logger

func main() {
	log = logging.Init(logging.FromEnv())

	global := flag.NewFlagSet("bookcatalog", flag.ExitOnError)
	baseURL := global.String("api", envOr("BOOKCATALOG_API", defaultBaseURL), "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "books":
		handleBooks(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "stats":
		var st models.Stats
		if err := doJSON(ctx, client, http.MethodGet, *baseURL+"/stats", "", nil, &st); err != nil {
			fatalf("stats failed: %v", err)
		}
		printJSON(st)
	case "genres":
		var resp struct {
			Items []string `json:"items"`
		}
		if err := doJSON(ctx, client, http.MethodGet, *baseURL+"/genres", "", nil, &resp); err != nil {
			fatalf("genres failed: %v", err)
		}
		for _, g := range resp.Items {
			fmt.Println(g)
		}
	case "sync":
		handleSync(*baseURL, sub, rest)
	case "export":
		handleExport(ctx, client, *baseURL, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "editor", "editor username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *password == "" {
			fatalf("password is required")
		}

		payload := map[string]string{"username": *username, "password": *password}
		var resp loginResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, tokenData(resp)); err != nil {
			fatalf("save token: %v", err)
		}
		fmt.Printf("logged in until %s\n", resp.ExpiresAt.Local().Format(time.RFC1123))
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	case "hash-password":
		fs := flag.NewFlagSet("auth hash-password", flag.ExitOnError)
		password := fs.String("password", "", "password to hash")
		_ = fs.Parse(args)

		hash, err := auth.HashPassword(*password)
		if err != nil {
			fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
	default:
		fatalf("usage: bookcatalog auth <login|logout|hash-password>")
	}
}

func handleBooks(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("books list", flag.ExitOnError)
		query := fs.String("q", "", "title or author contains")
		genre := fs.String("genre", "", "genre filter")
		language := fs.String("language", "", "language filter")
		yearFrom := fs.Int("year-from", 0, "earliest year")
		yearTo := fs.Int("year-to", 0, "latest year")
		minRating := fs.Float64("min-rating", 0, "minimum rating")
		sortBy := fs.String("sort", "title", "title|author|year|rating|added_date")
		order := fs.String("order", "asc", "asc|desc")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/books")
		if err != nil {
			fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		setIf(qv, "q", *query)
		setIf(qv, "genre", *genre)
		setIf(qv, "language", *language)
		if *yearFrom > 0 {
			qv.Set("year_from", strconv.Itoa(*yearFrom))
		}
		if *yearTo > 0 {
			qv.Set("year_to", strconv.Itoa(*yearTo))
		}
		if *minRating > 0 {
			qv.Set("min_rating", strconv.FormatFloat(*minRating, 'f', -1, 64))
		}
		qv.Set("sort", *sortBy)
		qv.Set("order", *order)
		u.RawQuery = qv.Encode()

		var resp bookListResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			fatalf("list failed: %v", err)
		}
		printBooks(resp)
	case "search":
		fs := flag.NewFlagSet("books search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		_ = fs.Parse(args)
		if strings.TrimSpace(*query) == "" {
			fatalf("search query is required")
		}

		var resp bookListResponse
		endpoint := baseURL + "/books/search?q=" + url.QueryEscape(*query)
		if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
			fatalf("search failed: %v", err)
		}
		printBooks(resp)
	case "show":
		fs := flag.NewFlagSet("books show", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)

		b, err := getBook(ctx, client, baseURL, *id)
		if err != nil {
			fatalf("show failed: %v", err)
		}
		printJSON(b)
	case "add":
		fs := flag.NewFlagSet("books add", flag.ExitOnError)
		bf := bookFlags(fs)
		_ = fs.Parse(args)

		f := bf.apply(fs, models.BookFields{})
		var out models.Book
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/books", optionalToken(tokenPath), f, &out); err != nil {
			fatalf("add failed: %v", err)
		}
		fmt.Printf("added #%d %s\n", out.ID, out.Title)
	case "update":
		fs := flag.NewFlagSet("books update", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		bf := bookFlags(fs)
		_ = fs.Parse(args)

		current, err := getBook(ctx, client, baseURL, *id)
		if err != nil {
			fatalf("update failed: %v", err)
		}
		f := bf.apply(fs, current.Fields())

		var out models.Book
		endpoint := fmt.Sprintf("%s/books/%d", baseURL, *id)
		if err := doJSON(ctx, client, http.MethodPut, endpoint, optionalToken(tokenPath), f, &out); err != nil {
			fatalf("update failed: %v", err)
		}
		fmt.Printf("updated #%d %s\n", out.ID, out.Title)
	case "delete":
		fs := flag.NewFlagSet("books delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			fatalf("book id is required")
		}

		endpoint := fmt.Sprintf("%s/books/%d", baseURL, *id)
		if err := doJSON(ctx, client, http.MethodDelete, endpoint, optionalToken(tokenPath), nil, nil); err != nil {
			fatalf("delete failed: %v", err)
		}
		fmt.Printf("deleted #%d\n", *id)
	default:
		fatalf("usage: bookcatalog books <list|search|show|add|update|delete>")
	}
}

// editFlags holds the flags shared by add and update. Only flags given on the
// command line are applied.
type editFlags struct {
	title, author, genre, isbn, description, cover, language *string
	year, pages                                              *int
	rating                                                   *float64
}

func bookFlags(fs *flag.FlagSet) editFlags {
	return editFlags{
		title:       fs.String("title", "", "title"),
		author:      fs.String("author", "", "author"),
		genre:       fs.String("genre", "", "genre"),
		isbn:        fs.String("isbn", "", "ISBN"),
		description: fs.String("description", "", "description"),
		cover:       fs.String("cover", "", "cover image URL"),
		language:    fs.String("language", "", "language"),
		year:        fs.Int("year", 0, "publication year"),
		pages:       fs.Int("pages", 0, "page count"),
		rating:      fs.Float64("rating", 0, "rating 0-5"),
	}
}

func (e editFlags) apply(fs *flag.FlagSet, f models.BookFields) models.BookFields {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "title":
			f.Title = *e.title
		case "author":
			f.Author = *e.author
		case "genre":
			f.Genre = *e.genre
		case "isbn":
			f.ISBN = *e.isbn
		case "description":
			f.Description = *e.description
		case "cover":
			f.CoverURL = *e.cover
		case "language":
			f.Language = *e.language
		case "year":
			v := *e.year
			f.Year = &v
		case "pages":
			v := *e.pages
			f.Pages = &v
		case "rating":
			v := *e.rating
			f.Rating = &v
		}
	})
	return f
}

func handleSync(baseURL, sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "localhost:7070", "TCP change feed address")
		pretty := fs.Bool("pretty", false, "pretty-print JSON")
		_ = fs.Parse(args)
		if err := runSyncTCP(*addr, *pretty); err != nil && !errors.Is(err, os.ErrClosed) {
			fatalf("sync listen failed: %v", err)
		}
	case "ws":
		wsURL, err := websocketURL(baseURL, "/ws")
		if err != nil {
			fatalf("invalid base url: %v", err)
		}
		if err := runWebSocket(wsURL); err != nil {
			fatalf("websocket failed: %v", err)
		}
	default:
		fatalf("usage: bookcatalog sync <listen|ws>")
	}
}

func handleExport(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	fs := flag.NewFlagSet("export "+sub, flag.ExitOnError)
	out := fs.String("out", "", "output file (default stdout)")
	_ = fs.Parse(args)

	var resp bookListResponse
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/books", "", nil, &resp); err != nil {
		fatalf("export failed: %v", err)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			fatalf("create output dir: %v", err)
		}
		file, err := os.Create(*out)
		if err != nil {
			fatalf("create output: %v", err)
		}
		defer file.Close()
		w = file
	}

	switch sub {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp.Items); err != nil {
			fatalf("write json failed: %v", err)
		}
	case "csv":
		if err := catalog.WriteCSV(w, resp.Items); err != nil {
			fatalf("write csv failed: %v", err)
		}
	default:
		fatalf("usage: bookcatalog export <json|csv>")
	}
	if *out != "" {
		log.Info("export finished", slog.Int("books", len(resp.Items)), slog.String("out", *out))
	}
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info("connected to change feed", slog.String("addr", addr))
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to change feed", slog.String("url", wsURL))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func getBook(ctx context.Context, client *http.Client, baseURL string, id int64) (models.Book, error) {
	var b models.Book
	if id <= 0 {
		return b, errors.New("book id is required")
	}
	err := doJSON(ctx, client, http.MethodGet, fmt.Sprintf("%s/books/%d", baseURL, id), "", nil, &b)
	return b, err
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printBooks(resp bookListResponse) {
	for _, b := range resp.Items {
		year := "----"
		if b.Year != nil {
			year = strconv.Itoa(*b.Year)
		}
		rating := "   -"
		if b.Rating != nil {
			rating = fmt.Sprintf("%4.1f", *b.Rating)
		}
		fmt.Printf("%4d  %s  %s  %s by %s\n", b.ID, year, rating, b.Title, b.Author)
	}
	fmt.Printf("%d book(s)\n", resp.Total)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func setIf(qv url.Values, key, val string) {
	if strings.TrimSpace(val) != "" {
		qv.Set(key, val)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatalf(format string, args ...any) {
	log.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.bookcatalog-token.json"
	}
	return filepath.Join(home, ".bookcatalog", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	var td tokenData
	data, err := os.ReadFile(path)
	if err != nil {
		return td, err
	}
	if err := json.Unmarshal(data, &td); err != nil {
		return td, err
	}
	td.Token = strings.TrimSpace(td.Token)
	return td, nil
}

// optionalToken returns the saved token, or "" when the server runs without
// editor auth and nobody logged in.
func optionalToken(path string) string {
	td, err := readToken(path)
	if err != nil {
		return ""
	}
	if !td.ExpiresAt.IsZero() && time.Now().After(td.ExpiresAt) {
		log.Warn("saved token expired, please login again")
		return ""
	}
	return td.Token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("bookcatalog [-api URL] [-token FILE] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout|hash-password")
	fmt.Println("  books list|search|show|add|update|delete")
	fmt.Println("  stats")
	fmt.Println("  genres")
	fmt.Println("  sync listen|ws")
	fmt.Println("  export json|csv")
}

// package formatter renders result lists and search history to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
)

// Format selects an output rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat parses a format name; "md" and "txt" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (expected text, markdown, csv or json)", shared.ErrInvalidFlag, name)
	}
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Render renders books found for query in the given format.
func Render(f Format, query string, books []models.Book) ([]byte, error) {
	switch f {
	case FormatText:
		return ToText(query, books)
	case FormatMarkdown:
		return ToMarkdown(query, books)
	case FormatCSV:
		return ToCSV(books)
	case FormatJSON:
		return shared.MarshalJSON(books, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ToCSV converts books to CSV format with columns: #, Title, Author, Year, Cover URL, Key
func ToCSV(books []models.Book) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"#", "Title", "Author", "Year", "Cover URL", "Key"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, book := range books {
		year := ""
		if book.FirstPublishYear > 0 {
			year = strconv.Itoa(book.FirstPublishYear)
		}
		record := []string{
			strconv.Itoa(i + 1),
			book.Title,
			book.Author,
			year,
			book.CoverURL,
			book.Key,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts books to a Markdown document with cover thumbnails where available
func ToMarkdown(query string, books []models.Book) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Results for \"%s\"\n\n", query))
	buf.WriteString(fmt.Sprintf("**Books**: %d\n\n", len(books)))

	if len(books) == 0 {
		buf.WriteString("_No matches._\n")
		return buf.Bytes(), nil
	}

	for i, book := range books {
		buf.WriteString(fmt.Sprintf("%d. **%s**", i+1, escapeMarkdown(book.DisplayTitle())))
		if book.HasAuthor() {
			buf.WriteString(fmt.Sprintf(" by %s", escapeMarkdown(book.Author)))
		}
		if book.FirstPublishYear > 0 {
			buf.WriteString(fmt.Sprintf(" (%d)", book.FirstPublishYear))
		}
		buf.WriteString("\n")
		if book.HasCover() {
			buf.WriteString(fmt.Sprintf("   ![Cover](%s)\n", book.CoverURL))
		}
	}

	return buf.Bytes(), nil
}

// ToText converts books to plain text, one "title - author" row each
func ToText(query string, books []models.Book) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Query: %s\n", query))
	buf.WriteString(fmt.Sprintf("Books: %d\n\n", len(books)))

	for i, book := range books {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, book.DisplayTitle(), book.DisplayAuthor()))
	}

	return buf.Bytes(), nil
}

// HistoryToText renders search records as an aligned table
func HistoryToText(records []*models.SearchRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "#\tWHEN\tSTATUS\tRESULTS\tDURATION\tQUERY\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Sequence,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.ResultCount,
			r.Duration().Round(time.Millisecond),
			shared.Truncate(r.Query, 40),
			shared.Truncate(r.ErrorMessage, 60),
		)
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write history table: %w", err)
	}
	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// A nil client uses [http.DefaultClient]. Failures are [*shared.Failure] values of kind [shared.NetworkFailure].
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.NewFailure(shared.NetworkFailure, 0, "failed to create request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, shared.NewFailure(shared.NetworkFailure, 0, "failed to download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, shared.NewFailure(shared.NetworkFailure, resp.StatusCode, "failed to download image", nil)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewFailure(shared.NetworkFailure, resp.StatusCode, "failed to read image data", err)
	}

	return imageData, nil
}

// WriteExport renders books in format f and writes them to path, creating parent directories.
//
// An empty path defaults to results_<slug><ext> in the working directory.
func WriteExport(f Format, query string, books []models.Book, path string) (string, error) {
	if path == "" {
		path = "results_" + slug(query) + f.Extension()
	}

	data, err := Render(f, query, books)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", shared.NewFailure(shared.IOFailure, 0, "failed to create directory", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", shared.NewFailure(shared.IOFailure, 0, "failed to write export", err)
	}

	return path, nil
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`).Replace(s)
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "query"
	}
	return out
}

// Open Library implementation of [Catalog]
//
// Search API documented at https://openlibrary.org/dev/docs/api/search
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultOLBaseURL      = "https://openlibrary.org"
	defaultOLCoverBaseURL = "https://covers.openlibrary.org"
	defaultCoverSize      = "M"
	defaultTimeout        = 10 * time.Second
	defaultUserAgent      = "booksearch/1.0 (+https://github.com/desertthunder/booksearch)"

	// maxSnippet bounds how much of an error body ends up in a failure message.
	maxSnippet = 200
)

// OpenLibraryDoc is one entry of the search response "docs" array.
type OpenLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverI           *int64   `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
}

// OpenLibrarySearchResponse is the search.json envelope.
//
// Docs is a pointer so a missing or null field can be told apart from an empty array.
type OpenLibrarySearchResponse struct {
	NumFound int               `json:"numFound"`
	Start    int               `json:"start"`
	Docs     *[]OpenLibraryDoc `json:"docs"`
}

// OpenLibraryOpts configures an [OpenLibraryService]. Zero values select defaults.
type OpenLibraryOpts struct {
	BaseURL      string
	CoverBaseURL string
	CoverSize    string // S, M or L
	Timeout      time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
	UserAgent    string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// OpenLibraryService implements [Catalog] against the Open Library search API.
type OpenLibraryService struct {
	baseURL      string
	coverBaseURL string
	coverSize    string
	timeout      time.Duration
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
}

// NewOpenLibraryService creates a new Open Library catalog client.
func NewOpenLibraryService(opts OpenLibraryOpts) *OpenLibraryService {
	s := &OpenLibraryService{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		coverBaseURL: strings.TrimRight(opts.CoverBaseURL, "/"),
		coverSize:    strings.ToUpper(opts.CoverSize),
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}

	if s.baseURL == "" {
		s.baseURL = defaultOLBaseURL
	}
	if s.coverBaseURL == "" {
		s.coverBaseURL = defaultOLCoverBaseURL
	}
	if s.coverSize == "" {
		s.coverSize = defaultCoverSize
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.userAgent == "" {
		s.userAgent = defaultUserAgent
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return s
}

// NewOpenLibraryServiceFromConfig builds the client from the [catalog] config section.
func NewOpenLibraryServiceFromConfig(cfg shared.CatalogConfig, logger *log.Logger) *OpenLibraryService {
	return NewOpenLibraryService(OpenLibraryOpts{
		BaseURL:      cfg.BaseURL,
		CoverBaseURL: cfg.CoverBaseURL,
		CoverSize:    cfg.CoverSize,
		Timeout:      cfg.Timeout(),
		RateLimit:    cfg.RateLimit,
		UserAgent:    cfg.UserAgent,
		Logger:       logger,
	})
}

// Name returns the service name.
func (o *OpenLibraryService) Name() string {
	return "Open Library"
}

// CoverURL derives the cover image URL for a cover identifier.
func (o *OpenLibraryService) CoverURL(coverID int64) string {
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", o.coverBaseURL, coverID, o.coverSize)
}

// Search retrieves books matching query.
//
// Calls GET /search.json?q=<query>. The query is passed through as is.
func (o *OpenLibraryService) Search(ctx context.Context, query string) ([]models.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, o.transportFailure(ctx, err)
		}
	}

	params := url.Values{}
	params.Set("q", query)

	var result OpenLibrarySearchResponse
	if err := o.doRequest(ctx, "/search.json?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(*result.Docs))
	for _, doc := range *result.Docs {
		books = append(books, o.toBook(doc))
	}

	o.logger.Debug("catalog search complete", "query", query, "found", result.NumFound, "returned", len(books))
	return books, nil
}

func (o *OpenLibraryService) toBook(doc OpenLibraryDoc) models.Book {
	book := models.Book{
		Key:              doc.Key,
		Title:            doc.Title,
		FirstPublishYear: doc.FirstPublishYear,
	}
	if len(doc.AuthorName) > 0 {
		book.Author = doc.AuthorName[0]
	}
	if doc.CoverI != nil {
		book.CoverID = *doc.CoverI
		book.CoverURL = o.CoverURL(*doc.CoverI)
	}
	return book
}

func (o *OpenLibraryService) doRequest(ctx context.Context, endpoint string, result *OpenLibrarySearchResponse) error {
	apiURL := o.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return shared.NewFailure(shared.NetworkFailure, 0, "failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return o.transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.NewFailure(shared.NetworkFailure, resp.StatusCode, "failed to read response", o.timeoutCause(ctx, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorDetail(body)
		o.logger.Warn("catalog request failed", "status", resp.StatusCode, "message", msg)
		return shared.NewFailure(shared.NetworkFailure, resp.StatusCode, msg, nil)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return shared.NewFailure(shared.ParseFailure, resp.StatusCode, "failed to decode response", err)
	}
	if result.Docs == nil {
		return shared.NewFailure(shared.ParseFailure, resp.StatusCode, `response has no "docs" field`, nil)
	}

	return nil
}

func (o *OpenLibraryService) transportFailure(ctx context.Context, err error) error {
	cause := o.timeoutCause(ctx, err)
	if errors.Is(cause, shared.ErrTimeout) {
		return shared.NewFailure(shared.NetworkFailure, 0, fmt.Sprintf("no response within %s", o.timeout), cause)
	}
	return shared.NewFailure(shared.NetworkFailure, 0, "request failed", cause)
}

// timeoutCause tags deadline errors with [shared.ErrTimeout] and leaves the rest alone.
func (o *OpenLibraryService) timeoutCause(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return err
}

// errorDetail extracts a short diagnostic from an error response body.
func errorDetail(body []byte) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return shared.Truncate(text, maxSnippet)
	}
	return "unexpected status"
}

package detail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/formatter"
	"github.com/desertthunder/booksearch/internal/metrics"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
)

const (
	ShareActionSend = "send"
	ShareMIMEType   = "image/*"

	defaultShareDir = "./tmp/shares"
	minCardWidth    = 24
)

var (
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7D56F4")).Padding(1, 2)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	mutedStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

// PresenterOpts configures a [Presenter].
type PresenterOpts struct {
	ShareDir   string
	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// Presenter renders a single book and prepares share artifacts for it.
type Presenter struct {
	shareDir   string
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewPresenter creates a new Presenter.
func NewPresenter(opts PresenterOpts) *Presenter {
	p := &Presenter{
		shareDir:   opts.ShareDir,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if p.shareDir == "" {
		p.shareDir = defaultShareDir
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// ShareDir returns the directory share artifacts are written to.
func (p *Presenter) ShareDir() string { return p.shareDir }

// Title is the header shown above the card.
func (p *Presenter) Title(book models.Book) string {
	return book.DisplayTitle()
}

// Render draws book as a bordered card no wider than width. Width 0 means unbounded.
func (p *Presenter) Render(book models.Book, width int) string {
	var lines []string
	lines = append(lines, titleStyle.Render(book.DisplayTitle()))

	if book.HasAuthor() {
		lines = append(lines, authorStyle.Render("by "+book.Author))
	} else {
		lines = append(lines, mutedStyle.Render(book.DisplayAuthor()))
	}

	if book.FirstPublishYear > 0 {
		lines = append(lines, fmt.Sprintf("First published %d", book.FirstPublishYear))
	}

	lines = append(lines, "")
	if book.HasCover() {
		lines = append(lines, "Cover: "+book.CoverURL)
	} else {
		lines = append(lines, mutedStyle.Render("[ no cover available ]"))
	}

	if book.Key != "" {
		lines = append(lines, mutedStyle.Render("openlibrary.org"+book.Key))
	}

	style := cardStyle
	if width > 0 {
		style = style.Width(max(width-cardStyle.GetHorizontalFrameSize(), minCardWidth))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// ShareAction describes the hand-off of a saved cover to the host's share mechanism.
type ShareAction struct {
	Action   string `json:"action"`
	Path     string `json:"path"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
	Title    string `json:"title"`
}

var (
	writeClipboard = clipboardWrite
	openTarget     = shared.OpenBrowser
)

// Copy places the artifact URI on the system clipboard.
func (a *ShareAction) Copy() error {
	if err := writeClipboard(a.URI); err != nil {
		return fmt.Errorf("failed to copy share URI: %w", err)
	}
	return nil
}

// Open hands the artifact to the system's default viewer.
func (a *ShareAction) Open() error {
	return openTarget(a.URI)
}

// PrepareShare saves a PNG copy of book's cover and returns the share action for it.
func (p *Presenter) PrepareShare(ctx context.Context, book models.Book) (*ShareAction, error) {
	action, err := p.prepareShare(ctx, book)
	if err != nil {
		metrics.SharesTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("share failed", "title", book.Title, "error", err)
		return nil, err
	}

	metrics.SharesTotal.WithLabelValues("succeeded").Inc()
	p.logger.Info("share prepared", "title", book.Title, "path", action.Path)
	return action, nil
}

func (p *Presenter) prepareShare(ctx context.Context, book models.Book) (*ShareAction, error) {
	if !book.HasCover() {
		return nil, shared.ErrNoCover
	}

	data, err := formatter.DownloadImage(ctx, p.httpClient, book.CoverURL)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, shared.NewFailure(shared.ParseFailure, 0, "cover is not a decodable image", err)
	}
	p.logger.Debug("decoded cover", "format", format, "bounds", img.Bounds())

	if err := os.MkdirAll(p.shareDir, 0755); err != nil {
		return nil, shared.NewFailure(shared.IOFailure, 0, "failed to create share directory", err)
	}

	path, err := p.writePNG(img)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &ShareAction{
		Action:   ShareActionSend,
		Path:     abs,
		URI:      shared.FileURI(abs),
		MIMEType: ShareMIMEType,
		Title:    book.Title,
	}, nil
}

// writePNG writes img to a fresh share_image_<millis>.png, moving forward a millisecond on collisions.
func (p *Presenter) writePNG(img image.Image) (string, error) {
	millis := p.now().UnixMilli()

	for attempt := 0; attempt < 100; attempt++ {
		path := filepath.Join(p.shareDir, fmt.Sprintf("share_image_%d.png", millis+int64(attempt)))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", shared.NewFailure(shared.IOFailure, 0, "failed to create share file", err)
		}

		if err := png.Encode(f, img); err != nil {
			f.Close()
			os.Remove(path)
			return "", shared.NewFailure(shared.IOFailure, 0, "failed to write share file", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", shared.NewFailure(shared.IOFailure, 0, "failed to close share file", err)
		}
		return path, nil
	}

	return "", shared.NewFailure(shared.IOFailure, 0, "no free share file name", os.ErrExist)
}

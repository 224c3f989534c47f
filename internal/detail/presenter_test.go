package detail

import (
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	tu "github.com/desertthunder/booksearch/internal/testing"
)

func coverServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func fixedNow() time.Time { return time.UnixMilli(1700000000123) }

func TestNewPresenter(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p := NewPresenter(PresenterOpts{})
		if p.ShareDir() != defaultShareDir {
			t.Errorf("expected share dir %q, got %q", defaultShareDir, p.ShareDir())
		}
		if p.httpClient == nil || p.logger == nil || p.now == nil {
			t.Error("expected defaults for client, logger and clock")
		}
	})

	t.Run("Custom Share Dir", func(t *testing.T) {
		dir := t.TempDir()
		if got := NewPresenter(PresenterOpts{ShareDir: dir}).ShareDir(); got != dir {
			t.Errorf("expected share dir %q, got %q", dir, got)
		}
	})
}

func TestPresenterRender(t *testing.T) {
	p := NewPresenter(PresenterOpts{})

	t.Run("full book", func(t *testing.T) {
		book := models.Book{
			Key:              "/works/OL893415W",
			Title:            "Dune",
			Author:           "Frank Herbert",
			CoverURL:         "https://covers.openlibrary.org/b/id/1-M.jpg",
			FirstPublishYear: 1965,
		}

		out := p.Render(book, 80)
		for _, want := range []string{"Dune", "by Frank Herbert", "First published 1965", "1-M.jpg", "OL893415W"} {
			if !strings.Contains(out, want) {
				t.Errorf("card missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("placeholders", func(t *testing.T) {
		out := p.Render(models.Book{}, 0)
		for _, want := range []string{"(untitled)", "Unknown author", "no cover available"} {
			if !strings.Contains(out, want) {
				t.Errorf("card missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Title mirrors the book title", func(t *testing.T) {
		if p.Title(models.Book{Title: "Emma"}) != "Emma" {
			t.Error("expected title to mirror the book")
		}
	})
}

func TestPresenterPrepareShare(t *testing.T) {
	ctx := context.Background()

	t.Run("writes png copy and describes the action", func(t *testing.T) {
		server := coverServer(t, http.StatusOK, tu.PNGBytes(t, 4, 6))
		dir := filepath.Join(t.TempDir(), "shares")
		p := NewPresenter(PresenterOpts{ShareDir: dir, Now: fixedNow})

		action, err := p.PrepareShare(ctx, models.Book{Title: "Dune", CoverURL: server.URL + "/b/id/1-M.jpg"})
		if err != nil {
			t.Fatalf("PrepareShare failed: %v", err)
		}

		if action.Action != "send" || action.MIMEType != "image/*" || action.Title != "Dune" {
			t.Errorf("unexpected action %+v", action)
		}
		if filepath.Base(action.Path) != "share_image_1700000000123.png" {
			t.Errorf("unexpected file name %s", action.Path)
		}
		if !strings.HasPrefix(action.URI, "file://") || !strings.HasSuffix(action.URI, "share_image_1700000000123.png") {
			t.Errorf("unexpected URI %s", action.URI)
		}

		f, err := os.Open(action.Path)
		if err != nil {
			t.Fatalf("share file missing: %v", err)
		}
		defer f.Close()

		img, err := png.Decode(f)
		if err != nil {
			t.Fatalf("share file is not a png: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 6 {
			t.Errorf("expected 4x6 image, got %v", b)
		}
	})

	t.Run("does not overwrite earlier artifacts", func(t *testing.T) {
		server := coverServer(t, http.StatusOK, tu.PNGBytes(t, 2, 2))
		p := NewPresenter(PresenterOpts{ShareDir: t.TempDir(), Now: fixedNow})
		book := models.Book{Title: "Dune", CoverURL: server.URL}

		first, err := p.PrepareShare(ctx, book)
		if err != nil {
			t.Fatalf("first share failed: %v", err)
		}
		second, err := p.PrepareShare(ctx, book)
		if err != nil {
			t.Fatalf("second share failed: %v", err)
		}
		if first.Path == second.Path {
			t.Error("expected distinct share files")
		}
	})

	t.Run("no cover", func(t *testing.T) {
		p := NewPresenter(PresenterOpts{ShareDir: t.TempDir()})
		if _, err := p.PrepareShare(ctx, models.Book{Title: "Dune"}); !errors.Is(err, shared.ErrNoCover) {
			t.Errorf("expected ErrNoCover, got %v", err)
		}
	})

	t.Run("download failure", func(t *testing.T) {
		server := coverServer(t, http.StatusNotFound, nil)
		p := NewPresenter(PresenterOpts{ShareDir: t.TempDir()})

		_, err := p.PrepareShare(ctx, models.Book{CoverURL: server.URL})
		f, ok := shared.AsFailure(err)
		if !ok || f.Kind != shared.NetworkFailure || f.StatusCode != http.StatusNotFound {
			t.Errorf("expected network failure with 404, got %v", err)
		}
	})

	t.Run("undecodable cover", func(t *testing.T) {
		server := coverServer(t, http.StatusOK, []byte("<html>not an image</html>"))
		dir := t.TempDir()
		p := NewPresenter(PresenterOpts{ShareDir: dir})

		_, err := p.PrepareShare(ctx, models.Book{CoverURL: server.URL})
		if !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected parse failure, got %v", err)
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected no files written, got %d", len(entries))
		}
	})

	t.Run("unwritable share directory", func(t *testing.T) {
		server := coverServer(t, http.StatusOK, tu.PNGBytes(t, 2, 2))
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		p := NewPresenter(PresenterOpts{ShareDir: filepath.Join(blocker, "shares")})

		_, err := p.PrepareShare(ctx, models.Book{CoverURL: server.URL})
		if !errors.Is(err, shared.ErrIO) {
			t.Errorf("expected io failure, got %v", err)
		}
	})
}

func TestShareAction(t *testing.T) {
	origClip, origOpen := writeClipboard, openTarget
	t.Cleanup(func() { writeClipboard, openTarget = origClip, origOpen })

	action := &ShareAction{URI: "file:///tmp/share_image_1.png"}

	t.Run("Copy", func(t *testing.T) {
		var got string
		writeClipboard = func(s string) error { got = s; return nil }

		if err := action.Copy(); err != nil {
			t.Fatalf("Copy failed: %v", err)
		}
		if got != action.URI {
			t.Errorf("expected clipboard to receive %s, got %s", action.URI, got)
		}

		writeClipboard = func(string) error { return errClipboardUnsupported }
		if err := action.Copy(); !errors.Is(err, errClipboardUnsupported) {
			t.Errorf("expected clipboard error, got %v", err)
		}
	})

	t.Run("Open", func(t *testing.T) {
		var got string
		openTarget = func(s string) error { got = s; return nil }

		if err := action.Open(); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if got != action.URI {
			t.Errorf("expected opener to receive %s, got %s", action.URI, got)
		}
	})
}

package formatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	th "github.com/desertthunder/booksearch/internal/testing"
)

func sampleBooks() []models.Book {
	return []models.Book{
		{
			Key:              "/works/OL893415W",
			Title:            "Dune",
			Author:           "Frank Herbert",
			CoverID:          1,
			CoverURL:         "https://covers.openlibrary.org/b/id/1-M.jpg",
			FirstPublishYear: 1965,
		},
		{
			Title: "Untitled_draft",
		},
	}
}

func TestRenderers(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tests := []struct {
			in   string
			want Format
		}{
			{"", FormatText},
			{"txt", FormatText},
			{"MD", FormatMarkdown},
			{"markdown", FormatMarkdown},
			{"csv", FormatCSV},
			{"json", FormatJSON},
		}
		for _, tt := range tests {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
			}
		}

		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(sampleBooks())
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "#,Title,Author,Year,Cover URL,Key") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Dune,Frank Herbert,1965,https://covers.openlibrary.org/b/id/1-M.jpg,/works/OL893415W") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "2,Untitled_draft,,,,") {
			t.Errorf("CSV should leave absent fields empty, got: %s", output)
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		t.Run("with results", func(t *testing.T) {
			data, err := ToMarkdown("dune", sampleBooks())
			if err != nil {
				t.Fatalf("ToMarkdown failed: %v", err)
			}

			output := string(data)
			checks := []string{
				`# Results for "dune"`,
				"**Books**: 2",
				"1. **Dune** by Frank Herbert (1965)",
				"![Cover](https://covers.openlibrary.org/b/id/1-M.jpg)",
				`2. **Untitled\_draft**`,
			}
			for _, want := range checks {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
		})

		t.Run("without results", func(t *testing.T) {
			data, err := ToMarkdown("zzzzzznomatch", nil)
			if err != nil {
				t.Fatalf("ToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "_No matches._") {
				t.Errorf("expected empty marker, got %s", data)
			}
		})
	})

	t.Run("ToText", func(t *testing.T) {
		data, err := ToText("dune", sampleBooks())
		if err != nil {
			t.Fatalf("ToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Query: dune") || !strings.Contains(output, "Books: 2") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "1. Dune - Frank Herbert") {
			t.Errorf("text missing first row, got: %s", output)
		}
		if !strings.Contains(output, "2. Untitled_draft - Unknown author") {
			t.Errorf("text missing placeholder author, got: %s", output)
		}
	})

	t.Run("Render JSON", func(t *testing.T) {
		data, err := Render(FormatJSON, "dune", sampleBooks())
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(string(data), `"cover_url": "https://covers.openlibrary.org/b/id/1-M.jpg"`) {
			t.Errorf("JSON missing cover URL, got: %s", data)
		}
	})

	t.Run("Render unknown", func(t *testing.T) {
		if _, err := Render(Format("xml"), "dune", nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("HistoryToText", func(t *testing.T) {
		now := time.Now()
		records := []*models.SearchRecord{
			{Sequence: 2, Query: "dune", Status: models.SearchFailed, StartedAt: now, CompletedAt: now.Add(time.Second), ErrorMessage: "network failure (status 500)"},
			{Sequence: 1, Query: "emma", Status: models.SearchSucceeded, ResultCount: 4, StartedAt: now, CompletedAt: now},
		}

		data, err := HistoryToText(records)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"STATUS", "failed", "succeeded", "network failure (status 500)", "emma"} {
			if !strings.Contains(output, want) {
				t.Errorf("history missing %q, got:\n%s", want, output)
			}
		}
	})
}

func TestDownloadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(ctx, nil, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("image-bytes"))
		}))
		defer server.Close()

		data, err := DownloadImage(ctx, server.Client(), server.URL+"/b/id/1-M.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := DownloadImage(ctx, nil, server.URL)
		f, ok := shared.AsFailure(err)
		if !ok || f.Kind != shared.NetworkFailure || f.StatusCode != http.StatusNotFound {
			t.Errorf("expected network failure with 404, got %v", err)
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: make(http.Header)}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}

		if _, err := DownloadImage(ctx, client, "http://covers.local/b/id/1-M.jpg"); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected network failure, got %v", err)
		}
	})

	t.Run("TransportError", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("dial tcp: refused"))}

		_, err := DownloadImage(ctx, client, "http://covers.local/b/id/1-M.jpg")
		f, ok := shared.AsFailure(err)
		if !ok || f.StatusCode != 0 {
			t.Errorf("expected network failure with status 0, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dune.csv")

		got, err := WriteExport(FormatCSV, "dune", sampleBooks(), path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected path %s, got %s", path, got)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Frank Herbert") {
			t.Errorf("export missing content, got %s", content)
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir := th.MustGetwd(t)
		defer th.MustChdir(t, origDir)
		th.MustChdir(t, tmpDir)

		got, err := WriteExport(FormatMarkdown, "Dune: Messiah!", sampleBooks(), "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "results_dune_messiah.md" {
			t.Errorf("unexpected default path %s", got)
		}
		th.AssertFileExists(t, filepath.Join(tmpDir, got))
	})

	t.Run("WriteFailure", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if _, err := WriteExport(FormatText, "x", nil, blocker); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		_, err := WriteExport(FormatText, "x", nil, filepath.Join(blocker, "child.txt"))
		if !errors.Is(err, shared.ErrIO) {
			t.Errorf("expected io failure, got %v", err)
		}
	})
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"dune":              "dune",
		"  The Hobbit  ":    "the_hobbit",
		"???":               "query",
		"Lord of the Rings": "lord_of_the_rings",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

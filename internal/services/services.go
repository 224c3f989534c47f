// package services defines interface Catalog for searching remote book catalogs
//
// Open Library
package services

import (
	"context"

	"github.com/desertthunder/booksearch/internal/models"
)

// Catalog is a remote book catalog that can be searched by free text.
type Catalog interface {
	// Search issues one request for query and returns the decoded entries in server order.
	//
	// Failures are returned as [*shared.Failure] values; implementations never retry.
	Search(ctx context.Context, query string) ([]models.Book, error)

	// Name returns the name of the catalog (e.g., "Open Library")
	Name() string
}

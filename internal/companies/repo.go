package companies

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a company does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines persistence operations for the company master.
type Repo interface {
	GetByEdinetCode(ctx context.Context, edinetCode string) (Company, error)
	GetByEdinetCodes(ctx context.Context, edinetCodes []string) (map[string]Company, error)
	Create(ctx context.Context, company Company) error
	Update(ctx context.Context, company Company) error
	BulkCreate(ctx context.Context, list []Company) error
	BulkUpdate(ctx context.Context, list []Company) error
	List(ctx context.Context, limit, offset int) ([]Company, error)
}

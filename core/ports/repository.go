package ports

import (
	"context"

	"go.trai.ch/pin/core/domain"
)

// RepositoryQuerier looks package definitions up inside a resolved input.
//
//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
type RepositoryQuerier interface {
	// Lookup returns the package exposed by the input under the given
	// attribute path. found=false means the path names nothing; err is
	// reserved for query failures.
	Lookup(ctx context.Context, input domain.LockedReference, attrPath []string) (ref domain.PackageReference, found bool, err error)

	// Attrs lists the attribute paths the input exposes, for diagnostics.
	Attrs(ctx context.Context, input domain.LockedReference) ([]string, error)
}

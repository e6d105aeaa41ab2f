package ports

import (
	"context"

	"go.trai.ch/pin/core/domain"
)

// Builder realizes package references into concrete build artifacts.
// It is invoked only at the assembly boundary; the evaluation core never builds.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build realizes the reference and returns its artifact store paths.
	Build(ctx context.Context, ref domain.PackageReference) (storePaths []string, err error)
}

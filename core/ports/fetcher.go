package ports

import (
	"context"

	"go.trai.ch/pin/core/domain"
)

// FetchResult is the outcome of fetching an input source.
type FetchResult struct {
	// Revision is the exact revision the fetch resolved to.
	Revision string

	// Fingerprint is the deterministic content digest of the fetched source.
	Fingerprint domain.Fingerprint

	// LocalPath is the directory the fetched source was unpacked into.
	LocalPath string
}

// Fetcher handles fetching an input source by locator.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch retrieves the source named by the locator. When pinnedRevision is
	// non-empty the fetch is fully deterministic; otherwise the fetcher may
	// resolve a floating reference to its current revision.
	Fetch(ctx context.Context, locator domain.Locator, pinnedRevision string) (FetchResult, error)
}

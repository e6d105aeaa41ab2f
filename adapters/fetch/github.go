// Package fetch implements the Fetcher port for github, tarball and path locators.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/pin/core/domain"
	"go.trai.ch/pin/core/ports"
	"go.trai.ch/zerr"
)

const (
	githubAPIBase     = "https://api.github.com"
	codeloadBase      = "https://codeload.github.com"
	httpClientTimeout = 30 * time.Second

	// fetchCacheSize bounds the in-memory result cache. Entries are tiny;
	// the fetched trees themselves live on disk under the cache directory.
	fetchCacheSize = 128
)

// GitHubFetcher implements ports.Fetcher over the GitHub commits API and
// codeload tarballs, with an in-memory LRU over completed fetches and an
// on-disk source cache keyed by fingerprint.
type GitHubFetcher struct {
	cacheDir     string
	httpClient   *http.Client
	apiBase      string
	codeloadBase string
	results      *lru.Cache[string, ports.FetchResult]
}

// NewFetcher creates a GitHubFetcher with the default cache directory.
func NewFetcher() (*GitHubFetcher, error) {
	cacheHome, err := os.UserCacheDir()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine user cache directory")
	}
	return newFetcherWithBase(
		filepath.Join(cacheHome, "pin", "sources"),
		&http.Client{Timeout: httpClientTimeout},
		githubAPIBase,
		codeloadBase,
	)
}

// newFetcherWithBase creates a fetcher with custom endpoints (used for testing).
func newFetcherWithBase(cacheDir string, client *http.Client, apiBase, codeload string) (*GitHubFetcher, error) {
	cleanDir := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanDir, 0o750); err != nil {
		return nil, zerr.Wrap(err, "failed to create source cache directory")
	}

	results, err := lru.New[string, ports.FetchResult](fetchCacheSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create fetch result cache")
	}

	return &GitHubFetcher{
		cacheDir:     cleanDir,
		httpClient:   client,
		apiBase:      apiBase,
		codeloadBase: codeload,
		results:      results,
	}, nil
}

// Fetch retrieves the source named by the locator. A pinned revision makes
// the fetch fully deterministic; a floating github reference is first
// resolved to a commit through the API.
func (f *GitHubFetcher) Fetch(
	ctx context.Context,
	locator domain.Locator,
	pinnedRevision string,
) (ports.FetchResult, error) {
	switch locator.Type {
	case domain.LocatorGitHub:
		return f.fetchGitHub(ctx, locator, pinnedRevision)
	case domain.LocatorTarball:
		return f.fetchTarball(ctx, locator, locator.Target, pinnedRevision)
	case domain.LocatorPath:
		return f.fetchPath(locator)
	default:
		err := domain.WithDetail(domain.ErrInvalidLocator, "locator", locator.String())
		return ports.FetchResult{}, err
	}
}

func (f *GitHubFetcher) fetchGitHub(
	ctx context.Context,
	locator domain.Locator,
	pinnedRevision string,
) (ports.FetchResult, error) {
	revision := pinnedRevision
	if revision == "" {
		resolved, err := f.resolveRevision(ctx, locator)
		if err != nil {
			return ports.FetchResult{}, err
		}
		revision = resolved
	}

	url := fmt.Sprintf("%s/%s/%s/tar.gz/%s", f.codeloadBase, locator.Owner, locator.Repo, revision)
	return f.fetchTarball(ctx, locator, url, revision)
}

// resolveRevision resolves a floating reference (branch, tag or absent) to a
// commit SHA through the GitHub commits API.
func (f *GitHubFetcher) resolveRevision(ctx context.Context, locator domain.Locator) (string, error) {
	ref := locator.Ref
	if ref == "" {
		ref = "HEAD"
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", f.apiBase, locator.Owner, locator.Repo, ref)
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}

	var commit commitResponse
	if err := json.Unmarshal(body, &commit); err != nil {
		return "", zerr.Wrap(err, "failed to parse commit response")
	}
	if commit.SHA == "" {
		err := domain.WithDetail(domain.ErrAmbiguousRevision, "locator", locator.String())
		return "", zerr.With(err, "ref", ref)
	}

	return commit.SHA, nil
}

func (f *GitHubFetcher) fetchTarball(
	ctx context.Context,
	locator domain.Locator,
	url, revision string,
) (ports.FetchResult, error) {
	cacheKey := locator.String() + "@" + revision
	if result, ok := f.results.Get(cacheKey); ok {
		return result, nil
	}

	body, err := f.get(ctx, url)
	if err != nil {
		return ports.FetchResult{}, err
	}

	fingerprint := domain.ComputeFingerprint(locator, revision, body)

	localPath := filepath.Join(f.cacheDir, string(fingerprint))
	if _, err := os.Stat(localPath); err != nil {
		if err := extractTarball(body, localPath); err != nil {
			return ports.FetchResult{}, zerr.With(err, "locator", locator.String())
		}
	}

	result := ports.FetchResult{
		Revision:    revision,
		Fingerprint: fingerprint,
		LocalPath:   localPath,
	}
	f.results.Add(cacheKey, result)
	return result, nil
}

// fetchPath handles local path locators. The directory content itself is the
// revisioned source; its fingerprint doubles as the revision.
func (f *GitHubFetcher) fetchPath(locator domain.Locator) (ports.FetchResult, error) {
	digest, err := hashDir(locator.Target)
	if err != nil {
		fetchErr := zerr.Wrap(err, "failed to hash local source")
		return ports.FetchResult{}, zerr.With(fetchErr, "path", locator.Target)
	}

	fingerprint := domain.ComputeFingerprint(locator, digest, nil)
	return ports.FetchResult{
		Revision:    digest,
		Fingerprint: fingerprint,
		LocalPath:   locator.Target,
	}, nil
}

func (f *GitHubFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create request")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "request failed"), "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		err := zerr.With(zerr.New("unexpected response status"), "url", url)
		return nil, zerr.With(err, "status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read response body"), "url", url)
	}
	return body, nil
}

// commitResponse is the subset of the GitHub commits API response we read.
type commitResponse struct {
	SHA string `json:"sha"`
}

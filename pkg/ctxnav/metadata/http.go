package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/patrickmn/go-cache"
)

const defaultCacheTTL = 10 * time.Minute

// HTTPProvider fetches entity set metadata documents from a service, one
// JSON document per entity set at <baseURL>/<entitySet>. Documents are cached.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.client = c
	}
}

// WithCacheTTL sets how long fetched documents are reused.
func WithCacheTTL(ttl time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		p.cache = cache.New(ttl, 2*ttl)
	}
}

// NewHTTPProvider creates an HTTPProvider for baseURL.
func NewHTTPProvider(baseURL string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache.New(defaultCacheTTL, 2*defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProvider) RequestEntityType(ctx context.Context, entitySet string) (*EntityType, error) {
	set, err := p.fetch(ctx, entitySet)
	if err != nil {
		return nil, err
	}
	return set.entityType(), nil
}

func (p *HTTPProvider) RequestAnnotations(ctx context.Context, entitySet string) (*Annotations, error) {
	set, err := p.fetch(ctx, entitySet)
	if err != nil {
		return nil, err
	}
	return set.annotations(), nil
}

// Invalidate drops the cached document of an entity set.
func (p *HTTPProvider) Invalidate(entitySet string) {
	p.cache.Delete(entitySet)
}

func (p *HTTPProvider) fetch(ctx context.Context, entitySet string) (*EntitySet, error) {
	if cached, found := p.cache.Get(entitySet); found {
		return cached.(*EntitySet), nil
	}

	endpoint := p.baseURL + "/" + url.PathEscape(entitySet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: build request for %q: %w", entitySet, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata: request %q: %w", entitySet, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntitySet, entitySet)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("metadata: request %q: unexpected status %s", entitySet, resp.Status)
	}

	var set EntitySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("metadata: decode %q: %w", entitySet, err)
	}
	if set.Name == "" {
		set.Name = entitySet
	}

	internal.GetInternalLogger().Debug("Loaded entity set metadata", "entitySet", entitySet, "url", endpoint)
	p.cache.Set(entitySet, &set, cache.DefaultExpiration)
	return &set, nil
}

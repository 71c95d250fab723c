// Package ipfs retrieves metadata blobs from a content-addressed store
// through an IPFS HTTP gateway.
package ipfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single gateway fetch.
const DefaultTimeout = 30 * time.Second

// maxBlobSize caps a metadata blob; auction metadata is a small JSON
// document and anything larger is garbage.
const maxBlobSize = 1 << 20

// Resolver retrieves the raw bytes stored under a content identifier.
type Resolver interface {
	Resolve(ctx context.Context, cid string) ([]byte, error)
}

// HTTPGateway implements Resolver against an IPFS HTTP gateway.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
}

// GatewayOption configures HTTPGateway.
type GatewayOption func(*HTTPGateway)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *HTTPGateway) {
		g.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		g.client = client
	}
}

// NewHTTPGateway creates a gateway client. The endpoint is the gateway base
// URL, e.g. "https://ipfs.io".
func NewHTTPGateway(endpoint string, opts ...GatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve fetches the bytes stored under cid.
func (g *HTTPGateway) Resolve(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, fmt.Errorf("empty content identifier")
	}

	u := g.endpoint + "/ipfs/" + url.PathEscape(cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", cid, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cid, err)
	}
	return data, nil
}

// Package links turns store identifiers into externally resolvable download
// URLs.
package links

import (
	"fmt"
	"net/url"
	"strings"
)

// DownloadPathPrefix is the route prefix the download endpoint is mounted on.
const DownloadPathPrefix = "/mcp/download"

// Issuer derives download URLs from a fixed base address. It holds no state
// beyond the validated base and is safe for concurrent use.
type Issuer struct {
	base string
}

// NewIssuer validates the base address once at construction; a malformed
// base is a configuration error and should be fatal at startup.
func NewIssuer(base string) (*Issuer, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse download base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("download base URL %q must use http or https", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("download base URL %q has no host", base)
	}
	return &Issuer{base: strings.TrimRight(base, "/")}, nil
}

// DownloadURL returns the URL a client can fetch the stored document from.
func (i *Issuer) DownloadURL(id string) string {
	return i.base + DownloadPathPrefix + "/" + url.PathEscape(id)
}

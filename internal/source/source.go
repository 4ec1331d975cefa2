// Package source fetches raw GeoJSON from files, stdin or URLs.
package source

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Fetcher reads sources and caches their bodies by location.
type Fetcher struct {
	client *http.Client
	cache  *gocache.Cache
}

// NewFetcher returns a fetcher using client for URLs. A nil client gets a
// client with a 15 second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Fetcher{
		client: client,
		cache:  gocache.New(5*time.Minute, 30*time.Minute),
	}
}

// IsURL reports whether location is fetched over HTTP.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the body at location, a file path, "-" for stdin, or an
// http(s) URL. Bodies are cached except for stdin.
func (f *Fetcher) Fetch(location string) ([]byte, error) {
	if location == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		return data, nil
	}

	if cached, ok := f.cache.Get(location); ok {
		log.Debug().Str("source", location).Msg("Source served from cache")
		return cached.([]byte), nil
	}

	var data []byte
	var err error

	if IsURL(location) {
		data, err = f.fetchURL(location)
	} else {
		data, err = os.ReadFile(location)
		err = errors.Wrapf(err, "read %s", location)
	}
	if err != nil {
		return nil, err
	}

	f.cache.SetDefault(location, data)

	log.Debug().
		Str("source", location).
		Int("bytes", len(data)).
		Msg("Source fetched")

	return data, nil
}

func (f *Fetcher) fetchURL(url string) ([]byte, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", url)
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}
	return data, nil
}

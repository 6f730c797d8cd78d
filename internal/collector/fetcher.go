package collector

import "context"

// Fetcher retrieves the raw body of a remote price file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Name() string
}

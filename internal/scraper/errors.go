package scraper

import "fmt"

// FetchError reports a transport or HTTP failure while loading a page.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

package browser

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by Launch when no browser can be started
var ErrUnavailable = errors.New("browser automation unavailable")

// Launcher starts browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a single headless browser tab
type Browser interface {
	// Navigate loads url and waits for the load event
	Navigate(ctx context.Context, url string) error

	// WaitReady waits until an element matching the CSS selector is present
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error

	// Click waits for a visible element matching the CSS selector and clicks it
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// Screenshot saves a PNG of the current viewport to path
	Screenshot(ctx context.Context, path string) error

	Close() error
}

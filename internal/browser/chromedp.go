package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/cpl-agent/pkg/logger"
)

// Options configures the headless Chrome launcher
type Options struct {
	ExecPath        string
	WindowWidth     int
	WindowHeight    int
	NavigateTimeout time.Duration
}

// ChromeLauncher launches headless Chrome through chromedp
type ChromeLauncher struct {
	opts   Options
	logger *logger.Logger
}

// NewChromeLauncher creates a launcher
func NewChromeLauncher(opts Options, log *logger.Logger) *ChromeLauncher {
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1920
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 1080
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 30 * time.Second
	}
	return &ChromeLauncher{
		opts:   opts,
		logger: log.WithComponent("browser"),
	}
}

// Launch starts a browser. Any startup failure is wrapped in ErrUnavailable
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
	)
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	l.logger.Debug().
		Int("width", l.opts.WindowWidth).
		Int("height", l.opts.WindowHeight).
		Msg("Headless browser started")

	return &chromeBrowser{
		ctx:             tabCtx,
		navigateTimeout: l.opts.NavigateTimeout,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
	}, nil
}

type chromeBrowser struct {
	ctx             context.Context
	navigateTimeout time.Duration
	cancel          context.CancelFunc
}

// run executes actions on the tab with a timeout, honouring cancellation of ctx
func (b *chromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, b.navigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (b *chromeBrowser) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (b *chromeBrowser) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := b.run(ctx, b.navigateTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (b *chromeBrowser) Close() error {
	b.cancel()
	return nil
}

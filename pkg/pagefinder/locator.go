// Package pagefinder drives a headless browser to resolve the current
// rates page: open the landing page, wait for the period link, click it,
// and report where the browser ended up.
package pagefinder

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// settleDelay gives the site's client-side navigation time to finish
// before the URL is read.
const settleDelay = 3 * time.Second

// Locator resolves the current rates page URL via browser navigation.
type Locator struct {
	headless bool
	timeout  time.Duration
}

// New creates a Locator. The timeout bounds the whole navigation; zero
// means one minute.
func New(headless bool, timeout time.Duration) *Locator {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Locator{headless: headless, timeout: timeout}
}

// Resolve opens startURL, waits for linkSelector to become visible,
// clicks it and returns the landing page URL. Any navigation failure
// aborts the run; there is no retry here.
func (l *Locator) Resolve(ctx context.Context, startURL, linkSelector string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, l.timeout)
	defer cancelRun()

	var landed string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(startURL),
		chromedp.WaitVisible(linkSelector, chromedp.ByQuery),
		chromedp.Click(linkSelector, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Location(&landed),
	)
	if err != nil {
		return "", eris.Wrapf(err, "pagefinder: resolve rates page from %s", startURL)
	}

	zap.L().Info("pagefinder: resolved rates page",
		zap.String("start_url", startURL),
		zap.String("page_url", landed),
	)
	return landed, nil
}

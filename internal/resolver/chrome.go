package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// sniffManifestURL loads the live page in a headless browser and captures
// the first outgoing request that matches the manifest pattern. The
// browser context is torn down before returning, success or not.
func (r *implResolver) sniffManifestURL(ctx context.Context) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	found := make(chan string, 1)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		if strings.Contains(req.Request.URL, r.manifestPattern) {
			select {
			case found <- req.Request.URL:
				r.logger.Info(ctx, "Captured manifest URL")
			default:
			}
		}
	})

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.navTimeout)
	defer cancelNav()

	r.logger.Info(ctx, "Loading page: %s", r.pageURL)
	navErr := chromedp.Run(navCtx,
		network.Enable(),
		chromedp.Navigate(r.pageURL),
	)

	// The player usually requests the manifest shortly after load; give it
	// a bounded window even when navigation itself reported a problem.
	select {
	case url := <-found:
		return url, nil
	case <-time.After(r.manifestWait):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if navErr != nil {
		return "", fmt.Errorf("%w: %v", ErrNavigationFailed, navErr)
	}
	return "", ErrNoManifestFound
}

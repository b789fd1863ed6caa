/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: browser.go
Description: Rendered page source using chromedp. Loads a URL in headless Chrome so
tables built by JavaScript are present, then hands the DOM to the HTML table extractor.
*/

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/kleascm/datatool/pkg/inference"
)

// BrowserSource fetches a page through headless Chrome
// Requires a Chrome or Chromium binary on the PATH
type BrowserSource struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	// WaitSelector is awaited before the DOM is read; defaults to "table"
	WaitSelector string
}

// NewBrowserSource creates a new BrowserSource
func NewBrowserSource(url string, timeout time.Duration, headers map[string]string) *BrowserSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BrowserSource{URL: url, Timeout: timeout, Headers: headers, WaitSelector: "table"}
}

func (s *BrowserSource) Name() string { return s.URL }

// Load navigates to the page and extracts its first table
func (s *BrowserSource) Load(ctx context.Context) (inference.RawText, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()
	runCtx, cancel := context.WithTimeout(browserCtx, s.Timeout)
	defer cancel()

	var dom string
	if err := chromedp.Run(runCtx, s.actions(&dom)...); err != nil {
		return inference.RawText{}, fmt.Errorf("failed to render %s: %w", s.URL, err)
	}
	return toRawText([]byte(dom), "text/html", sourceID(s.URL))
}

func (s *BrowserSource) actions(dom *string) []chromedp.Action {
	var actions []chromedp.Action
	if len(s.Headers) > 0 {
		hdrs := make(network.Headers)
		for k, v := range s.Headers {
			hdrs[k] = v
		}
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(hdrs))
	}
	actions = append(actions, chromedp.Navigate(s.URL))
	if s.WaitSelector != "" {
		actions = append(actions, chromedp.WaitReady(s.WaitSelector, chromedp.ByQuery))
	}
	return append(actions, chromedp.OuterHTML("html", dom))
}

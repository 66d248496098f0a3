// Package fetch reads HTML pages from URLs, files or standard input.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html/charset"
)

// DefaultMaxBytes caps the size of a fetched page.
const DefaultMaxBytes = 5 * 1024 * 1024

const defaultUserAgent = "Mozilla/5.0 (compatible; textcat/1.0; +https://github.com/happyhackingspace/textcat)"

// ErrEmptyInput is returned when standard input holds nothing but whitespace.
var ErrEmptyInput = errors.New("input is empty")

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Insecure  bool
	// Render loads URLs in headless Chrome and returns the rendered DOM.
	Render bool
}

// Fetcher loads page HTML.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	render    bool
	timeout   time.Duration
}

// Page is a fetched document.
type Page struct {
	HTML   string
	Source string // URL, file path or "stdin"
}

// New creates a Fetcher. Zero options use a 30 second timeout and DefaultMaxBytes.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client:    newHTTPClient(opts.Timeout, opts.Insecure),
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		render:    opts.Render,
		timeout:   opts.Timeout,
	}
}

func newHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// IsURL reports whether target is an http or https URL.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// Fetch loads target, which is either a URL or a local file path.
func (f *Fetcher) Fetch(ctx context.Context, target string) (Page, error) {
	if !IsURL(target) {
		data, err := os.ReadFile(target)
		if err != nil {
			return Page{}, fmt.Errorf("read file: %w", err)
		}
		return Page{HTML: string(data), Source: target}, nil
	}

	var (
		html string
		err  error
	)
	if f.render {
		html, err = f.renderURL(ctx, target)
	} else {
		html, err = f.getURL(ctx, target)
	}
	if err != nil {
		return Page{}, err
	}
	return Page{HTML: html, Source: target}, nil
}

// FromReader reads a page from r. Content that is a single URL is fetched.
func (f *Fetcher) FromReader(ctx context.Context, r io.Reader) (Page, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return Page{}, ErrEmptyInput
	}

	if IsURL(content) && !strings.ContainsAny(content, " \n\t") {
		slog.Debug("Input contains URL", "url", content)
		return f.Fetch(ctx, content)
	}
	return Page{HTML: content, Source: "stdin"}, nil
}

func (f *Fetcher) getURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch URL: HTTP %d", resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	slog.Debug("Page fetched", "url", rawURL, "status", resp.StatusCode, "bytes", len(data))
	return string(data), nil
}

func (f *Fetcher) renderURL(ctx context.Context, rawURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(f.userAgent))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render URL: %w", err)
	}
	slog.Debug("Page rendered", "url", rawURL, "bytes", len(html))
	return html, nil
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Package documents downloads the order and judgment files linked from a case's
// result page.
package documents

import (
	"bytes"
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/scrapers/ecourts"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_fetch    = "fetcher.fetch"
	report_fetcher_download = "fetcher.download"
	report_fetcher_probe    = "fetcher.probe"
)

type Options struct {
	RequestsPerSecond float64
	Burst             int
	CacheSize         int
	CacheTTL          time.Duration
	// MaxSize is the largest document in bytes that will be accepted.
	MaxSize int64
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 64
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 15 * time.Minute
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 25 << 20
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

var ErrNotPdf = errors.New("response is not a pdf document")

// Fetcher is a rate limited client for the portal's document links, bodies are
// cached for a while since the same orders are requested repeatedly.
type Fetcher struct {
	http    *resty.Client
	cache   *expirable.LRU[string, []byte]
	maxSize int64
	tel     telemetry.API
}

func NewFetcher(opts Options, tel telemetry.API) Fetcher {
	assert.NotNil(tel)
	opts = opts.withDefaults()

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", "casestatus/1.0")
	telemetry.InstrumentResty(client, "casestatus/documents", tel)

	limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return Fetcher{
		http:    client,
		cache:   expirable.NewLRU[string, []byte](opts.CacheSize, nil, opts.CacheTTL),
		maxSize: opts.MaxSize,
		tel:     telemetry.NewScopedAPI("documents", tel),
	}
}

var pdfMagic = []byte("%PDF-")

func isPdf(contentType string, body []byte) bool {
	if bytes.HasPrefix(body, pdfMagic) {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

// Fetch returns the body of the document at link.
func (f Fetcher) Fetch(ctx context.Context, link string) ([]byte, error) {
	if body, ok := f.cache.Get(link); ok {
		f.tel.ReportDebug("cache hit", link)
		return body, nil
	}

	res, err := f.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", link, err)
	}
	if res.IsError() {
		err = fmt.Errorf("get %s: %s", link, res.Status())
		f.tel.ReportWarning(report_fetcher_fetch, err)
		return nil, err
	}

	body := res.Body()
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("get %s: document is %d bytes, over the %d byte limit", link, len(body), f.maxSize)
	}
	if !isPdf(res.Header().Get("Content-Type"), body) {
		f.tel.ReportWarning(report_fetcher_fetch, ErrNotPdf, link, res.Header().Get("Content-Type"))
		return nil, fmt.Errorf("get %s: %w", link, ErrNotPdf)
	}

	f.cache.Add(link, body)
	return body, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns a file name of the form `<date>_<basename>.pdf` for link.
func FileName(link ecourts.DocumentLink) string {
	date := link.Date
	if parsed, ok := ecourts.ParseOrderDate(date); ok {
		date = parsed.Format("2006-01-02")
	}
	date = strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(date), "-"), "-")
	if date == "" {
		date = "undated"
	}

	base := "document"
	parsed, err := url.Parse(link.Url)
	if err == nil {
		name := path.Base(parsed.Path)
		if name != "/" && name != "." {
			base = name
		}
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Trim(unsafeFileChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("%s_%s.pdf", date, base)
}

// Download writes every document in links to dir and returns the written
// paths. A failing document does not stop the others from being downloaded.
func (f Fetcher) Download(ctx context.Context, links []ecourts.DocumentLink, dir string) ([]string, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	var written []string
	var errs []error
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		body, err := f.Fetch(ctx, link.Url)
		if err != nil {
			f.tel.ReportWarning(report_fetcher_download, err)
			errs = append(errs, err)
			continue
		}

		target := filepath.Join(dir, FileName(link))
		err = os.WriteFile(target, body, 0644)
		if err != nil {
			f.tel.ReportBroken(report_fetcher_download, fmt.Errorf("write file: %w", err), target)
			errs = append(errs, err)
			continue
		}
		written = append(written, target)
	}
	return written, errors.Join(errs...)
}

type ProbeResult struct {
	Url        string
	StatusCode int
	Status     string
	Elapsed    time.Duration
}

func (r ProbeResult) Reachable() bool {
	return r.StatusCode > 0 && r.StatusCode < 500
}

// Probe checks that the portal answers at all, it does not touch the cache.
func (f Fetcher) Probe(ctx context.Context, portalUrl string) (ProbeResult, error) {
	start := time.Now()
	res, err := f.http.R().
		SetContext(ctx).
		Get(portalUrl)
	result := ProbeResult{Url: portalUrl, Elapsed: time.Since(start)}
	if err != nil {
		f.tel.ReportWarning(report_fetcher_probe, err, portalUrl)
		return result, err
	}
	result.StatusCode = res.StatusCode()
	result.Status = res.Status()
	if !result.Reachable() {
		f.tel.ReportWarning(report_fetcher_probe, "portal returned server error", portalUrl, result.Status)
	}
	return result, nil
}

package forum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"donorbot-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/forum")

// FetchError is the single failure a page fetch surfaces after retries
// are exhausted or a non-retriable response arrives.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type ClientOptions struct {
	// BaseUrl is the thread's first-page URL, used unmodified for page 1.
	BaseUrl string
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// MaxRetries is the total attempt count per page.
	MaxRetries int
	// RetryBackoff is the linear backoff unit: attempt n waits n*RetryBackoff.
	RetryBackoff time.Duration
	// RequestDelay is honored after every successful fetch to throttle
	// load on the forum. Zero disables it.
	RequestDelay time.Duration
	// OffsetParam is the query parameter carrying the post offset.
	OffsetParam string
	// PageSize is the number of posts per page the forum renders.
	PageSize int
}

func (o *ClientOptions) applyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.OffsetParam == "" {
		o.OffsetParam = "start"
	}
	if o.PageSize == 0 {
		o.PageSize = 20
	}
}

type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	opts    ClientOptions

	// replaced in tests to observe backoff without waiting it out
	sleep func(time.Duration)
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.applyDefaults()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))

	telemetry.InstrumentResty(client, "scrapers/forum/http")

	return &Client{
		baseUrl: baseUrl,
		http:    client,
		opts:    opts,
		sleep:   time.Sleep,
	}, nil
}

func (c *Client) PageSize() int {
	return c.opts.PageSize
}

func (c *Client) OffsetParam() string {
	return c.opts.OffsetParam
}

// PageURL derives the URL of the given 1-based page. Page 1 is the base
// URL untouched; later pages get the offset parameter set to
// (page-1)*pageSize.
func (c *Client) PageURL(page int) string {
	if page <= 1 {
		return c.baseUrl.String()
	}
	link := *c.baseUrl
	query := link.Query()
	query.Set(c.opts.OffsetParam, strconv.Itoa((page-1)*c.opts.PageSize))
	link.RawQuery = query.Encode()
	return link.String()
}

// FetchPage retrieves one page of thread markup, retrying transient
// transport failures with linear backoff. It never returns partial
// content: the result is either a parsed document or a *FetchError.
func (c *Client) FetchPage(ctx context.Context, page int) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPage")
	defer span.End()

	link := c.PageURL(page)

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}

		res, err := c.http.R().
			SetContext(ctx).
			Get(link)
		if err != nil {
			if !retriable(err) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "non-retriable transport failure")
				return nil, &FetchError{Page: page, Err: err}
			}
			lastErr = err
			if attempt < c.opts.MaxRetries {
				wait := time.Duration(attempt) * c.opts.RetryBackoff
				slog.WarnContext(ctx, "transient fetch failure, backing off",
					"page", page, "attempt", attempt, "wait", wait, "err", err)
				c.sleep(wait)
			}
			continue
		}

		if res.StatusCode() != 200 {
			err := fmt.Errorf("unexpected status %d", res.StatusCode())
			span.RecordError(err)
			span.SetStatus(codes.Error, "unexpected http status")
			return nil, &FetchError{Page: page, Err: err}
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse html")
			return nil, &FetchError{Page: page, Err: err}
		}

		if c.opts.RequestDelay > 0 {
			c.sleep(c.opts.RequestDelay)
		}
		return doc, nil
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return nil, &FetchError{Page: page, Err: fmt.Errorf("%d attempts: %w", c.opts.MaxRetries, lastErr)}
}

// transient transport classes worth another attempt: timeouts,
// connection resets, abrupt termination mid-response, flaky DNS
func retriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

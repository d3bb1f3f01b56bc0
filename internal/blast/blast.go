// Package blast runs similarity searches against NCBI's remote BLAST
// service and reads the hits out of its XML report.
//
// https://ncbi.github.io/blast-cloud/dev/api.html
package blast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jjtimmons/cox1/internal/errs"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the BLAST URL API endpoint.
const DefaultBaseURL = "https://blast.ncbi.nlm.nih.gov/Blast.cgi"

// service is the name used in errors and logs
const service = "blast"

// Client submits queries to the BLAST URL API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	tool  string
	email string

	// the max number of hits for the service to return, zero for its default
	hitlistSize int

	pollInterval time.Duration
	maxWait      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another BLAST endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger for search progress.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithIdentity sets the tool name and contact email NCBI asks for.
func WithIdentity(tool, email string) Option {
	return func(c *Client) {
		c.tool = tool
		c.email = email
	}
}

// WithHitlistSize caps the number of hits in the report.
func WithHitlistSize(n int) Option {
	return func(c *Client) { c.hitlistSize = n }
}

// WithPolling sets the interval between SearchInfo queries and the
// total time to wait for a search before errs.ErrPollLimit.
func WithPolling(interval, maxWait time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxWait = maxWait
	}
}

// New creates a BLAST client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		logger:       zerolog.Nop(),
		tool:         "cox1",
		pollInterval: 20 * time.Second,
		maxWait:      30 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs program (ex: "blastn") for query against database (ex: "nt")
// and blocks until the XML report is ready, returning it verbatim.
func (c *Client) Search(ctx context.Context, program, database, query string) ([]byte, error) {
	rid, rtoe, err := c.put(ctx, program, database, query)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("rid", rid).Dur("estimate", rtoe).Msg("submitted blast search")

	if err := c.wait(ctx, rid); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("RID", rid)
	q.Set("FORMAT_TYPE", "XML")
	return c.get(ctx, "blast get", q)
}

// put submits the search and returns its request id and estimated run time.
func (c *Client) put(ctx context.Context, program, database, query string) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("CMD", "Put")
	form.Set("PROGRAM", program)
	form.Set("DATABASE", database)
	form.Set("QUERY", query)
	if c.hitlistSize > 0 {
		form.Set("HITLIST_SIZE", strconv.Itoa(c.hitlistSize))
	}
	c.identify(form)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &errs.TransportError{Op: "blast put", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, "blast put")
	if err != nil {
		return "", 0, err
	}
	return parsePut(body)
}

// wait polls SearchInfo until the search is READY.
func (c *Client) wait(ctx context.Context, rid string) error {
	deadline := time.Now().Add(c.maxWait)

	q := url.Values{}
	q.Set("CMD", "Get")
	q.Set("RID", rid)
	q.Set("FORMAT_OBJECT", "SearchInfo")

	for polls := 1; ; polls++ {
		if err := sleep(ctx, c.pollInterval); err != nil {
			return err
		}

		body, err := c.get(ctx, "blast status", q)
		if err != nil {
			return err
		}

		status, hits := parseSearchInfo(body)
		c.logger.Debug().Str("rid", rid).Str("status", status).Int("poll", polls).Msg("blast status")

		switch status {
		case "READY":
			if !hits {
				c.logger.Warn().Str("rid", rid).Msg("blast search finished without hits")
			}
			return nil
		case "FAILED":
			return &errs.ServiceError{Service: service, Job: rid, Msg: "search failed"}
		case "UNKNOWN":
			return &errs.ServiceError{Service: service, Job: rid, Msg: "search expired or unknown RID"}
		}

		if time.Now().Add(c.pollInterval).After(deadline) {
			return fmt.Errorf("%s search %s after %d polls: %w", service, rid, polls, errs.ErrPollLimit)
		}
	}
}

func (c *Client) get(ctx context.Context, op string, q url.Values) ([]byte, error) {
	c.identify(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	return c.do(req, op)
}

func (c *Client) identify(v url.Values) {
	if c.tool != "" {
		v.Set("tool", c.tool)
	}
	if c.email != "" {
		v.Set("email", c.email)
	}
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return body, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

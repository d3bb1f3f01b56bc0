// Package ncbi is a small client for the NCBI Entrez E-utilities: search the
// nucleotide database for an organism's gene and fetch the matching record.
//
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package ncbi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jjtimmons/cox1/internal/errs"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the E-utilities root.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// database searched and fetched from
const database = "nucleotide"

// Client queries Entrez. Transient failures are retried with exponential backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	// identifiers NCBI asks every E-utility request to carry
	tool   string
	email  string
	apiKey string

	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another E-utilities root (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger for retry notices.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithIdentity sets the tool name, contact email and optional API key.
func WithIdentity(tool, email, apiKey string) Option {
	return func(c *Client) {
		c.tool = tool
		c.email = email
		c.apiKey = apiKey
	}
}

// WithRetry bounds the retry policy for transient failures.
// maxAttempts counts the first try.
func WithRetry(maxAttempts int, initial, maxInterval time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.initialInterval = initial
		c.maxInterval = maxInterval
	}
}

// New creates an Entrez client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		logger:          zerolog.Nop(),
		tool:            "cox1",
		maxAttempts:     4,
		initialInterval: time.Second,
		maxInterval:     15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// Term is the Entrez query for a species' gene.
func Term(species, gene string) string {
	return fmt.Sprintf(`"%s"[Organism] AND %s[Gene]`, species, gene)
}

type searchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

// Search returns the first nucleotide record id for the species' gene.
// Returns errs.ErrNotFound if there is none.
func (c *Client) Search(ctx context.Context, species, gene string) (string, error) {
	q := url.Values{}
	q.Set("db", database)
	q.Set("term", Term(species, gene))
	q.Set("retmax", "1")
	q.Set("retmode", "json")

	body, err := c.get(ctx, "esearch", "esearch.fcgi", q)
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &errs.ParseError{Err: fmt.Errorf("esearch response: %w", err)}
	}
	if resp.Result.Error != "" {
		return "", &errs.ServiceError{Service: "esearch", Msg: resp.Result.Error}
	}
	if len(resp.Result.IDList) < 1 {
		return "", fmt.Errorf("%s %s: %w", species, gene, errs.ErrNotFound)
	}

	return resp.Result.IDList[0], nil
}

// Fetch returns the FASTA text of a nucleotide record.
func (c *Client) Fetch(ctx context.Context, id string) ([]byte, error) {
	q := url.Values{}
	q.Set("db", database)
	q.Set("id", id)
	q.Set("rettype", "fasta")
	q.Set("retmode", "text")

	body, err := c.get(ctx, "efetch", "efetch.fcgi", q)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("record %s: %w", id, errs.ErrNotFound)
	}
	return body, nil
}

// get issues a GET against an E-utility, retrying network errors,
// 429s and 5xxs. Any other non-2xx response is returned immediately.
func (c *Client) get(ctx context.Context, op, endpoint string, q url.Values) ([]byte, error) {
	q.Set("tool", c.tool)
	if c.email != "" {
		q.Set("email", c.email)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(&errs.TransportError{Op: op, Err: err})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&errs.TransportError{Op: op, Err: ctx.Err()})
			}
			return &errs.TransportError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errs.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			tErr := &errs.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", snippet(b))}
			if retryable(resp.StatusCode) {
				return tErr
			}
			return backoff.Permanent(tErr)
		}

		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Str("op", op).Dur("wait", wait).Msg("retrying entrez request")
	}
	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// snippet trims a response body for error messages.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}

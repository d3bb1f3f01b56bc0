// Package clustal submits multiple sequence alignments to the EBI Job
// Dispatcher's Clustal Omega REST service and polls them to completion.
//
// https://www.ebi.ac.uk/Tools/common/tools/help/index.html?tool=clustalo
package clustal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jjtimmons/cox1/internal/errs"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Clustal Omega REST root.
const DefaultBaseURL = "https://www.ebi.ac.uk/Tools/services/rest/clustalo"

// ResultAlignedFasta is the result type for an aligned FASTA document.
const ResultAlignedFasta = "aln-fasta"

// service is the name used in errors and logs
const service = "clustalo"

// ErrMissingEmail is returned before submitting if no contact email is set.
// EBI rejects anonymous jobs.
var ErrMissingEmail = errors.New("clustalo: a contact email is required (set email in settings or COX1_EMAIL)")

// Client talks to the Clustal Omega service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	email  string
	stype  string
	outfmt string

	pollInterval time.Duration
	maxPolls     int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another service root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger for job progress.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithEmail sets the contact address sent with each job.
func WithEmail(email string) Option {
	return func(c *Client) { c.email = email }
}

// WithFormat sets the sequence type ("dna", "rna", "protein") and output format.
func WithFormat(stype, outfmt string) Option {
	return func(c *Client) {
		c.stype = stype
		c.outfmt = outfmt
	}
}

// WithPolling sets the sleep between status queries and the most queries
// made before giving up with errs.ErrPollLimit.
func WithPolling(interval time.Duration, maxPolls int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = maxPolls
	}
}

// New creates a Clustal Omega client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       zerolog.Nop(),
		stype:        "dna",
		outfmt:       "fa",
		pollInterval: 5 * time.Second,
		maxPolls:     120,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxPolls < 1 {
		c.maxPolls = 1
	}
	return c
}

// Submit starts an alignment of the FASTA text in sequences.
// A non-2xx response is terminal and is not retried.
func (c *Client) Submit(ctx context.Context, sequences []byte) (*Job, error) {
	if c.email == "" {
		return nil, ErrMissingEmail
	}

	form := url.Values{}
	form.Set("email", c.email)
	form.Set("sequence", string(sequences))
	form.Set("stype", c.stype)
	form.Set("outfmt", c.outfmt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &errs.TransportError{Op: "clustalo run", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")

	body, err := c.do(req, "clustalo run")
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(string(body))
	if id == "" {
		return nil, &errs.ServiceError{Service: service, Msg: "empty job id in run response"}
	}

	c.logger.Info().Str("job", id).Msg("submitted alignment")
	return &Job{ID: id, Status: Submitted}, nil
}

// Status queries the current state of a job.
func (c *Client) Status(ctx context.Context, id string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+url.PathEscape(id), nil)
	if err != nil {
		return "", &errs.TransportError{Op: "clustalo status", Err: err}
	}

	body, err := c.do(req, "clustalo status")
	if err != nil {
		return "", err
	}
	return ParseStatus(string(body))
}

// Wait polls the job until it is FINISHED or ERROR. The first query is
// immediate, then one every poll interval. An ERROR status stops polling.
func (c *Client) Wait(ctx context.Context, job *Job) error {
	for polls := 1; ; polls++ {
		status, err := c.Status(ctx, job.ID)
		if err != nil {
			return err
		}
		job.Status = status
		c.logger.Debug().Str("job", job.ID).Str("status", string(status)).Int("poll", polls).Msg("alignment status")

		if status.Terminal() {
			if status == Error {
				return &errs.ServiceError{Service: service, Job: job.ID, Msg: "job reported status ERROR"}
			}
			return nil
		}

		if polls >= c.maxPolls {
			return fmt.Errorf("%s job %s after %d polls: %w", service, job.ID, polls, errs.ErrPollLimit)
		}

		t := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Result downloads a finished job's result of the given type, ex: ResultAlignedFasta.
func (c *Client) Result(ctx context.Context, id, resultType string) ([]byte, error) {
	u := c.baseURL + "/result/" + url.PathEscape(id) + "/" + url.PathEscape(resultType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "clustalo result", Err: err}
	}
	return c.do(req, "clustalo result")
}

// Align submits sequences, waits for the job to finish and returns the
// aligned FASTA result.
func (c *Client) Align(ctx context.Context, sequences []byte) ([]byte, error) {
	job, err := c.Submit(ctx, sequences)
	if err != nil {
		return nil, err
	}

	if err := c.Wait(ctx, job); err != nil {
		return nil, err
	}

	result, err := c.Result(ctx, job.ID, ResultAlignedFasta)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("job", job.ID).Int("bytes", len(result)).Msg("downloaded alignment")
	return result, nil
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
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &errs.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	return body, nil
}

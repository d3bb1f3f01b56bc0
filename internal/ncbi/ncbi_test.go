package ncbi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jjtimmons/cox1/internal/errs"
)

const panFasta = ">NC_001643.1 Pan troglodytes mitochondrion, complete genome\nATGTTCGCCGACCGTTGACTATTCTCTACAAACCACAAAGATATTGGAACACTATACC\n"

func newTestClient(url string) *Client {
	return New(
		WithBaseURL(url),
		WithIdentity("cox1-test", "dev@example.org", ""),
		WithRetry(3, time.Millisecond, 5*time.Millisecond),
	)
}

func TestClient_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/esearch.fcgi" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("db") != "nucleotide" || q.Get("retmax") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("email") != "dev@example.org" || q.Get("tool") != "cox1-test" {
			t.Errorf("missing identity in %v", q)
		}

		if q.Get("term") == Term("Pan troglodytes", "COX1") {
			fmt.Fprint(w, `{"esearchresult":{"count":"12","idlist":["5835121"]}}`)
			return
		}
		fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	id, err := c.Search(context.Background(), "Pan troglodytes", "COX1")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if id != "5835121" {
		t.Errorf("Search() = %q, want 5835121", id)
	}

	_, err = c.Search(context.Background(), "Nonexistent species", "COX1")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Search() error = %v, want ErrNotFound", err)
	}
}

func TestClient_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/efetch.fcgi" || q.Get("id") != "5835121" || q.Get("rettype") != "fasta" || q.Get("retmode") != "text" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, panFasta)
	}))
	defer ts.Close()

	body, err := newTestClient(ts.URL).Fetch(context.Background(), "5835121")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != panFasta {
		t.Errorf("Fetch() = %q", body)
	}
}

func TestClient_retry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		wantCalls int32
		wantErr   bool
	}{
		{"recovers after transient 503s", 2, http.StatusServiceUnavailable, 3, false},
		{"gives up after max attempts", 5, http.StatusServiceUnavailable, 3, true},
		{"rate limited then ok", 1, http.StatusTooManyRequests, 2, false},
		{"no retry on 400", 5, http.StatusBadRequest, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				if n <= tt.failures {
					http.Error(w, "try later", tt.status)
					return
				}
				fmt.Fprint(w, panFasta)
			}))
			defer ts.Close()

			_, err := newTestClient(ts.URL).Fetch(context.Background(), "5835121")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("server saw %d calls, want %d", got, tt.wantCalls)
			}

			if tt.wantErr {
				var te *errs.TransportError
				if !errors.As(err, &te) || te.StatusCode != tt.status {
					t.Errorf("error = %v, want TransportError with status %d", err, tt.status)
				}
			}
		})
	}
}

func TestClient_cancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(WithBaseURL(ts.URL), WithRetry(10, time.Second, time.Second))
	if _, err := c.Fetch(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}

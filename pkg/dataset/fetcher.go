package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruslano69/stockreport/pkg/report"
)

// Failure classes. Every fetch error wraps exactly one of them.
var (
	ErrTransport = errors.New("transport failure")
	ErrServer    = errors.New("server failure")
	ErrParse     = errors.New("parse failure")
)

// Response is the outcome of one successful fetch.
type Response[R report.Record] struct {
	Records []R
	ETag    string
	// NotModified means the server confirmed the previous records.
	NotModified bool
}

// Fetcher loads one report. etag is the validator of the last applied
// response, empty on the first call.
type Fetcher[R report.Record] interface {
	Fetch(ctx context.Context, etag string) (Response[R], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[R report.Record] func(ctx context.Context, etag string) (Response[R], error)

// Fetch implements Fetcher.
func (f FetcherFunc[R]) Fetch(ctx context.Context, etag string) (Response[R], error) {
	return f(ctx, etag)
}

// HTTPFetcher reads a JSON array of records from the report API.
type HTTPFetcher[R report.Record] struct {
	Client *http.Client
	URL    string
	// Method defaults to GET. With POST, Body is sent as JSON.
	Method string
	Body   any
}

// Fetch implements Fetcher.
func (f *HTTPFetcher[R]) Fetch(ctx context.Context, etag string) (Response[R], error) {
	method := f.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if f.Body != nil {
		b, err := json.Marshal(f.Body)
		if err != nil {
			return Response[R]{}, fmt.Errorf("%w: encode body: %v", ErrTransport, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.URL, body)
	if err != nil {
		return Response[R]{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response[R]{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Response[R]{ETag: etag, NotModified: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response[R]{}, fmt.Errorf("%w: %s%s", ErrServer, resp.Status, envelope(resp.Body))
	}

	var records []R
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return Response[R]{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if records == nil {
		records = []R{}
	}
	return Response[R]{Records: records, ETag: resp.Header.Get("ETag")}, nil
}

// envelope extracts the {"error": "..."} message of a failed response.
func envelope(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	if json.Unmarshal(data, &e) != nil || strings.TrimSpace(e.Error) == "" {
		return ""
	}
	return ": " + e.Error
}

package runner

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTargetAddress is the local server under test.
	DefaultTargetAddress = "127.0.0.1:1975"
	DefaultTimeout       = 30 * time.Second
	DefaultConcurrency   = 1

	// maxDrainBytes bounds how much of a response body is read and discarded.
	maxDrainBytes = 64 << 10
)

// Response is the part of an HTTP response that classification and
// diagnostics use. Bodies are never kept.
type Response struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers"`
}

// Location returns the response's Location header, or "" when absent.
func (r *Response) Location() string {
	if r == nil {
		return ""
	}
	return r.Headers["Location"]
}

// RawResult is what one execution produced before classification: either a
// response, a transport error, or a skip.
type RawResult struct {
	Skipped        bool
	Response       *Response
	Err            error
	URL            string
	Target         string
	Remote         bool
	RequestHeaders map[string]string
	Duration       time.Duration
}

// Result pairs a case with its classified outcome.
type Result struct {
	Case     TestCase
	Outcome  Outcome
	Duration time.Duration
}

// Executor sends test cases to a target server. Configure it before Run;
// it is read-only while cases execute.
type Executor struct {
	target             string
	remote             bool
	parallel           int
	testTimeout        time.Duration
	insecureSkipVerify bool
	onCaseCompleted    func(Result)
}

// NewExecutor returns an executor aimed at target (host:port). An empty
// target falls back to DefaultTargetAddress.
func NewExecutor(target string) *Executor {
	if target == "" {
		target = DefaultTargetAddress
	}
	return &Executor{
		target:      target,
		parallel:    DefaultConcurrency,
		testTimeout: DefaultTimeout,
	}
}

func (e *Executor) Target() string {
	return e.target
}

// SetRemote records whether the target is a remote server. It only affects
// reporting.
func (e *Executor) SetRemote(remote bool) {
	e.remote = remote
}

// SetConcurrency sets the maximum number of concurrent cases
func (e *Executor) SetConcurrency(concurrency int) {
	if concurrency > 0 {
		e.parallel = concurrency
	}
}

// GetConcurrency returns the current concurrency setting
func (e *Executor) GetConcurrency() int {
	return e.parallel
}

func (e *Executor) SetTestTimeout(timeout time.Duration) {
	if timeout > 0 {
		e.testTimeout = timeout
	}
}

func (e *Executor) SetInsecureSkipVerify(skip bool) {
	e.insecureSkipVerify = skip
}

func (e *Executor) SetOnCaseCompleted(callback func(Result)) {
	e.onCaseCompleted = callback
}

// RequestURL builds {scheme}://{target}{path}.
func RequestURL(tc TestCase, target string) string {
	return tc.Scheme + "://" + target + tc.Path
}

// Execute sends the single GET request for tc and captures the first-hop
// response. Cases without a test override are skipped without any I/O.
func (e *Executor) Execute(ctx context.Context, tc TestCase) RawResult {
	raw := RawResult{
		Target: e.target,
		Remote: e.remote,
		URL:    RequestURL(tc, e.target),
	}
	if !tc.HasTest() {
		slog.Debug("Skipping case without test", "id", tc.ID)
		raw.Skipped = true
		return raw
	}

	raw.RequestHeaders = make(map[string]string, len(tc.Headers))
	for k, v := range tc.Headers {
		raw.RequestHeaders[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, e.testTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw.URL, nil)
	if err != nil {
		raw.Err = err
		return raw
	}
	req.Header = tc.requestHeaders()
	req.Host = tc.HostHeader()

	client, transport := e.newClient(tc)
	defer transport.CloseIdleConnections()

	slog.Debug("Sending request", "id", tc.ID, "url", raw.URL, "host", req.Host, "headers", formatHeaderMap(raw.RequestHeaders))

	start := time.Now()
	resp, err := client.Do(req)
	raw.Duration = time.Since(start)
	if err != nil {
		slog.Debug("Request failed", "id", tc.ID, "error", err)
		raw.Err = err
		return raw
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	raw.Response = newResponse(resp)
	slog.Debug("Received response", "id", tc.ID, "status", resp.StatusCode, "headers", formatHeaderMap(raw.Response.Headers))
	return raw
}

// RunCase executes and classifies one case.
func (e *Executor) RunCase(ctx context.Context, tc TestCase) Result {
	raw := e.Execute(ctx, tc)
	return Result{
		Case:     tc,
		Outcome:  Classify(tc, raw),
		Duration: raw.Duration,
	}
}

// Run executes cases with a bounded worker pool and returns results in the
// order of the input slice. When ctx is cancelled no new cases start,
// in-flight requests are abandoned, and the results finished so far are
// returned along with ctx.Err().
func (e *Executor) Run(ctx context.Context, cases []TestCase) ([]Result, error) {
	if len(cases) == 0 {
		return []Result{}, nil
	}

	type positioned struct {
		pos    int
		result Result
	}

	workers := min(e.parallel, len(cases))
	caseChan := make(chan int)
	resultChan := make(chan positioned, len(cases))

	var wg sync.WaitGroup
	for workerID := range workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for pos := range caseChan {
				tc := cases[pos]
				slog.Debug("Worker starting case", "workerID", workerID, "id", tc.ID)

				result := e.RunCase(ctx, tc)
				if ctx.Err() != nil && result.Outcome.Kind() == KindConnectionFailed {
					slog.Debug("Dropping case interrupted by cancellation", "id", tc.ID)
					continue
				}
				resultChan <- positioned{pos: pos, result: result}
			}
		}(workerID)
	}

	go func() {
		defer close(caseChan)
		for pos := range cases {
			if ctx.Err() != nil {
				return
			}
			select {
			case caseChan <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := make([]positioned, 0, len(cases))
	for r := range resultChan {
		if e.onCaseCompleted != nil {
			e.onCaseCompleted(r.result)
		}
		collected = append(collected, r)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].pos < collected[j].pos })
	results := make([]Result, len(collected))
	for i, r := range collected {
		results[i] = r.result
	}

	summary := Summarize(results)
	slog.Debug("Completed case execution",
		"totalCases", len(cases),
		"maxConcurrency", workers,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"skipped", summary.Skipped)

	return results, ctx.Err()
}

// newClient builds a client with its own transport so no connection,
// TLS session or header state crosses between cases.
func (e *Executor) newClient(tc TestCase) (*http.Client, *http.Transport) {
	dialer := &net.Dialer{Timeout: e.testTimeout, KeepAlive: -1}
	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         dialer.DialContext,
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: e.testTimeout,
		TLSClientConfig: &tls.Config{
			ServerName:         serverName(tc.HostHeader()),
			InsecureSkipVerify: e.insecureSkipVerify, // #nosec G402
		},
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   e.testTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return client, transport
}

func serverName(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func newResponse(resp *http.Response) *Response {
	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
	}
}

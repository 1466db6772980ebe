package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Use-Tusk/redirect-check/internal/rules"
)

// serverTarget returns the host:port of an httptest server.
func serverTarget(srv *httptest.Server) string {
	return strings.TrimPrefix(strings.TrimPrefix(srv.URL, "http://"), "https://")
}

func httpCase(host, path string, code int, location *string) TestCase {
	return TestCase{
		ID:               host + path,
		Hostname:         host,
		Scheme:           "http",
		Path:             path,
		ExpectedCode:     code,
		ExpectedLocation: location,
		Headers:          map[string]string{"Host": host},
		Test:             &rules.TestOverride{},
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor("")

	assert.NotNil(t, executor)
	assert.Equal(t, DefaultTargetAddress, executor.Target())
	assert.Equal(t, 1, executor.GetConcurrency())
	assert.Equal(t, 30*time.Second, executor.testTimeout)
	assert.False(t, executor.remote)
	assert.False(t, executor.insecureSkipVerify)
	assert.Nil(t, executor.onCaseCompleted)

	assert.Equal(t, "10.1.2.3:8443", NewExecutor("10.1.2.3:8443").Target())
}

func TestExecutor_SetConcurrency(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		expected    int
	}{
		{name: "valid_positive_concurrency", concurrency: 10, expected: 10},
		{name: "zero_concurrency_ignored", concurrency: 0, expected: 1},
		{name: "negative_concurrency_ignored", concurrency: -5, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewExecutor("")
			executor.SetConcurrency(tt.concurrency)
			assert.Equal(t, tt.expected, executor.GetConcurrency())
		})
	}
}

func TestExecutor_SetTestTimeout(t *testing.T) {
	executor := NewExecutor("")
	executor.SetTestTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, executor.testTimeout)

	executor.SetTestTimeout(0)
	assert.Equal(t, 5*time.Second, executor.testTimeout)
}

func TestExecutor_SkipsCaseWithoutTest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tc := httpCase("b.example.com", "/gone", 404, nil)
	tc.Test = nil

	executor := NewExecutor(serverTarget(srv))
	raw := executor.Execute(context.Background(), tc)
	assert.True(t, raw.Skipped)

	result := executor.RunCase(context.Background(), tc)
	assert.Equal(t, Skipped{Reason: SkipReason}, result.Outcome)
	assert.Equal(t, int32(0), hits.Load(), "no request is sent for a case without a test")
}

func TestExecutor_DoesNotFollowRedirects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	executor := NewExecutor(serverTarget(srv))
	raw := executor.Execute(context.Background(), httpCase("a.example.com", "/old", 301, strPtr("/new")))

	require.NoError(t, raw.Err)
	require.NotNil(t, raw.Response)
	assert.Equal(t, http.StatusMovedPermanently, raw.Response.StatusCode)
	assert.Equal(t, "/new", raw.Response.Location())
	assert.Equal(t, srv.URL+"/old", raw.URL)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExecutor_SendsHostAndOverrideHeaders(t *testing.T) {
	type seen struct{ host, proto, method string }
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{host: r.Host, proto: r.Header.Get("X-Forwarded-Proto"), method: r.Method}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tc := httpCase("a.example.com", "/", 200, nil)
	tc.Headers["X-Forwarded-Proto"] = "http"

	executor := NewExecutor(serverTarget(srv))
	result := executor.RunCase(context.Background(), tc)

	assert.Equal(t, Passed{}, result.Outcome)
	req := <-got
	assert.Equal(t, "a.example.com", req.host)
	assert.Equal(t, "http", req.proto)
	assert.Equal(t, http.MethodGet, req.method)
}

func TestExecutor_HTTPSUsesHostnameForSNI(t *testing.T) {
	type seen struct{ sni, host string }
	got := make(chan seen, 1)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{sni: r.TLS.ServerName, host: r.Host}
		w.Header().Set("Location", "https://www.example.com/")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	tc := httpCase("example.com", "/", 302, strPtr("https://www.example.com/"))
	tc.Scheme = "https"

	executor := NewExecutor(serverTarget(srv))
	executor.SetInsecureSkipVerify(true)
	result := executor.RunCase(context.Background(), tc)

	assert.Equal(t, Passed{}, result.Outcome)
	req := <-got
	assert.Equal(t, "example.com", req.sni)
	assert.Equal(t, "example.com", req.host)
}

func TestExecutor_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := serverTarget(srv)
	srv.Close()

	executor := NewExecutor(target)
	executor.SetRemote(true)
	result := executor.RunCase(context.Background(), httpCase("a.example.com", "/old", 301, nil))

	cf, ok := result.Outcome.(ConnectionFailed)
	require.True(t, ok, "expected ConnectionFailed, got %T", result.Outcome)
	assert.True(t, cf.Remote)
	assert.True(t, strings.HasPrefix(cf.Cause, "true "))
}

func TestExecutor_TimeoutIsConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	executor := NewExecutor(serverTarget(srv))
	executor.SetTestTimeout(50 * time.Millisecond)
	result := executor.RunCase(context.Background(), httpCase("a.example.com", "/slow", 200, nil))

	assert.Equal(t, KindConnectionFailed, result.Outcome.Kind())
}

func TestExecutor_RunPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case "/moved":
			w.Header().Set("Location", "/elsewhere")
			w.WriteHeader(http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	skipped := httpCase("c.example.com", "/never", 301, nil)
	skipped.Test = nil
	cases := []TestCase{
		httpCase("a.example.com", "/slow", 200, nil),
		httpCase("a.example.com", "/moved", 301, strPtr("/new")),
		httpCase("b.example.com", "/missing", 404, nil),
		skipped,
		httpCase("b.example.com", "/missing", 301, nil),
	}

	var mu sync.Mutex
	var completed []string

	executor := NewExecutor(serverTarget(srv))
	executor.SetConcurrency(4)
	executor.SetOnCaseCompleted(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		completed = append(completed, r.Case.ID)
	})

	results, err := executor.Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, results, len(cases))

	for i, r := range results {
		assert.Equal(t, cases[i].ID, r.Case.ID)
	}
	assert.Equal(t, KindPassed, results[0].Outcome.Kind())
	assert.Equal(t, KindLocationMismatch, results[1].Outcome.Kind())
	assert.Equal(t, KindPassed, results[2].Outcome.Kind())
	assert.Equal(t, KindSkipped, results[3].Outcome.Kind())
	assert.Equal(t, KindTransportFailed, results[4].Outcome.Kind())
	assert.Len(t, completed, len(cases))
}

func TestExecutor_RunEmpty(t *testing.T) {
	results, err := NewExecutor("").Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExecutor_RunCancelledBeforeStart(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(serverTarget(srv))
	results, err := executor.Run(ctx, []TestCase{httpCase("a.example.com", "/", 200, nil)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), hits.Load())
}

func TestExecutor_RunAbandonsInFlightOnCancel(t *testing.T) {
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-started
		cancel()
	}()

	executor := NewExecutor(serverTarget(srv))
	cases := []TestCase{
		httpCase("a.example.com", "/1", 200, nil),
		httpCase("a.example.com", "/2", 200, nil),
		httpCase("a.example.com", "/3", 200, nil),
	}

	done := make(chan struct{})
	var results []Result
	var err error
	go func() {
		defer close(done)
		results, err = executor.Run(ctx, cases)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

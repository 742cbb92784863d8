package httpclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
	"originx/internal/testutil"
)

func newTestClient(transport http.RoundTripper, maxRetries int) *Client {
	return New(Config{
		Timeout:         5 * time.Second,
		MaxRetries:      maxRetries,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 5 * time.Millisecond,
		Transport:       transport,
	}, logx.NewNop())
}

func TestClient_Get(t *testing.T) {
	t.Run("returns successful response", func(t *testing.T) {
		transport := testutil.NewMockTransport()
		transport.RoundTripFunc = func(req *http.Request) (*http.Response, error) {
			return testutil.NewResponse(http.StatusOK, "payload"), nil
		}

		client := newTestClient(transport, 3)
		resp, err := client.Get(context.Background(), "http://example.test/data", nil)

		testutil.AssertNoError(t, err, "get should succeed")
		testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")
		testutil.AssertEqual(t, transport.CallCount, 1, "no retries on success")

		body, err := ReadBody(resp)
		testutil.AssertNoError(t, err, "read body")
		testutil.AssertEqual(t, string(body), "payload", "body content")
	})

	t.Run("sets user agent", func(t *testing.T) {
		var gotUA string
		transport := testutil.NewMockTransport()
		transport.RoundTripFunc = func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return testutil.NewResponse(http.StatusOK, ""), nil
		}

		client := newTestClient(transport, 0)
		resp, err := client.Get(context.Background(), "http://example.test/", nil)
		testutil.AssertNoError(t, err, "get should succeed")
		resp.Body.Close()

		testutil.AssertEqual(t, gotUA, "originx/1.0", "default user agent")
	})
}

func TestClient_RetriesRetryableStatus(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.RoundTripFunc = func(req *http.Request) (*http.Response, error) {
		if transport.CallCount < 3 {
			return testutil.NewResponse(http.StatusServiceUnavailable, ""), nil
		}
		return testutil.NewResponse(http.StatusOK, "eventually"), nil
	}

	client := newTestClient(transport, 3)
	resp, err := client.Get(context.Background(), "http://example.test/flaky", nil)

	testutil.AssertNoError(t, err, "should succeed after retries")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")
	testutil.AssertEqual(t, transport.CallCount, 3, "two 503s then success")
	resp.Body.Close()
}

func TestClient_ExhaustsRetries(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.RoundTripFunc = func(req *http.Request) (*http.Response, error) {
		return testutil.NewResponse(http.StatusServiceUnavailable, ""), nil
	}

	client := newTestClient(transport, 2)
	_, err := client.Get(context.Background(), "http://example.test/down", nil)

	testutil.AssertError(t, err, "should fail after exhausting retries")
	testutil.AssertEqual(t, transport.CallCount, 3, "initial attempt plus two retries")
}

func TestClient_DoesNotRetryClientError(t *testing.T) {
	transport := testutil.NewMockTransport()
	transport.RoundTripFunc = func(req *http.Request) (*http.Response, error) {
		return testutil.NewResponse(http.StatusNotFound, ""), nil
	}

	client := newTestClient(transport, 3)
	resp, err := client.Get(context.Background(), "http://example.test/missing", nil)

	testutil.AssertNoError(t, err, "non-retryable status is returned, not retried")
	testutil.AssertEqual(t, transport.CallCount, 1, "no retries for 404")
	testutil.AssertTrue(t, errors.IsNotFound(CheckStatus(resp)), "status maps to ErrNotFound")
	resp.Body.Close()
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"ok is nil", http.StatusOK, func(err error) bool { return err == nil }},
		{"created is nil", http.StatusCreated, func(err error) bool { return err == nil }},
		{"429 maps to rate limit", http.StatusTooManyRequests, errors.IsRateLimit},
		{"404 maps to not found", http.StatusNotFound, errors.IsNotFound},
		{"503 maps to unavailable", http.StatusServiceUnavailable, errors.IsServiceUnavailable},
		{"502 maps to unavailable", http.StatusBadGateway, errors.IsServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.NewResponse(tt.status, "")
			err := CheckStatus(resp)
			testutil.AssertTrue(t, tt.check(err), "status mapping")
			resp.Body.Close()
		})
	}

	t.Run("nil response", func(t *testing.T) {
		testutil.AssertError(t, CheckStatus(nil), "nil response is an error")
	})
}

func TestReadBody_NilResponse(t *testing.T) {
	_, err := ReadBody(nil)
	testutil.AssertError(t, err, "nil response is an error")
}

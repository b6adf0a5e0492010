package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go"

	"github.com/m3rciful/lexibot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultClientTimeout     = 60 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 500 * time.Millisecond
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// Long polling holds requests open, so the client timeout must exceed the poll timeout.
func BuildHTTPClient(longPollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := defaultClientTimeout
	if floor := longPollTimeout + 10*time.Second; floor > timeout {
		timeout = floor
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: defaultRetryAttempts,
			backoff:    defaultRetryBackoff,
		},
	}
}

var errBodyNotReplayable = errors.New("telegram: request body cannot be replayed")

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var resp *http.Response
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			currReq := req
			if attempt > 1 {
				currReq = req.Clone(req.Context())
				if req.Body != nil && req.Body != http.NoBody {
					if req.GetBody == nil {
						return retry.Unrecoverable(errBodyNotReplayable)
					}
					body, err := req.GetBody()
					if err != nil {
						return retry.Unrecoverable(err)
					}
					currReq.Body = body
				}
			}
			r, err := base.RoundTrip(currReq)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Context(req.Context()),
		retry.Attempts(uint(t.maxRetries+1)),
		retry.Delay(t.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(netutil.ShouldRetry),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

package spotify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// authTransport attaches the bearer token to every request and, on a 401,
// refreshes once and replays the request once. A second 401 is returned to
// the caller. Error responses always carry Spotify's JSON error envelope
// so the library decodes them into a typed error with the status.
type authTransport struct {
	tokens ports.TokenProvider
	base   http.RoundTripper
	log    logrus.FieldLogger
}

func newAuthTransport(tokens ports.TokenProvider, base http.RoundTripper, log logrus.FieldLogger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{tokens: tokens, base: base, log: log}
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.AccessToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	resp, err := t.base.RoundTrip(withBearer(req, token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return normalizeError(resp), nil
	}

	retry, err := rewind(req)
	if err != nil {
		t.log.WithError(err).Debug("cannot replay request after 401")
		return normalizeError(resp), nil
	}

	if err := t.tokens.Refresh(req.Context()); err != nil {
		t.log.WithError(err).Warn("token refresh after 401 failed")
		return normalizeError(resp), nil
	}

	token, err = t.tokens.AccessToken(req.Context())
	if err != nil {
		return normalizeError(resp), nil
	}

	drain(resp)
	t.log.WithField("path", req.URL.Path).Debug("retrying request with refreshed token")
	resp, err = t.base.RoundTrip(withBearer(retry, token))
	if err != nil {
		return nil, err
	}
	return normalizeError(resp), nil
}

type errorEnvelope struct {
	Error *struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// normalizeError rewrites an error response whose body is empty or not the
// {"error":{"status":N,"message":...}} envelope into that envelope, using
// the body text (or the status text) as the message.
func normalizeError(resp *http.Response) *http.Response {
	if resp.StatusCode < http.StatusBadRequest {
		return resp
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if err == nil {
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil && env.Error.Status != 0 {
			setBody(resp, body)
			return resp
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	rewritten, _ := json.Marshal(map[string]any{
		"error": map[string]any{"status": resp.StatusCode, "message": msg},
	})
	resp.Header.Set("Content-Type", "application/json")
	setBody(resp, rewritten)
	return resp
}

func setBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

func withBearer(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// rewind returns a copy of req with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body for %s cannot be replayed", req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Package publish uploads built .deb artifacts to a Gemfury-style package
// repository over authenticated multipart POSTs.
//
// Unlike the fire-and-forget curl it replaces, every response status is
// inspected: auth failures and duplicates are permanent, server-side and
// transport failures are retried under the configured backoff policy.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
	"git.home.luguber.info/inful/debforge/internal/logfields"
	"git.home.luguber.info/inful/debforge/internal/metrics"
	"git.home.luguber.info/inful/debforge/internal/retry"
)

// Client uploads artifacts to a package repository.
type Client struct {
	endpoint string
	account  string
	token    string
	hc       *http.Client
	policy   retry.Policy
	recorder metrics.Recorder
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

// NewClient builds a publisher for the configured repository.
func NewClient(cfg config.PublishConfig, policy retry.Policy, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		account:  cfg.Account,
		token:    cfg.Token,
		hc:       &http.Client{Timeout: 5 * time.Minute},
		policy:   policy,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadAll publishes every artifact, stopping at the first permanent failure.
func (c *Client) UploadAll(ctx context.Context, artifacts []artifact.Artifact) error {
	for _, a := range artifacts {
		if err := c.Upload(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Upload publishes one artifact, retrying transient failures under the
// client's backoff policy.
func (c *Client) Upload(ctx context.Context, a artifact.Artifact) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		t0 := time.Now()
		err := c.uploadOnce(ctx, a)
		c.recorder.ObserveUploadDuration(time.Since(t0), err == nil)
		c.recorder.IncUploadResult(err == nil)
		return err
	}, func(n int, err error) {
		c.recorder.IncUploadRetry()
		slog.Warn("Retrying upload",
			logfields.Artifact(a.Name),
			logfields.Attempt(n),
			logfields.Error(err))
	})
}

// uploadOnce performs a single multipart POST of the artifact.
func (c *Client) uploadOnce(ctx context.Context, a artifact.Artifact) error {
	f, err := os.Open(a.Path)
	if err != nil {
		return forgeerr.Wrap(err, forgeerr.CategoryArtifact, forgeerr.SeverityFatal, "cannot open artifact for upload")
	}
	defer f.Close()

	// Stream the body instead of buffering: package payloads can be large.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("package", a.Name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	endpoint := fmt.Sprintf("%s/%s/", c.endpoint, url.PathEscape(c.account))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return forgeerr.Wrap(err, forgeerr.CategoryInternal, forgeerr.SeverityFatal, "cannot build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(c.token, "")

	slog.Info("Uploading artifact", logfields.Artifact(a.Name), slog.String("endpoint", endpoint))

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return forgeerr.PublishTransient(a.Name, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	if err := classifyStatus(a.Name, resp.StatusCode); err != nil {
		return err
	}

	slog.Info("Artifact published", logfields.Artifact(a.Name), logfields.Status(resp.Status))
	return nil
}

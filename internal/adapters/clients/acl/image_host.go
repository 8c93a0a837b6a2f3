package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

const (
	rehostPath = "/images"
	healthPath = "/healthz"
)

var (
	_ ports.ImageHost     = (*ImageHostClient)(nil)
	_ ports.HealthChecker = (*ImageHostClient)(nil)
)

// rehostRequest and rehostResponse are the image host's wire types.
type rehostRequest struct {
	URL string `json:"url"`
}

type rehostResponse struct {
	URL string `json:"url"`
}

// ImageHostClient re-hosts image quotes on the configured image service.
type ImageHostClient struct {
	client *clients.Client
	logger *slog.Logger
}

// NewImageHostClient wraps client. It panics if client is nil.
func NewImageHostClient(client *clients.Client, logger *slog.Logger) *ImageHostClient {
	if client == nil {
		panic("acl.NewImageHostClient: client is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ImageHostClient{
		client: client,
		logger: logger.With(slog.String("component", "acl.ImageHostClient")),
	}
}

// Rehost POSTs sourceURL to the image host and returns the URL it now
// serves the image from.
func (h *ImageHostClient) Rehost(ctx context.Context, sourceURL string) (string, error) {
	const op = "rehost image"

	logger := logging.FromContextOr(ctx, h.logger)
	logger.Log(ctx, logging.LevelTrace, "rehosting image", slog.String("source", sourceURL))

	resp, err := h.client.PostJSON(ctx, rehostPath, rehostRequest{URL: sourceURL})
	if err != nil {
		return "", MapHTTPError(nil, err, h.Name(), op)
	}
	defer func() { _ = resp.Body.Close() }()

	if mapped := MapHTTPError(resp, nil, h.Name(), op); mapped != nil {
		return "", mapped
	}

	body, err := decode[rehostResponse](resp.Body)
	if err != nil {
		return "", domain.NewUnavailableError(h.Name(), err.Error())
	}

	if !isAbsoluteHTTPURL(body.URL) {
		return "", domain.NewUnavailableError(h.Name(), fmt.Sprintf("invalid image url %q", body.URL))
	}

	logger.DebugContext(ctx, "image rehosted",
		slog.String("source", sourceURL),
		slog.String("url", body.URL),
	)

	return body.URL, nil
}

// Name identifies the image host in health checks.
func (h *ImageHostClient) Name() string {
	return h.client.ServiceName()
}

// Check pings the image host's health endpoint.
func (h *ImageHostClient) Check(ctx context.Context) error {
	resp, err := h.client.Get(ctx, healthPath)
	if err != nil {
		return MapHTTPError(nil, err, h.Name(), "health check")
	}
	defer func() { _ = resp.Body.Close() }()

	return MapHTTPError(resp, nil, h.Name(), "health check")
}

func decode[T any](body io.Reader) (*T, error) {
	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &v, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

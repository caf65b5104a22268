package viewsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"geomap/internal/metrics"
)

const (
	layersPath = "/layers"
	// maxErrorBody bounds how much of a failed response ends up in a StatusError.
	maxErrorBody = 512
)

// Client fetches feature collections from the data service's /layers endpoint.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	tracer  trace.Tracer
}

// NewClient creates a data service client. A zero timeout means no client-side
// limit beyond the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("geomap/viewsync"),
	}
}

// URL returns the request URL for bbox.
func (c *Client) URL(bbox BoundingBox) string {
	return c.baseURL + layersPath + "?" + bbox.Query()
}

// Fetch requests the features inside bbox. It never retries.
func (c *Client) Fetch(ctx context.Context, bbox BoundingBox) (*geojson.FeatureCollection, error) {
	ctx, span := c.tracer.Start(ctx, "viewsync.fetch", trace.WithAttributes(
		attribute.Float64("bbox.sw_lat", bbox.SWLat),
		attribute.Float64("bbox.sw_lon", bbox.SWLon),
		attribute.Float64("bbox.ne_lat", bbox.NELat),
		attribute.Float64("bbox.ne_lon", bbox.NELon),
	))
	defer span.End()

	start := time.Now()
	fc, err := c.fetch(ctx, bbox)
	if err != nil {
		kind := ErrorKind(err)
		metrics.FetchErrors.WithLabelValues(kind).Inc()
		metrics.FetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return nil, err
	}
	metrics.FetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("features", len(fc.Features)))
	return fc, nil
}

func (c *Client) fetch(ctx context.Context, bbox BoundingBox) (*geojson.FeatureCollection, error) {
	url := c.URL(bbox)
	requestID := uuid.NewString()
	log := slog.With("request_id", requestID, "bbox", bbox.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	log.Debug("calling data service", "url", url)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("failed to close layers response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	metrics.ResponseSize.Observe(float64(len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	log.Debug("data service responded", "features", len(fc.Features), "bytes", len(body))
	return fc, nil
}

// Package sidecar is the HTTP client for the extractor sidecar, the
// out-of-process collaborator that owns PDF decoding, native text-layer
// access, rasterization, table detection, and vision-based shape
// detection. Collate never links those engines directly; it consumes
// their output contracts over HTTP and treats any failure as an empty
// contribution.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

// Wire types mirror the sidecar's JSON responses. Coordinates are
// absolute (points for PDFs, pixels for images); normalization to unit
// coordinates happens in the source adapters.

// WireWord is one text span with its absolute corner coordinates.
type WireWord struct {
	Text       string  `json:"text"`
	X0         float64 `json:"x0"`
	Y0         float64 `json:"y0"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	Confidence float64 `json:"confidence"`
}

// WirePoint is one absolute coordinate pair.
type WirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WireShape is a line or rectangle in absolute coordinates.
type WireShape struct {
	Type   string      `json:"type"` // "line" or "rectangle"
	X0     float64     `json:"x0"`
	Y0     float64     `json:"y0"`
	X1     float64     `json:"x1"`
	Y1     float64     `json:"y1"`
	Points []WirePoint `json:"points,omitempty"`
}

// WirePage is one page of native extraction output.
type WirePage struct {
	PageNumber int         `json:"page_number"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Words      []WireWord  `json:"words"`
	Shapes     []WireShape `json:"shapes"`
}

// NativeResult is the response from POST /native.
type NativeResult struct {
	Pages []WirePage `json:"pages"`
}

// WireCell is one table cell detection.
type WireCell struct {
	Text       string  `json:"text"`
	Row        int     `json:"row"`
	Col        int     `json:"col"`
	Confidence float64 `json:"confidence"`
}

// WireTable is one table detection in absolute page coordinates.
type WireTable struct {
	PageNumber int        `json:"page_number"`
	TableID    string     `json:"table_id"`
	X0         float64    `json:"x0"`
	Y0         float64    `json:"y0"`
	X1         float64    `json:"x1"`
	Y1         float64    `json:"y1"`
	PageWidth  float64    `json:"page_width"`
	PageHeight float64    `json:"page_height"`
	Cells      []WireCell `json:"cells"`
	Rows       int        `json:"rows"`
	Cols       int        `json:"cols"`
}

// TablesResult is the response from POST /tables.
type TablesResult struct {
	Tables []WireTable `json:"tables"`
}

// ShapesResult is the response from POST /shapes.
type ShapesResult struct {
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Shapes []WireShape `json:"shapes"`
}

// Client talks to one extractor sidecar instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a sidecar client. Request deadlines come from the
// caller's context, so the transport itself carries no timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// URL returns the sidecar base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// HealthCheck verifies the sidecar is responding.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar health check returned %d", resp.StatusCode)
	}
	return nil
}

// WaitReady polls the health endpoint until the sidecar responds or the
// timeout elapses. Used once at server start; per-request calls never
// retry.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	return retry.Do(
		func() error { return c.HealthCheck(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(timeout.Seconds())),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// Native extracts the PDF's text layer and vector graphics with absolute
// coordinates.
func (c *Client) Native(ctx context.Context, pdf []byte) (*NativeResult, error) {
	var result NativeResult
	if err := c.post(ctx, "/native", "application/pdf", pdf, &result); err != nil {
		return nil, fmt.Errorf("native extraction: %w", err)
	}
	return &result, nil
}

// Render rasterizes one PDF page (1-based) to PNG at the given scale.
func (c *Client) Render(ctx context.Context, pdf []byte, page int, scale float64) ([]byte, error) {
	path := "/render/" + strconv.Itoa(page) + "?scale=" + strconv.FormatFloat(scale, 'f', -1, 64)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("render page %d: status %d: %s", page, resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// Tables runs table detection over the PDF.
func (c *Client) Tables(ctx context.Context, pdf []byte) (*TablesResult, error) {
	var result TablesResult
	if err := c.post(ctx, "/tables", "application/pdf", pdf, &result); err != nil {
		return nil, fmt.Errorf("table detection: %w", err)
	}
	return &result, nil
}

// Shapes runs line/rectangle detection over a raster image.
func (c *Client) Shapes(ctx context.Context, image []byte) (*ShapesResult, error) {
	var result ShapesResult
	if err := c.post(ctx, "/shapes", "application/octet-stream", image, &result); err != nil {
		return nil, fmt.Errorf("shape detection: %w", err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

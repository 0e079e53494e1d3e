// Package detector calls the external barcode detection engine.
//
// Photos are decoded from any supported raster format, normalized to PNG,
// and sent as a data URI. The engine returns decoded payloads with quads in
// normalized detection space.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/internal/markings"
	"github.com/JaimeStill/rackscan/internal/pipeline"
)

type detectRequest struct {
	Image       string   `json:"image"`
	Symbologies []string `json:"symbologies,omitempty"`
}

type detectResponse struct {
	Detections []markings.Detection `json:"detections"`
}

// Client implements pipeline.Detector over HTTP.
type Client struct {
	endpoint    string
	token       string
	symbologies []string
	client      *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New creates a detection engine client. A zero MinInterval disables
// throttling.
func New(cfg *config.DetectorConfig, logger *slog.Logger) *Client {
	limit := rate.Inf
	if d := cfg.MinIntervalDuration(); d > 0 {
		limit = rate.Every(d)
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		token:       cfg.Token,
		symbologies: cfg.Symbologies,
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.With("system", "detector"),
	}
}

// Detect sends img to the detection engine and returns its markings.
func (c *Client) Detect(ctx context.Context, img pipeline.Image) ([]markings.Detection, error) {
	dataURI, err := EncodeImage(img.Data)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(detectRequest{
		Image:       dataURI,
		Symbologies: c.symbologies,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrEngine, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrEngine, err)
	}

	c.logger.DebugContext(ctx, "detection complete", "detections", len(result.Detections))

	return result.Detections, nil
}

// EncodeImage decodes a raster photo and returns it as a PNG data URI.
func EncodeImage(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	pngData := data
	if format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		pngData = buf.Bytes()
	}

	dataURI, err := encoding.EncodeImageDataURI(pngData, document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return dataURI, nil
}

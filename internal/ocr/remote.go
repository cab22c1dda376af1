/**
 * Remote OCR engine
 *
 * Client for a PaddleOCR-style HTTP recognition service. Images are posted
 * base64-encoded; the service returns per-fragment text, confidence, and
 * quadrilateral regions.
 */

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/king-song823/orcPig/internal/logging"
)

// RemoteEngine calls an external OCR recognition service over HTTP
type RemoteEngine struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// remoteOCRRequest is the request body of the recognition endpoint
type remoteOCRRequest struct {
	Images []string `json:"images"` // base64 encoded
}

// remoteOCRResponse is the recognition endpoint's response envelope
type remoteOCRResponse struct {
	Status  string             `json:"status"`
	Msg     string             `json:"msg"`
	Results [][]remoteFragment `json:"results"`
}

// remoteFragment is one recognized text region
type remoteFragment struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	TextRegion [][2]float64 `json:"text_region"`
}

// NewRemoteEngine creates a client for the recognition service
func NewRemoteEngine(endpoint string, timeout time.Duration) *RemoteEngine {
	return &RemoteEngine{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.NewLogger("RemoteOCR"),
	}
}

// Name identifies the engine
func (r *RemoteEngine) Name() string {
	return "remote"
}

// Recognize posts the image to the recognition service and converts the
// returned fragments into page records
func (r *RemoteEngine) Recognize(ctx context.Context, image []byte) (*Page, error) {
	reqBody, err := json.Marshal(&remoteOCRRequest{
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", fmt.Sprintf("ocr-%d", time.Now().UnixNano()))

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to OCR service failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp remoteOCRResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if ocrResp.Status != "" && ocrResp.Status != "000" {
		return nil, fmt.Errorf("OCR service failed: %s", ocrResp.Msg)
	}

	page := &Page{Engine: r.Name()}
	if len(ocrResp.Results) == 0 {
		return page, nil
	}

	for _, frag := range ocrResp.Results[0] {
		if frag.Text == "" {
			continue
		}
		var box [4][2]float64
		for i := 0; i < len(frag.TextRegion) && i < 4; i++ {
			box[i] = frag.TextRegion[i]
		}
		page.Records = append(page.Records, NewTextRecord(frag.Text, frag.Confidence, box))
	}

	r.logger.Debug("Remote recognition complete", "fragments", len(page.Records))

	return page, nil
}

// HealthCheck verifies the recognition service is reachable
func (r *RemoteEngine) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	return nil
}

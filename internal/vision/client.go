// Package vision covers the image side of the frame pipeline: frame
// decode/encode, talking to the face detection service, bounding box
// geometry and frame annotation.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const defaultDetectorURL = "http://localhost:8000"

// Detection is a single detected face: its bounding box in the
// coordinates of the submitted image and its embedding vector.
type Detection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// detectResponse is the detector service's reply.
type detectResponse struct {
	FacesCount int         `json:"faces_count"`
	Faces      []Detection `json:"faces"`
	Model      string      `json:"model"`
}

// Detector is an HTTP client for the face detection/embedding service.
// The service consumes an encoded image and returns zero or more faces,
// each with a bounding box and an embedding.
type Detector struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewDetector creates a detector client.
func NewDetector(baseURL, model string) *Detector {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Detector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

// DetectFaces submits an encoded image and returns the detected faces.
// Zero faces is a normal result, not an error.
func (d *Detector) DetectFaces(ctx context.Context, imageData []byte) ([]Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect/faces", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var dr detectResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return dr.Faces, nil
}

// Model returns the configured model name.
func (d *Detector) Model() string {
	return d.model
}

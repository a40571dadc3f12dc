package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrClassifierUnavailable is returned when no inference endpoint is
// configured. The handler maps it to 503.
var ErrClassifierUnavailable = errors.New("disease model not configured")

// Classification is the opaque result of the pretrained vision
// model: a label, its confidence and the full class distribution.
type Classification struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Classifier delegates crop disease detection to a remote inference
// service. The model itself (architecture, weights, preprocessing)
// is entirely that service's concern.
type Classifier struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClassifier(baseURL string) *Classifier {
	return &Classifier{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Predict uploads the image bytes as multipart form data and decodes
// the classification. cropType selects the model on the inference
// side (rice, wheat, ...).
func (c *Classifier) Predict(ctx context.Context, image []byte, filename, cropType string) (Classification, error) {
	if c.BaseURL == "" {
		return Classification{}, ErrClassifierUnavailable
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Classification{}, err
	}
	if _, err := fw.Write(image); err != nil {
		return Classification{}, err
	}
	if cropType != "" {
		if err := mw.WriteField("crop_type", cropType); err != nil {
			return Classification{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return Classification{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", &body)
	if err != nil {
		return Classification{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("call disease model: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Classification{}, fmt.Errorf("disease model status %d: %s", res.StatusCode, b)
	}

	var out Classification
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	return out, nil
}

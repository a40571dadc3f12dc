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

// ErrTranscriberUnavailable is returned when no speech-recognition
// endpoint is configured. The handler maps it to 503.
var ErrTranscriberUnavailable = errors.New("speech recognition not configured")

// Transcriber delegates speech-to-text to a remote recognition
// service, the same way Classifier delegates image inference.
type Transcriber struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTranscriber(baseURL string) *Transcriber {
	return &Transcriber{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Transcribe uploads the audio as multipart form data and returns the
// recognized text. language hints the recognizer's acoustic model.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if t.BaseURL == "" {
		return "", ErrTranscriberUnavailable
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/transcribe", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := t.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("call speech recognition: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("speech recognition status %d: %s", res.StatusCode, b)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	if out.Text == "" {
		return "", errors.New("speech recognition returned no text")
	}
	return out.Text, nil
}

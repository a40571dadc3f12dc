package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ttsChunkRunes is the per-request input cap of the translate TTS
// endpoint. Longer texts are split on this boundary and the MP3
// segments concatenated; MPEG frames are self-contained so the
// result plays back as one file.
const ttsChunkRunes = 180

// TTSClient synthesizes speech via the Google Translate TTS endpoint
// and writes MP3 files into Dir. Files are named with a random UUID
// and served by the static file route.
type TTSClient struct {
	BaseURL string
	Dir     string
	HTTP    *http.Client
}

func NewTTSClient(dir string) *TTSClient {
	return &TTSClient{
		BaseURL: "https://translate.google.com/translate_tts",
		Dir:     dir,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Synthesize produces an MP3 file for the text in the given language
// and returns the file name (relative to Dir).
func (t *TTSClient) Synthesize(ctx context.Context, text, lang string) (string, error) {
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	name := uuid.New().String() + ".mp3"
	f, err := os.Create(filepath.Join(t.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, chunk := range splitRunes(text, ttsChunkRunes) {
		if err := t.fetchChunk(ctx, chunk, lang, f); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (t *TTSClient) fetchChunk(ctx context.Context, text, lang string, dst io.Writer) error {
	u := fmt.Sprintf("%s?ie=UTF-8&client=tw-ob&tl=%s&q=%s",
		t.BaseURL, url.QueryEscape(lang), url.QueryEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := t.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("call tts: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("tts status %d", res.StatusCode)
	}
	_, err = io.Copy(dst, res.Body)
	return err
}

func splitRunes(s string, n int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		end := n
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[:end]))
		runes = runes[end:]
	}
	return out
}

package service

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// translationTTL bounds how long cached translations live. The
// MyMemory API is free but heavily rate limited, so hits are cached
// aggressively.
const translationTTL = 30 * 24 * time.Hour

// Translator calls the MyMemory translation API with a Redis cache
// in front. A nil Redis client disables caching; translation still
// works.
type Translator struct {
	BaseURL string
	HTTP    *http.Client
	Redis   *redis.Client
}

func NewTranslator(rdb *redis.Client) *Translator {
	return &Translator{
		BaseURL: "https://api.mymemory.translated.net",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Redis:   rdb,
	}
}

// Translate converts text between two language codes. Identical
// source and target, or empty text, short-circuit to the input.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if text == "" || source == target {
		return text, nil
	}

	key := cacheKey(source, target, text)
	if t.Redis != nil {
		if cached, err := t.Redis.Get(ctx, key).Result(); err == nil {
			return cached, nil
		}
	}

	u := fmt.Sprintf("%s/get?q=%s&langpair=%s",
		t.BaseURL, url.QueryEscape(text), url.QueryEscape(source+"|"+target))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	res, err := t.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("call translation api: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation api status %d", res.StatusCode)
	}

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}

	translated := out.ResponseData.TranslatedText
	if translated == "" {
		translated = text
	}
	if t.Redis != nil {
		_ = t.Redis.SetEx(ctx, key, translated, translationTTL).Err()
	}
	return translated, nil
}

func cacheKey(source, target, text string) string {
	sum := sha1.Sum([]byte(source + ":" + target + ":" + text))
	return fmt.Sprintf("translate:%s:%s:%x", source, target, sum[:])
}

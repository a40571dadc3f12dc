package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/get", r.URL.Path)
		require.Equal(t, "en|kn", r.URL.Query().Get("langpair"))
		require.Equal(t, "hello", r.URL.Query().Get("q"))
		w.Write([]byte(`{"responseData": {"translatedText": "ನಮಸ್ಕಾರ"}}`))
	}))
	defer srv.Close()

	tr := &Translator{BaseURL: srv.URL, HTTP: srv.Client()}
	out, err := tr.Translate(context.Background(), "hello", "en", "kn")
	require.NoError(t, err)
	assert.Equal(t, "ನಮಸ್ಕಾರ", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTranslateShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("api should not be called")
	}))
	defer srv.Close()

	tr := &Translator{BaseURL: srv.URL, HTTP: srv.Client()}

	out, err := tr.Translate(context.Background(), "", "en", "kn")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = tr.Translate(context.Background(), "same language", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "same language", out)
}

func TestTranslateEmptyResultFallsBackToInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData": {"translatedText": ""}}`))
	}))
	defer srv.Close()

	tr := &Translator{BaseURL: srv.URL, HTTP: srv.Client()}
	out, err := tr.Translate(context.Background(), "untranslatable", "en", "hi")
	require.NoError(t, err)
	assert.Equal(t, "untranslatable", out)
}

func TestTranslateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := &Translator{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := tr.Translate(context.Background(), "hello", "en", "hi")
	assert.Error(t, err)
}

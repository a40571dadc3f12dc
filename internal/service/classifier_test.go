package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "rice", r.FormValue("crop_type"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "leaf.jpg", hdr.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"label": "rice_blast",
			"confidence": 0.93,
			"probabilities": {"rice_blast": 0.93, "healthy": 0.07}
		}`))
	}))
	defer srv.Close()

	cl := &Classifier{BaseURL: srv.URL, HTTP: srv.Client()}
	got, err := cl.Predict(context.Background(), []byte("fake-image"), "leaf.jpg", "rice")
	require.NoError(t, err)

	assert.Equal(t, "rice_blast", got.Label)
	assert.InDelta(t, 0.93, got.Confidence, 0.001)
	assert.Len(t, got.Probabilities, 2)
}

func TestClassifierUnconfigured(t *testing.T) {
	cl := &Classifier{}
	_, err := cl.Predict(context.Background(), []byte("img"), "leaf.jpg", "rice")
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestClassifierUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cl := &Classifier{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := cl.Predict(context.Background(), []byte("img"), "leaf.jpg", "rice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/queue"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
	"github.com/krishibandhu/krishibandhu-backend/internal/service"
)

// supportedLanguages are the language codes the assistant accepts.
var supportedLanguages = map[string]bool{
	"en": true, "hi": true, "kn": true, "te": true, "ta": true, "mr": true,
	"gu": true, "bn": true, "pa": true, "ml": true, "or": true, "ur": true,
}

const maxAudioBytes = 15 << 20

// AssistantHandler chains translation, the LLM and text-to-speech:
// user text is translated to English, answered by the model, the
// answer translated back and optionally spoken. Voice input runs the
// same chain with a speech-recognition step in front.
type AssistantHandler struct {
	Translator  *service.Translator
	LLM         *service.LLMClient
	TTS         *service.TTSClient
	Transcriber *service.Transcriber
	Weather     *service.WeatherClient
	Queries     *repository.AssistantRepo
}

func NewAssistantHandler(tr *service.Translator, llm *service.LLMClient, tts *service.TTSClient, stt *service.Transcriber, w *service.WeatherClient, q *repository.AssistantRepo) *AssistantHandler {
	return &AssistantHandler{Translator: tr, LLM: llm, TTS: tts, Transcriber: stt, Weather: w, Queries: q}
}

type askReq struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	City     string `json:"city"`
	Voice    bool   `json:"voice"`
}

// Ask handles POST /assistant/ask.
func (h *AssistantHandler) Ask(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req askReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}
	lang := req.Language
	if lang == "" {
		lang = firstNonEmpty(u.Language, "en")
	}
	if !supportedLanguages[lang] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported language"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	// Step 1: bring the question into English for the model.
	english, err := h.Translator.Translate(ctx, req.Text, lang, "en")
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "translation failed"})
	}

	// Step 2: optional weather context from the user's location.
	weatherCtx := h.weatherContext(ctx, firstNonEmpty(req.City, u.Location, u.District))

	// Step 3: ask the model.
	answer, err := h.LLM.Ask(ctx, english, weatherCtx)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "assistant unavailable"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "assistant failed"})
	}

	// Step 4: translate the answer back to the user's language.
	localized, err := h.Translator.Translate(ctx, answer, "en", lang)
	if err != nil {
		localized = answer // fall back to the English answer
	}

	// Step 5: optional speech synthesis. A TTS failure downgrades
	// the reply to text-only.
	queryType := "text"
	audioURL := ""
	if req.Voice {
		if url, ok := h.synthesize(ctx, localized, lang); ok {
			queryType = "voice"
			audioURL = url
		}
	}

	q := model.AssistantQuery{
		UserID:    u.ID,
		QueryType: queryType,
		UserInput: req.Text,
		Response:  localized,
		Language:  lang,
		AudioURL:  audioURL,
	}
	if _, err := h.Queries.Create(ctx, &q); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save query failed"})
	}

	_ = queue.PublishActivityRecorded(ctx, queue.ActivityRecordedEvent{
		UserID:     u.ID,
		Kind:       "assistant",
		Title:      queryType,
		Details:    req.Text,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"response":  localized,
		"language":  lang,
		"audio_url": audioURL,
	})
}

// Voice handles POST /assistant/voice: multipart audio in, spoken
// answer out. Speech recognition runs first; from the transcript on
// the flow is the same as Ask, except the reply is always
// synthesized. An unknown language falls back to English instead of
// rejecting, since the audio was already uploaded.
func (h *AssistantHandler) Voice(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "audio file required"})
	}
	if fh.Size > maxAudioBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "audio too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read audio failed"})
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read audio failed"})
	}

	lang := strings.ToLower(strings.TrimSpace(c.FormValue("language")))
	if lang == "" {
		lang = firstNonEmpty(u.Language, "en")
	}
	if !supportedLanguages[lang] {
		lang = "en"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 120*time.Second)
	defer cancel()

	transcript, err := h.Transcriber.Transcribe(ctx, audio, fh.Filename, lang)
	if err != nil {
		if errors.Is(err, service.ErrTranscriberUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "voice input unavailable"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "speech recognition failed"})
	}

	english, err := h.Translator.Translate(ctx, transcript, lang, "en")
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "translation failed"})
	}

	weatherCtx := h.weatherContext(ctx, firstNonEmpty(u.Location, u.District))

	answer, err := h.LLM.Ask(ctx, english, weatherCtx)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "assistant unavailable"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "assistant failed"})
	}

	localized, err := h.Translator.Translate(ctx, answer, "en", lang)
	if err != nil {
		localized = answer
	}

	// Voice replies always get audio; TTS failure downgrades to text.
	audioURL, _ := h.synthesize(ctx, localized, lang)

	q := model.AssistantQuery{
		UserID:    u.ID,
		QueryType: "voice",
		UserInput: transcript,
		Response:  localized,
		Language:  lang,
		AudioURL:  audioURL,
	}
	if _, err := h.Queries.Create(ctx, &q); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save query failed"})
	}

	_ = queue.PublishActivityRecorded(ctx, queue.ActivityRecordedEvent{
		UserID:     u.ID,
		Kind:       "assistant",
		Title:      "voice",
		Details:    transcript,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"input":     transcript,
		"response":  localized,
		"language":  lang,
		"audio_url": audioURL,
	})
}

// weatherContext renders current weather for the city as a context
// line for the model. Empty city or a weather failure yield "".
func (h *AssistantHandler) weatherContext(ctx context.Context, city string) string {
	if city == "" {
		return ""
	}
	wx, err := h.Weather.ByCity(ctx, city)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current weather in %s: %.1f C, humidity %.0f%%, %s, rain %.1f mm.",
		wx.City, wx.TempC, wx.Humidity, wx.Description, wx.RainMM)
}

// synthesize runs TTS and returns the public audio URL. The second
// return is false when synthesis failed.
func (h *AssistantHandler) synthesize(ctx context.Context, text, lang string) (string, bool) {
	name, err := h.TTS.Synthesize(ctx, text, lang)
	if err != nil {
		return "", false
	}
	return "/static/audio/" + name, true
}

// History returns the user's recent assistant exchanges.
func (h *AssistantHandler) History(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	queries, err := h.Queries.ListByUser(ctx, u.ID, 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"queries": queries})
}

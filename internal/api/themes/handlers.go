// internal/api/themes/handlers.go
package themes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lucentchat/lucent/internal/api/apiutil"
	"github.com/lucentchat/lucent/internal/models"
	"github.com/lucentchat/lucent/internal/ratelimit"
	"github.com/lucentchat/lucent/internal/theme"
)

const (
	// UserIDHeader carries the caller's identity. Requests without it run
	// against the unauthenticated local-fallback engine.
	UserIDHeader = "X-User-ID"

	maxImportSize = 1 << 20
)

type Handlers struct {
	registry   *Registry
	limiter    *ratelimit.Limiter
	trustProxy bool
}

// themeRequest is the write body shape. It tolerates the isReady field so a
// GET response body can be echoed straight back to PUT; the flag itself is
// server-owned and ignored on writes.
type themeRequest struct {
	models.ThemeSettings
	IsReady *bool `json:"isReady,omitempty"`
}

func NewHandlers(registry *Registry, limiter *ratelimit.Limiter, trustProxy bool) *Handlers {
	return &Handlers{
		registry:   registry,
		limiter:    limiter,
		trustProxy: trustProxy,
	}
}

// /api/v1/theme (GET)
func (h *Handlers) HandleThemeGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.engineFor(r)
	state := engine.Store.GetState()
	if err := apiutil.WriteJSON(w, http.StatusOK, state); err != nil {
		logger.Error().Err(err).Msg("Failed to write theme state response")
	}
}

// /api/v1/theme (PUT)
func (h *Handlers) HandleThemeSave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	userID := userIDFromRequest(r)
	if !h.allowSave(w, r, userID) {
		return
	}

	var req themeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := h.engineFor(r)
	if !h.saveAndCommit(w, r, engine, req.ThemeSettings) {
		return
	}

	if h.limiter != nil {
		h.limiter.RecordSave(userID, ratelimit.GetClientIP(r, h.trustProxy))
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, engine.Store.GetState()); err != nil {
		logger.Error().Err(err).Msg("Failed to write theme save response")
	}
}

// /api/v1/theme/export (GET)
func (h *Handlers) HandleThemeExport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.engineFor(r)
	raw, err := engine.Store.Committed().Serialize()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to serialize theme settings for export")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to export theme settings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="theme-settings.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, raw); err != nil {
		logger.Error().Err(err).Msg("Failed to write theme export response")
	}
}

// /api/v1/theme/import (POST)
func (h *Handlers) HandleThemeImport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	userID := userIDFromRequest(r)
	if !h.allowSave(w, r, userID) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "Failed to read import body")
		return
	}

	imported, err := models.ImportThemeSettings(body)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := h.engineFor(r)
	if !h.saveAndCommit(w, r, engine, imported) {
		return
	}

	if h.limiter != nil {
		h.limiter.RecordSave(userID, ratelimit.GetClientIP(r, h.trustProxy))
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, imported); err != nil {
		logger.Error().Err(err).Msg("Failed to write theme import response")
	}
}

// /api/v1/theme/share (GET)
func (h *Handlers) HandleShareGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.engineFor(r)
	payload := models.NewSharePayload(engine.Store.Committed())
	param, err := models.EncodeShareParam(payload)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode share parameter")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to build share link")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{models.ShareParam: param}); err != nil {
		logger.Error().Err(err).Msg("Failed to write share response")
	}
}

// /api/v1/theme/share (POST)
func (h *Handlers) HandleShareApply(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	userID := userIDFromRequest(r)
	if !h.allowSave(w, r, userID) {
		return
	}

	param, err := shareParamFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := models.DecodeShareParam(param)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := h.engineFor(r)
	applied := payload.Apply(engine.Store.Committed())
	if !h.saveAndCommit(w, r, engine, applied) {
		return
	}

	if h.limiter != nil {
		h.limiter.RecordSave(userID, ratelimit.GetClientIP(r, h.trustProxy))
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, applied); err != nil {
		logger.Error().Err(err).Msg("Failed to write share apply response")
	}
}

// /theme.css (GET)
func (h *Handlers) HandleThemeCSS(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.engineFor(r)
	state := engine.Store.GetState()

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := theme.CSSComponent(state).Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render theme stylesheet")
	}
}

// /api/v1/admin/theme (GET). Wrapped by the admin auth middleware.
func (h *Handlers) HandleAdminThemeGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	engine := h.registry.EngineFor(r.Context(), "")
	defaults := engine.Resolver.Defaults(r.Context())
	if err := apiutil.WriteJSON(w, http.StatusOK, defaults); err != nil {
		logger.Error().Err(err).Msg("Failed to write admin default response")
	}
}

// /api/v1/admin/theme (PUT). Wrapped by the admin auth middleware.
func (h *Handlers) HandleAdminThemeSet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req themeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	engine := h.registry.EngineFor(r.Context(), "")
	if err := engine.Resolver.SetAsAdminDefault(r.Context(), req.ThemeSettings); err != nil {
		writeSaveError(w, logger, err, "Failed to save admin default")
		return
	}

	// Users without their own record inherit the new default.
	h.registry.Reconcile(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) engineFor(r *http.Request) *Engine {
	return h.registry.EngineFor(r.Context(), userIDFromRequest(r))
}

// saveAndCommit persists the full record and promotes it to the live
// committed state. Nothing is applied when the save fails.
func (h *Handlers) saveAndCommit(w http.ResponseWriter, r *http.Request, engine *Engine, settings models.ThemeSettings) bool {
	logger := log.Ctx(r.Context())

	if err := engine.Resolver.Save(r.Context(), settings, theme.TargetUser); err != nil {
		writeSaveError(w, logger, err, "Failed to save theme settings")
		return false
	}
	engine.Store.SetCommitted(settings)
	return true
}

func (h *Handlers) allowSave(w http.ResponseWriter, r *http.Request, userID string) bool {
	if h.limiter == nil {
		return true
	}

	ip := ratelimit.GetClientIP(r, h.trustProxy)
	result := h.limiter.CheckSave(userID, ip)
	if !result.Allowed {
		ratelimit.LogRateLimitExceeded("theme_save", userID, ip, result.Reason)
		w.Header().Set("Retry-After", result.RetryAfter.Round(time.Second).String())
		apiutil.WriteJSONError(w, http.StatusTooManyRequests, "Too many save requests")
		return false
	}
	return true
}

func writeSaveError(w http.ResponseWriter, logger *zerolog.Logger, err error, message string) {
	switch {
	case errors.Is(err, theme.ErrValidation):
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, theme.ErrPersistence):
		logger.Error().Err(err).Msg(message)
		apiutil.WriteJSONError(w, http.StatusBadGateway, message)
	default:
		logger.Error().Err(err).Msg(message)
		apiutil.WriteJSONError(w, http.StatusInternalServerError, message)
	}
}

func userIDFromRequest(r *http.Request) string {
	return r.Header.Get(UserIDHeader)
}

func shareParamFromRequest(r *http.Request) (string, error) {
	if param := r.URL.Query().Get(models.ShareParam); param != "" {
		return param, nil
	}
	if !apiutil.IsJSONRequest(r) {
		return "", fmt.Errorf("share parameter is required")
	}

	var body struct {
		Theme string `json:"theme"`
	}
	if err := apiutil.DecodeJSON(r, &body); err != nil {
		return "", fmt.Errorf("share parameter is required")
	}
	if body.Theme == "" {
		return "", fmt.Errorf("share parameter is required")
	}
	return body.Theme, nil
}

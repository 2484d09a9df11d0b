package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aitelhq/supportbot/internal/knowledge"
	"github.com/aitelhq/supportbot/internal/runtime"
)

// OpsHandler exposes operational endpoints: corpus health and manual reload.
type OpsHandler struct {
	Engine *knowledge.Engine
	// Path of the corpus file reloads read from.
	Path   string
	Secret []byte
}

func (h *OpsHandler) Register(e *echo.Echo) {
	e.GET("/health", h.health)

	ops := e.Group("/ops")
	ops.Use(runtime.EchoAuthMiddleware(h.Secret))
	ops.POST("/reload-kb", h.reload)
}

// Health
//
//	@Summary	Corpus health
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *OpsHandler) health(c echo.Context) error {
	count := h.Engine.Count()
	return c.JSON(http.StatusOK, HealthResponse{
		OK:          true,
		CorpusCount: count,
		Degraded:    count == 0,
	})
}

// Reload
//
//	@Summary		Reload the knowledge corpus
//	@Description	Re-reads the corpus file and swaps in the new snapshot atomically
//	@Tags			ops
//	@Security		BearerAuth
//	@Security		CookieAuth
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Failure		500	{object}	ReloadResponse
//	@Router			/ops/reload-kb [post]
func (h *OpsHandler) reload(c echo.Context) error {
	if err := h.Engine.ReloadFromFile(h.Path); err != nil {
		corpusReloads.WithLabelValues("error").Inc()
		corpusEntries.Set(float64(h.Engine.Count()))
		return c.JSON(http.StatusInternalServerError, ReloadResponse{
			Success:     false,
			CorpusCount: h.Engine.Count(),
			Message:     err.Error(),
		})
	}
	corpusReloads.WithLabelValues("ok").Inc()
	corpusEntries.Set(float64(h.Engine.Count()))
	return c.JSON(http.StatusOK, ReloadResponse{
		Success:     true,
		CorpusCount: h.Engine.Count(),
		Message:     "corpus reloaded",
	})
}

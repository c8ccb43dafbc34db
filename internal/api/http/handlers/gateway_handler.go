package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/observability"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util"
)

// GatewayHandler serves the gateway's own endpoints and forwards everything
// the portal guard lets through to the frontend.
type GatewayHandler struct {
	upstream string
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewGatewayHandler constructs the handler. An empty upstream answers 204.
func NewGatewayHandler(upstream string, metrics *observability.Metrics, logger *zap.Logger) *GatewayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayHandler{upstream: upstream, metrics: metrics, logger: logger}
}

// Metrics returns a snapshot of the in-memory counters.
func (h *GatewayHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// Forward proxies the request to the portal frontend.
func (h *GatewayHandler) Forward(c *fiber.Ctx) error {
	if h.upstream == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}
	target := h.upstream + c.OriginalURL()
	if err := proxy.Do(c, target); err != nil {
		h.logger.Error("upstream request failed", zap.String("target", target), zap.Error(err))
		return apperrors.NewDomainError("UPSTREAM_UNAVAILABLE", "portal upstream unavailable", fiber.StatusBadGateway, nil)
	}
	return nil
}

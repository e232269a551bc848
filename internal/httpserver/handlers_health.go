package httpserver

import (
	"net/http"
	"time"

	"github.com/DulceVerde/server/pkg/responders"
)

// health reports process liveness plus whether checkout is fully
// configured. A booted process with missing checkout settings still
// answers 200 so orchestrators keep it alive while operators fix the
// configuration.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	uptime := now.Sub(serverStartTime)

	checkoutReady := h.cfg.ValidateCheckout() == nil

	response := map[string]any{
		"status":        "ok",
		"uptime":        uptime.String(),
		"timestamp":     now.UTC(),
		"checkoutReady": checkoutReady,
	}

	// Include route prefix for frontend discovery
	if h.cfg.Server.RoutePrefix != "" {
		response["routePrefix"] = h.cfg.Server.RoutePrefix
	}

	responders.JSON(w, http.StatusOK, response)
}

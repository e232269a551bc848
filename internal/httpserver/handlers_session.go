package httpserver

import (
	"errors"
	"net/http"

	apierrors "github.com/DulceVerde/server/internal/errors"
	"github.com/DulceVerde/server/internal/logger"
	stripesvc "github.com/DulceVerde/server/internal/stripe"
	"github.com/DulceVerde/server/pkg/responders"
)

// getSessionSummary returns the post-payment view of a checkout session,
// looked up by the session_id query parameter.
func (h *handlers) getSessionSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := h.cfg.ValidateCheckout(); err != nil {
		log.Error().
			Err(err).
			Msg("checkout.summary.config_incomplete")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeConfigError, "checkout is not available")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.observeSessionLookup("missing_id")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "session_id is required")
		return
	}

	summary, err := h.checkout.GetSessionSummary(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, stripesvc.ErrSessionNotFound) {
			log.Warn().
				Str("session_id", logger.TruncateSessionID(sessionID)).
				Msg("checkout.summary.not_found")
			h.observeSessionLookup("not_found")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeSessionNotFound, "checkout session not found")
			return
		}
		log.Error().
			Err(err).
			Str("session_id", logger.TruncateSessionID(sessionID)).
			Msg("checkout.summary.fetch_failed")
		h.observeSessionLookup("error")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeStripeError, "failed to retrieve checkout session")
		return
	}

	fetched := log.Debug().
		Str("session_id", logger.TruncateSessionID(sessionID)).
		Str("status", summary.Status)
	if summary.CustomerDetails != nil {
		fetched = fetched.Str("customer_email", logger.RedactEmail(summary.CustomerDetails.Email))
	}
	fetched.Msg("checkout.summary.fetched")
	h.observeSessionLookup("ok")

	responders.JSON(w, http.StatusOK, summary)
}

func (h *handlers) observeSessionLookup(status string) {
	if h.metrics != nil {
		h.metrics.ObserveSessionLookup(status)
	}
}

package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/stashd/stashd/tenants"
)

type RecallResponse struct {
	ID           string          `json:"id"`
	Payload      json.RawMessage `json:"payload"`
	TTLRemaining int             `json:"ttl_remaining"`
}

// NewRecallHandler serves "GET /recall/:id" requests.
func NewRecallHandler(eng Engine, resolver tenants.Resolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tenant, err := resolveTenant(r, resolver)
		if err != nil {
			writeError(w, "GET /recall", err)
			return
		}

		id, err := parseRecordID(ps)
		if err != nil {
			writeError(w, "GET /recall", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		recalled, err := eng.Recall(ctx, tenant, id)
		if err != nil {
			writeError(w, "GET /recall", err)
			return
		}

		writeJSON(w, http.StatusOK, RecallResponse{
			ID:           id,
			Payload:      json.RawMessage(recalled.Payload),
			TTLRemaining: recalled.TTLRemaining,
		})
	}
}

package endpoints

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/stashd/stashd/tenants"
	"github.com/stashd/stashd/utils"
	"github.com/stashd/stashd/validation"
)

type UpdateRequest struct {
	Payload          json.RawMessage `json:"payload"`
	ExtendTTLSeconds int             `json:"extend_ttl_seconds"`
}

type UpdateResponse struct {
	ID           string    `json:"id"`
	TTLRemaining int       `json:"ttl_remaining"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewUpdateHandler serves "PATCH /update/:id" requests. A request may carry a
// new payload, a TTL extension, or both.
func NewUpdateHandler(eng Engine, resolver tenants.Resolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tenant, err := resolveTenant(r, resolver)
		if err != nil {
			writeError(w, "PATCH /update", err)
			return
		}

		id, err := parseRecordID(ps)
		if err != nil {
			writeError(w, "PATCH /update", err)
			return
		}

		if err := validation.CheckDeclaredSize(r.ContentLength, tenant.Limits); err != nil {
			writeError(w, "PATCH /update", err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, "PATCH /update", utils.NewStashError(utils.INVALID_REQUEST, "failed to read the request body"))
			return
		}
		defer r.Body.Close()

		var req UpdateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, "PATCH /update", utils.NewStashError(utils.INVALID_REQUEST, "request body is not valid JSON"))
			return
		}

		// A payload key that is absent means "keep the stored payload". The
		// engine receives nil in that case and a non-nil slice otherwise.
		var payload []byte
		if len(req.Payload) > 0 {
			payload = req.Payload
		}

		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		updated, err := eng.Update(ctx, tenant, id, payload, req.ExtendTTLSeconds)
		if err != nil {
			writeError(w, "PATCH /update", err)
			return
		}

		writeJSON(w, http.StatusOK, UpdateResponse{
			ID:           updated.ID,
			TTLRemaining: updated.TTLRemaining,
			ExpiresAt:    updated.ExpiresAt.UTC(),
		})
	}
}

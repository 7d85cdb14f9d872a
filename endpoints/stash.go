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

type StashRequest struct {
	Payload    json.RawMessage `json:"payload"`
	TTLSeconds int             `json:"ttl_seconds"`
}

type StashResponse struct {
	ID         string    `json:"id"`
	TTLSeconds int       `json:"ttl_seconds"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewStashHandler serves "POST /stash" requests.
func NewStashHandler(eng Engine, resolver tenants.Resolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tenant, err := resolveTenant(r, resolver)
		if err != nil {
			writeError(w, "POST /stash", err)
			return
		}

		// The declared gate runs before a single body byte is read, so a
		// tenant can never make the server buffer more than its limit allows.
		if err := validation.CheckDeclaredSize(r.ContentLength, tenant.Limits); err != nil {
			writeError(w, "POST /stash", err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, "POST /stash", utils.NewStashError(utils.INVALID_REQUEST, "failed to read the request body"))
			return
		}
		defer r.Body.Close()

		var req StashRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, "POST /stash", utils.NewStashError(utils.INVALID_REQUEST, "request body is not valid JSON"))
			return
		}
		if len(req.Payload) == 0 {
			writeError(w, "POST /stash", utils.NewStashError(utils.INVALID_REQUEST, "missing payload"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		created, err := eng.Create(ctx, tenant, req.Payload, req.TTLSeconds)
		if err != nil {
			writeError(w, "POST /stash", err)
			return
		}

		writeJSON(w, http.StatusCreated, StashResponse{
			ID:         created.ID,
			TTLSeconds: created.TTLSeconds,
			ExpiresAt:  created.ExpiresAt.UTC(),
		})
	}
}

package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/engine"
	"github.com/stashd/stashd/tenants"
	"github.com/stashd/stashd/utils"
)

const apiKeyHeader = "X-API-Key"

// Engine is the slice of the stash engine the handlers call into.
type Engine interface {
	Create(ctx context.Context, tenant tenants.Tenant, payload []byte, ttlSeconds int) (engine.CreateResult, error)
	Recall(ctx context.Context, tenant tenants.Tenant, recordID string) (engine.RecallResult, error)
	Update(ctx context.Context, tenant tenants.Tenant, recordID string, payload []byte, extraSeconds int) (engine.UpdateResult, error)
	Forget(ctx context.Context, tenant tenants.Tenant, recordID string) error
}

func resolveTenant(r *http.Request, resolver tenants.Resolver) (tenants.Tenant, error) {
	return resolver.Resolve(r.Header.Get(apiKeyHeader))
}

// parseRecordID filters obviously malformed IDs before the backend is ever
// consulted. Short IDs are 8 characters and fallback UUIDs are 36, so any
// other length can only be a miss.
func parseRecordID(ps httprouter.Params) (string, error) {
	id := ps.ByName("id")
	if id == "" {
		return "", utils.NewStashError(utils.INVALID_REQUEST, "missing record id")
	}
	if len(id) != utils.RECORD_ID_LENGTH && len(id) != utils.FALLBACK_ID_LENGTH {
		return id, utils.NewStashError(utils.NOT_FOUND)
	}
	return id, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps a StashError onto its status code. Anything else is a bug
// in the layers below and surfaces as a 500.
func writeError(w http.ResponseWriter, op string, err error) {
	var se utils.StashError
	if !errors.As(err, &se) {
		log.Errorf("%s: unclassified error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	if se.StatusCode >= http.StatusInternalServerError {
		log.Errorf("%s: %s", op, se.Error())
	} else {
		log.Debugf("%s: %s", op, se.Error())
	}
	writeJSON(w, se.StatusCode, errorResponse{Error: se.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	raw, err := json.Marshal(body)
	if err != nil {
		log.Errorf("error marshaling response body: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

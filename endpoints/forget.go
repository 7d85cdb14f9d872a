package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/stashd/stashd/tenants"
)

// NewForgetHandler serves "DELETE /forget/:id" requests.
func NewForgetHandler(eng Engine, resolver tenants.Resolver) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tenant, err := resolveTenant(r, resolver)
		if err != nil {
			writeError(w, "DELETE /forget", err)
			return
		}

		id, err := parseRecordID(ps)
		if err != nil {
			writeError(w, "DELETE /forget", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := eng.Forget(ctx, tenant, id); err != nil {
			writeError(w, "DELETE /forget", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

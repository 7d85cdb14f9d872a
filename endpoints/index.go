package endpoints

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// NewIndexHandler serves the default route instead of a bare 404.
func NewIndexHandler(emptyResponse bool) httprouter.Handle {
	body := []byte("Stashd: ephemeral scratch storage.")
	if emptyResponse {
		body = nil
	}
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

package decorators

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/stashd/stashd/metrics"
)

// writerWithStatus implements the http.ResponseWriter interface in order to
// store extra information needed for metrics purposes.
type writerWithStatus struct {
	delegate   http.ResponseWriter
	statusCode int
}

func (w *writerWithStatus) WriteHeader(statusCode int) {
	// Capture only the first call, because that's the one the client got.
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	w.delegate.WriteHeader(statusCode)
}

func (w *writerWithStatus) Write(bytes []byte) (int, error) {
	return w.delegate.Write(bytes)
}

func (w *writerWithStatus) Header() http.Header {
	return w.delegate.Header()
}

// MonitorHttp records a request count, duration and outcome for the handler
// under the given operation label.
func MonitorHttp(handler httprouter.Handle, m *metrics.Metrics, op string) httprouter.Handle {
	return httprouter.Handle(func(resp http.ResponseWriter, req *http.Request, params httprouter.Params) {
		m.RecordRequestTotal(op)
		wrapper := writerWithStatus{
			delegate: resp,
		}

		start := time.Now()
		handler(&wrapper, req, params)
		respCode := wrapper.statusCode
		// If the handler never calls WriteHeader explicitly, Go auto-fills it with a 200
		if respCode == 0 || respCode >= 200 && respCode < 300 {
			m.RecordRequestDuration(op, time.Since(start))
		} else if respCode == http.StatusTooManyRequests {
			m.RecordRateLimited(op)
		} else if respCode >= 400 && respCode < 500 {
			m.RecordRequestBadRequest(op)
		} else {
			m.RecordRequestError(op)
		}
	})
}

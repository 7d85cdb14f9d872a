package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/utils"
)

func TestStashHandler(t *testing.T) {
	testCases := []struct {
		desc      string
		withAuth  bool
		body      string
		expStatus int
	}{
		{
			desc:      "missing API key",
			withAuth:  false,
			body:      `{"payload":{"a":1}}`,
			expStatus: http.StatusUnauthorized,
		},
		{
			desc:      "body is not JSON",
			withAuth:  true,
			body:      `not json`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "missing payload",
			withAuth:  true,
			body:      `{"ttl_seconds":60}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "negative ttl",
			withAuth:  true,
			body:      `{"payload":{"a":1},"ttl_seconds":-3}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "ttl above the tier maximum",
			withAuth:  true,
			body:      `{"payload":{"a":1},"ttl_seconds":121}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "successful create",
			withAuth:  true,
			body:      `{"payload":{"a":1},"ttl_seconds":90}`,
			expStatus: http.StatusCreated,
		},
	}

	for _, tc := range testCases {
		eng, resolver := newTestDeps()
		handler := NewStashHandler(eng, resolver)

		req := httptest.NewRequest("POST", "/stash", strings.NewReader(tc.body))
		if tc.withAuth {
			req.Header.Set(apiKeyHeader, testAPIKey)
		}

		recorder := httptest.NewRecorder()
		handler(recorder, req, nil)

		assert.Equal(t, tc.expStatus, recorder.Code, tc.desc)
	}
}

func TestStashHandlerResponseBody(t *testing.T) {
	eng, resolver := newTestDeps()
	handler := NewStashHandler(eng, resolver)

	recorder := httptest.NewRecorder()
	handler(recorder, authedRequest("POST", "/stash", `{"payload":{"a":1},"ttl_seconds":90}`), nil)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var resp StashResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Len(t, resp.ID, utils.RECORD_ID_LENGTH)
	assert.Equal(t, 90, resp.TTLSeconds)
	assert.WithinDuration(t, time.Now().Add(90*time.Second), resp.ExpiresAt, time.Second)
}

func TestStashHandlerDefaultTTL(t *testing.T) {
	eng, resolver := newTestDeps()
	handler := NewStashHandler(eng, resolver)

	recorder := httptest.NewRecorder()
	handler(recorder, authedRequest("POST", "/stash", `{"payload":{"a":1}}`), nil)

	assert.Equal(t, http.StatusCreated, recorder.Code)

	var resp StashResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, 60, resp.TTLSeconds)
}

func TestStashHandlerDeclaredSizeGate(t *testing.T) {
	eng, resolver := newTestDeps()
	handler := NewStashHandler(eng, resolver)

	// The request envelope exceeds the 256 byte tier limit before the body
	// is even read.
	body := `{"payload":{"a":"` + strings.Repeat("x", 300) + `"}}`
	recorder := httptest.NewRecorder()
	handler(recorder, authedRequest("POST", "/stash", body), nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
}

func TestStashHandlerActualSizeGate(t *testing.T) {
	eng, resolver := newTestDeps()
	handler := NewStashHandler(eng, resolver)

	// An understated Content-Length slips past the declared gate, but the
	// serialized payload still trips the actual gate.
	body := `{"payload":{"a":"` + strings.Repeat("x", 260) + `"},"ttl_seconds":60}`
	req := authedRequest("POST", "/stash", body)
	req.ContentLength = 200

	recorder := httptest.NewRecorder()
	handler(recorder, req, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
}

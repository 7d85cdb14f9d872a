package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecallHandler(t *testing.T) {
	eng, resolver := newTestDeps()
	stash := NewStashHandler(eng, resolver)
	recall := NewRecallHandler(eng, resolver)

	recorder := httptest.NewRecorder()
	stash(recorder, authedRequest("POST", "/stash", `{"payload":{"a":1},"ttl_seconds":90}`), nil)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created StashResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	testCases := []struct {
		desc      string
		withAuth  bool
		id        string
		expStatus int
	}{
		{
			desc:      "missing API key",
			withAuth:  false,
			id:        created.ID,
			expStatus: http.StatusUnauthorized,
		},
		{
			desc:      "id with an impossible length is filtered before the backend",
			withAuth:  true,
			id:        "not-a-real-id",
			expStatus: http.StatusNotFound,
		},
		{
			desc:      "unknown id",
			withAuth:  true,
			id:        "zzzzzzzz",
			expStatus: http.StatusNotFound,
		},
		{
			desc:      "successful recall",
			withAuth:  true,
			id:        created.ID,
			expStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest("GET", "/recall/"+tc.id, nil)
		if tc.withAuth {
			req.Header.Set(apiKeyHeader, testAPIKey)
		}

		rec := httptest.NewRecorder()
		recall(rec, req, idParams(tc.id))

		assert.Equal(t, tc.expStatus, rec.Code, tc.desc)
	}
}

func TestRecallHandlerResponseBody(t *testing.T) {
	eng, resolver := newTestDeps()
	stash := NewStashHandler(eng, resolver)
	recall := NewRecallHandler(eng, resolver)

	recorder := httptest.NewRecorder()
	stash(recorder, authedRequest("POST", "/stash", `{"payload":{"note":"hello"},"ttl_seconds":90}`), nil)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created StashResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	rec := httptest.NewRecorder()
	recall(rec, authedRequest("GET", "/recall/"+created.ID, ""), idParams(created.ID))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp RecallResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.JSONEq(t, `{"note":"hello"}`, string(resp.Payload))
	assert.InDelta(t, 90, resp.TTLRemaining, 1)
}

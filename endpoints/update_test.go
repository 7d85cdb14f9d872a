package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateHandler(t *testing.T) {
	testCases := []struct {
		desc      string
		body      string
		expStatus int
	}{
		{
			desc:      "body is not JSON",
			body:      `not json`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "neither payload nor extension",
			body:      `{}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "negative extension",
			body:      `{"extend_ttl_seconds":-10}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "extension past the tier ceiling",
			body:      `{"extend_ttl_seconds":100}`,
			expStatus: http.StatusBadRequest,
		},
		{
			desc:      "payload only",
			body:      `{"payload":{"v":2}}`,
			expStatus: http.StatusOK,
		},
		{
			desc:      "extension only",
			body:      `{"extend_ttl_seconds":20}`,
			expStatus: http.StatusOK,
		},
		{
			desc:      "payload and extension",
			body:      `{"payload":{"v":3},"extend_ttl_seconds":10}`,
			expStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		eng, resolver := newTestDeps()
		stash := NewStashHandler(eng, resolver)
		update := NewUpdateHandler(eng, resolver)

		recorder := httptest.NewRecorder()
		stash(recorder, authedRequest("POST", "/stash", `{"payload":{"v":1},"ttl_seconds":60}`), nil)
		assert.Equal(t, http.StatusCreated, recorder.Code, tc.desc)

		var created StashResponse
		assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created), tc.desc)

		rec := httptest.NewRecorder()
		update(rec, authedRequest("PATCH", "/update/"+created.ID, tc.body), idParams(created.ID))

		assert.Equal(t, tc.expStatus, rec.Code, tc.desc)
	}
}

func TestUpdateHandlerResponseBody(t *testing.T) {
	eng, resolver := newTestDeps()
	stash := NewStashHandler(eng, resolver)
	update := NewUpdateHandler(eng, resolver)
	recall := NewRecallHandler(eng, resolver)

	recorder := httptest.NewRecorder()
	stash(recorder, authedRequest("POST", "/stash", `{"payload":{"v":1},"ttl_seconds":60}`), nil)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created StashResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	rec := httptest.NewRecorder()
	update(rec, authedRequest("PATCH", "/update/"+created.ID, `{"payload":{"v":2},"extend_ttl_seconds":30}`), idParams(created.ID))
	assert.Equal(t, http.StatusOK, rec.Code)

	var updated UpdateResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.InDelta(t, 90, updated.TTLRemaining, 1)

	// The stored payload changed with the extension.
	rec = httptest.NewRecorder()
	recall(rec, authedRequest("GET", "/recall/"+created.ID, ""), idParams(created.ID))
	assert.Equal(t, http.StatusOK, rec.Code)

	var recalled RecallResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recalled))
	assert.JSONEq(t, `{"v":2}`, string(recalled.Payload))
}

func TestUpdateHandlerMissingRecord(t *testing.T) {
	eng, resolver := newTestDeps()
	update := NewUpdateHandler(eng, resolver)

	rec := httptest.NewRecorder()
	update(rec, authedRequest("PATCH", "/update/zzzzzzzz", `{"extend_ttl_seconds":10}`), idParams("zzzzzzzz"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

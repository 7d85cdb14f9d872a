package endpoints

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionEndpoint(t *testing.T) {
	testCases := []struct {
		desc     string
		version  string
		revision string
		expected string
	}{
		{
			desc:     "both set",
			version:  "v1.2.3",
			revision: "abc123",
			expected: `{"revision":"abc123","version":"v1.2.3"}`,
		},
		{
			desc:     "neither set",
			expected: `{"revision":"not-set","version":"not-set"}`,
		},
	}

	for _, tc := range testCases {
		handler := NewVersionEndpoint(tc.version, tc.revision)

		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest("GET", "/version", nil), nil)

		assert.JSONEq(t, tc.expected, recorder.Body.String(), tc.desc)
	}
}

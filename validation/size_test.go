package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

func TestCheckDeclaredSize(t *testing.T) {
	limits := config.TierLimits{StorageLimitBytes: 100}

	testCases := []struct {
		desc          string
		declaredBytes int64
		expErrType    int
	}{
		{
			desc:          "within limit",
			declaredBytes: 100,
			expErrType:    -1,
		},
		{
			desc:          "no declaration passes this gate",
			declaredBytes: -1,
			expErrType:    -1,
		},
		{
			desc:          "over limit",
			declaredBytes: 101,
			expErrType:    utils.PAYLOAD_TOO_LARGE_DECLARED,
		},
	}

	for _, tc := range testCases {
		err := CheckDeclaredSize(tc.declaredBytes, limits)

		if tc.expErrType < 0 {
			assert.NoError(t, err, tc.desc)
		} else {
			assert.True(t, utils.IsType(err, tc.expErrType), tc.desc)
		}
	}
}

func TestSerializePayload(t *testing.T) {
	limits := config.TierLimits{StorageLimitBytes: 32}

	testCases := []struct {
		desc       string
		payload    string
		expStored  string
		expErrType int
	}{
		{
			desc:       "valid JSON is compacted",
			payload:    "{\n  \"a\": 1,\n  \"b\": \"two\"\n}",
			expStored:  `{"a":1,"b":"two"}`,
			expErrType: -1,
		},
		{
			desc:       "invalid JSON",
			payload:    `{"a":`,
			expErrType: utils.INVALID_REQUEST,
		},
		{
			desc:       "compacted form over limit",
			payload:    `{"a":"` + strings.Repeat("x", 40) + `"}`,
			expErrType: utils.PAYLOAD_TOO_LARGE_ACTUAL,
		},
	}

	for _, tc := range testCases {
		stored, err := SerializePayload([]byte(tc.payload), limits)

		if tc.expErrType >= 0 {
			assert.True(t, utils.IsType(err, tc.expErrType), tc.desc)
		} else {
			assert.NoError(t, err, tc.desc)
			assert.Equal(t, tc.expStored, stored, tc.desc)
		}
	}
}

func TestSerializePayloadWhitespaceDoesNotCount(t *testing.T) {
	limits := config.TierLimits{StorageLimitBytes: 20}

	// The padded form exceeds the limit but its compacted form does not.
	padded := "{   \"a\"   :   1   ,   \"b\"   :   2   }"
	assert.Greater(t, len(padded), limits.StorageLimitBytes)

	stored, err := SerializePayload([]byte(padded), limits)
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, stored)
}

// Package validation holds the two payload size gates. The declared gate
// runs before the request body is read, the actual gate after the payload is
// serialized to its stored form, so an understated Content-Length can never
// smuggle an oversized payload past the first check.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// CheckDeclaredSize rejects a request whose declared body size already
// exceeds the tenant's storage limit. A negative declaredBytes means the
// client sent no declaration, which passes this gate; the actual gate still
// applies.
func CheckDeclaredSize(declaredBytes int64, limits config.TierLimits) error {
	if declaredBytes > int64(limits.StorageLimitBytes) {
		return utils.NewStashError(utils.PAYLOAD_TOO_LARGE_DECLARED,
			fmt.Sprintf("declared size %d exceeds the %d byte limit", declaredBytes, limits.StorageLimitBytes))
	}
	return nil
}

// SerializePayload compacts the JSON payload into its stored form and
// measures that form against the tenant's storage limit.
func SerializePayload(payload []byte, limits config.TierLimits) (string, error) {
	if !json.Valid(payload) {
		return "", utils.NewStashError(utils.INVALID_REQUEST, "payload is not valid JSON")
	}

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, payload); err != nil {
		return "", utils.NewStashError(utils.INVALID_REQUEST, "payload is not valid JSON")
	}

	if compacted.Len() > limits.StorageLimitBytes {
		return "", utils.NewStashError(utils.PAYLOAD_TOO_LARGE_ACTUAL,
			fmt.Sprintf("serialized size %d exceeds the %d byte limit", compacted.Len(), limits.StorageLimitBytes))
	}

	return compacted.String(), nil
}

package ngsast

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// ExtractOrgID decodes the payload of the NG SAST personal access token and
// returns the organization id claim. The token is a JWT; no signature
// verification is needed because the id is only used to build API paths.
// Returns "" when the token does not look like a valid token.
func ExtractOrgID(token string) string {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return ""
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some tokens come padded; retry with standard decoding.
		payload, err = base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return ""
		}
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ""
	}

	for _, key := range []string{"orgID", "org_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

package tgauth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

var jwtHeader = []byte(`{"alg":"HS256","typ":"JWT"}`)

// SignHS256JWT encodes payload as a compact HS256 JWT signed with secret
func SignHS256JWT(payload interface{}, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret is empty")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode jwt payload: %w", err)
	}

	signingInput := base64URL(jwtHeader) + "." + base64URL(body)
	signature := hmacSHA256(secret, []byte(signingInput))

	return signingInput + "." + base64URL(signature), nil
}

func base64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

package domain

import (
	"encoding/json"
	"time"
)

// Session represents a persisted login session row tied to a user.
// The token is the opaque secret carried inside the auth key; DateUpdated is
// the liveness timestamp refreshed on every successful validation so active
// sessions survive garbage collection.
type Session struct {
	ID          string
	Token       string
	UserID      string
	CreatedAt   time.Time
	DateUpdated time.Time
}

// AuthKey is the decoded form of the opaque session credential presented on
// each request: the session token plus a fingerprint of the user agent that
// established the session. The middle element of the wire format is reserved.
type AuthKey struct {
	Token         string
	UserAgentHash string
}

// Encode serializes the auth key to its wire format, a JSON array of
// [token, reserved, userAgentHash].
func (k AuthKey) Encode() (string, error) {
	raw, err := json.Marshal([]any{k.Token, nil, k.UserAgentHash})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeAuthKey parses a presented credential. Anything that is not a
// three-element array with string token and fingerprint is rejected; callers
// must treat a false return as an invalid credential without consulting the
// session store.
func DecodeAuthKey(credential string) (AuthKey, bool) {
	var data []any
	if err := json.Unmarshal([]byte(credential), &data); err != nil {
		return AuthKey{}, false
	}
	if len(data) != 3 {
		return AuthKey{}, false
	}

	token, ok := data[0].(string)
	if !ok || token == "" {
		return AuthKey{}, false
	}
	hash, ok := data[2].(string)
	if !ok || hash == "" {
		return AuthKey{}, false
	}

	return AuthKey{Token: token, UserAgentHash: hash}, true
}

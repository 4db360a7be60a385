package domain

import "time"

// Identity is the claim set decoded from a verified bearer token.
// It lives for a single request and is never persisted.
type Identity struct {
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

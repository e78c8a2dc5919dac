package domain

// Identity is an assertion from the external identity provider. The provider
// itself (sign-in, token issuance) is out of scope; we only verify tokens.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// TokenVerifier verifies a bearer token and returns the asserted identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// PinHasher hashes and verifies registration PINs. Implementations use a
// salted adaptive hash; plaintext PINs are never stored or echoed back.
type PinHasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) bool
}

package account

// ActivationKeyDeriver computes the key embedded in activation links.
// The key is Hash(email + passwordDigest + secret), concatenated in that
// order, so a password change invalidates links issued before it.
type ActivationKeyDeriver struct {
	hasher CredentialHasher
	secret string
}

var _ KeyDeriver = (*ActivationKeyDeriver)(nil)

// NewActivationKeyDeriver takes the secret from cfg
func NewActivationKeyDeriver(cfg Config, hasher CredentialHasher) *ActivationKeyDeriver {
	if hasher == nil {
		hasher = MD5Hasher{}
	}
	return &ActivationKeyDeriver{
		hasher: hasher,
		secret: cfg.GetSessionSecret(),
	}
}

// Derive returns the activation key for the email/digest pair
func (d *ActivationKeyDeriver) Derive(email, passwordDigest string) string {
	return d.hasher.Hash(email + passwordDigest + d.secret)
}

// Verify recomputes the key and compares it with the submitted one
func (d *ActivationKeyDeriver) Verify(email, passwordDigest, key string) bool {
	if key == "" {
		return false
	}
	return d.hasher.Equals(d.Derive(email, passwordDigest), key)
}

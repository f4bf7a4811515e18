package account

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// MD5Hasher produces the hex MD5 digests existing records were stored with.
// HashTwice must stay MD5(MD5(p)) or stored digests stop verifying.
type MD5Hasher struct{}

var _ CredentialHasher = MD5Hasher{}

// NewMD5Hasher returns the default hasher
func NewMD5Hasher() MD5Hasher {
	return MD5Hasher{}
}

// Hash returns the lower case hex MD5 of plaintext
func (MD5Hasher) Hash(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// HashTwice hashes the hex digest of plaintext again
func (h MD5Hasher) HashTwice(plaintext string) string {
	return h.Hash(h.Hash(plaintext))
}

// Equals compares two digests in constant time
func (MD5Hasher) Equals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

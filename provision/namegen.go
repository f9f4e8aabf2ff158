package provision

import (
	"math/rand/v2"
	"strings"
)

// nameAlphabet satisfies the provider's bucket naming rules: lowercase
// letters and digits only (hyphens are added as separators).
const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const (
	bucketTokenLength   = 6
	defaultPrefixLength = 10
	defaultObjectKeyLen = 30
)

func randomToken(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(nameAlphabet[rand.IntN(len(nameAlphabet))])
	}
	return b.String()
}

// NewBucketName produces a collision-resistant bucket name of the form
// "prefix-xxxxxx-xxxxxx". An empty prefix gets a random 10-character one.
// No uniqueness is guaranteed; a collision surfaces as a creation-time error.
func NewBucketName(prefix string) string {
	if prefix == "" {
		prefix = randomToken(defaultPrefixLength)
	}
	return strings.Join([]string{
		prefix,
		randomToken(bucketTokenLength),
		randomToken(bucketTokenLength),
	}, "-")
}

// NewObjectName produces a random lowercase alphanumeric object key of the
// given length. Non-positive lengths fall back to the default of 30.
func NewObjectName(length int) string {
	if length <= 0 {
		length = defaultObjectKeyLen
	}
	return randomToken(length)
}

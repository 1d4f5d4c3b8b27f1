// Package uniuri generates cryptographically secure random strings suitable
// for use as unique identifiers such as coupon codes and storage probe nonces.
package uniuri

import (
	"crypto/rand"
	"math"
)

const (
	// StdLen is a standard length of uniuri string to achieve ~95 bits of entropy.
	StdLen = 16

	// maxBufLen is the maximum length of a temporary buffer for random bytes.
	maxBufLen = 2048

	// maxByteValue is the maximum value of a byte (2^8 - 1).
	maxByteValue = 255

	// byteRange is the total number of possible byte values (2^8).
	byteRange = 256
)

// StdChars is a set of standard characters allowed in uniuri string.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a new random string of the standard length, consisting of
// standard characters.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLen returns a new random string of the provided length, consisting of
// standard characters.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// estimatedBufLen returns the estimated number of random bytes to request
// given that byte values greater than maxByte will be rejected.
func estimatedBufLen(need, maxByte int) int {
	return int(math.Ceil(float64(need) * (maxByteValue / float64(maxByte))))
}

// NewLenChars returns a new random string of the provided length, consisting
// of the provided byte slice of allowed characters (maximum 256).
func NewLenChars(length int, chars []byte) string {
	if length == 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("uniuri: wrong charset length for NewLenChars")
	}

	maxRb := maxByteValue - (byteRange % clen)
	bufLen := estimatedBufLen(length, maxRb)
	if bufLen < length {
		bufLen = length
	}

	if bufLen > maxBufLen {
		bufLen = maxBufLen
	}

	buf := make([]byte, bufLen) // storage for random bytes
	out := make([]byte, length) // storage for result

	var i int // index in out
	for {
		if _, err := rand.Read(buf[:bufLen]); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf[:bufLen] {
			c := int(rb)
			if c > maxRb {
				// Skip this number to avoid modulo bias.
				continue
			}
			out[i] = chars[c%clen]
			i++
			if i == length {
				return string(out)
			}
		}

		bufLen = estimatedBufLen(length-i, maxRb)
		if bufLen > maxBufLen {
			bufLen = maxBufLen
		}
	}
}

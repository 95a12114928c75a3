package credentials

import (
	"crypto/rand"
	"math/big"
)

const (
	// DefaultPasswordLength is used for system-generated professor accounts.
	DefaultPasswordLength = 12

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	digits           = "0123456789"
)

// GenerateRandomPassword generates a password of length characters (12 when
// length is not positive), each drawn with a crypto-secure index.
func GenerateRandomPassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	return randomString(passwordAlphabet, length)
}

// GenerateNumericCode generates a string of length random digits.
func GenerateNumericCode(length int) (string, error) {
	return randomString(digits, length)
}

func randomString(alphabet string, length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[num.Int64()]
	}
	return string(out), nil
}

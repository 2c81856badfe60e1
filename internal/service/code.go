package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"truvamate/internal/domain"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCode builds a referral code: up to four characters of the owner id,
// six random base-36 characters and the base-36 millisecond timestamp, all
// upper case and cut to domain.CodeLength.
func GenerateCode(userID string, now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(codePrefix(userID))

	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < domain.CodeRandomLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))

	code := b.String()
	if len(code) > domain.CodeLength {
		code = code[:domain.CodeLength]
	}
	return code, nil
}

// codePrefix keeps the first four letters or digits of the owner id.
func codePrefix(userID string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(userID) {
		if b.Len() == domain.CodeOwnerPrefix {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsUpper(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCode canonicalises user input before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

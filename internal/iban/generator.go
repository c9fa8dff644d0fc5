// Package iban mints and validates French IBAN account identifiers.
package iban

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	CountryCode = "FR"
	BankCode    = "30001"
	BranchCode  = "00794"

	// AccountDigits is the length of the random account-specific suffix.
	AccountDigits = 11

	// Length of a generated identifier: country, checksum, 21-digit base, national key.
	Length = len(CountryCode) + 2 + len(BankCode) + len(BranchCode) + AccountDigits + 2

	maxLength = 34
)

var ErrInvalidDigits = errors.New("account digits must be exactly 11 decimal digits")

// Generator produces checksummed account numbers from a random digit source.
// The source must be safe for concurrent use if the Generator is shared;
// crypto/rand.Reader is.
type Generator struct {
	src io.Reader
}

// NewGenerator returns a Generator reading from src, or from crypto/rand when src is nil.
func NewGenerator(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// Generate draws 11 uniform random digits and builds the identifier from them.
// It only fails if the underlying source does.
func (g *Generator) Generate() (string, error) {
	digits, err := g.randomDigits(AccountDigits)
	if err != nil {
		return "", fmt.Errorf("failed to read random digits: %w", err)
	}
	return GenerateFromDigits(digits)
}

// randomDigits maps random bytes to decimal digits, discarding bytes >= 250
// so every digit is equally likely.
func (g *Generator) randomDigits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		need := n - len(out)
		if _, err := io.ReadFull(g.src, buf[:need]); err != nil {
			return "", err
		}
		for _, b := range buf[:need] {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
		}
	}
	return string(out), nil
}

// GenerateFromDigits builds the identifier for a given 11-digit account suffix.
// The result is fully determined by digits.
func GenerateFromDigits(digits string) (string, error) {
	if len(digits) != AccountDigits || !isDigits(digits) {
		return "", ErrInvalidDigits
	}

	base := BankCode + BranchCode + digits
	key := fmt.Sprintf("%02d", nationalKey(base))

	provisional := CountryCode + "00" + base + key
	remainder, ok := mod97(rearrange(provisional))
	if !ok {
		return "", ErrInvalidDigits
	}

	return CountryCode + fmt.Sprintf("%02d", 98-remainder) + base + key, nil
}

// Validate reports whether number passes the ISO 13616 mod-97 check.
// Spaces are ignored and letters are case-insensitive.
func Validate(number string) bool {
	n := strings.ToUpper(strings.ReplaceAll(number, " ", ""))
	if len(n) < 5 || len(n) > maxLength {
		return false
	}
	if !isLetter(n[0]) || !isLetter(n[1]) || !isDigit(n[2]) || !isDigit(n[3]) {
		return false
	}
	remainder, ok := mod97(rearrange(n))
	return ok && remainder == 1
}

// nationalKey weights each digit by its 1-based position and reduces modulo 97.
func nationalKey(base string) int {
	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * (i + 1)
	}
	return 97 - sum%97
}

func rearrange(s string) string {
	return s[4:] + s[:4]
}

// mod97 folds s left to right. A letter stands for the two digits of c-'A'+10,
// so it shifts the remainder by 100 instead of 10.
func mod97(s string) (int, bool) {
	remainder := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c):
			remainder = (remainder*10 + int(c-'0')) % 97
		case isLetter(c):
			remainder = (remainder*100 + int(c-'A') + 10) % 97
		default:
			return 0, false
		}
	}
	return remainder, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const codeSuffixLength = 4

var base36Max = big.NewInt(36)

// CodeGenerator produces coupon codes: a fixed prefix, the issuance
// timestamp in base 36, and a short random suffix. The timestamp keeps
// codes roughly sortable; the suffix disambiguates same-nanosecond
// generations. Global uniqueness is still enforced by the store's unique
// index, not by this generator.
type CodeGenerator struct {
	prefix string
	now    func() time.Time
}

func NewCodeGenerator(prefix string) *CodeGenerator {
	return &CodeGenerator{prefix: prefix, now: time.Now}
}

// Generate returns a new candidate coupon code.
func (g *CodeGenerator) Generate() (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(g.now().UnixNano(), 36))

	var suffix strings.Builder
	for i := 0; i < codeSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, base36Max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code suffix: %w", err)
		}
		suffix.WriteByte(base36Digit(n.Int64()))
	}

	return fmt.Sprintf("%s-%s%s", g.prefix, stamp, suffix.String()), nil
}

func base36Digit(n int64) byte {
	if n < 10 {
		return byte('0' + n)
	}
	return byte('A' + n - 10)
}

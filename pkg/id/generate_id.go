package id

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account number prefixes.
const (
	PrefixAccount  = "ACC"
	PrefixTreasury = "ORG"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewAccountNumber builds "<prefix><unix seconds><8 uppercase hex>", e.g. ACC1736123456A1B2C3D4.
func NewAccountNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + strconv.FormatInt(now.Unix(), 10) + suffix
}

// NewReference returns a reference number for server-generated ledger entries.
func NewReference(kind string) string {
	return strings.ToUpper(kind) + "-" + uuid.NewString()
}

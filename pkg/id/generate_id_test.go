package id

import (
	"encoding/hex"
	"regexp"
	"strings"
	"testing"
	"time"
)

var (
	reHex32         = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reAccountNumber = regexp.MustCompile(`^ACC[0-9]+[A-F0-9]{8}$`)
)

func TestNewID32_FormatAndDecode(t *testing.T) {
	got := NewID32()

	if len(got) != 32 {
		t.Fatalf("length = %d, want 32 (got=%q)", len(got), got)
	}
	if !reHex32.MatchString(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("decoded bytes = %d, want 16", len(b))
	}
}

func TestNewID32_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewID32()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewAccountNumber_Format(t *testing.T) {
	now := time.Unix(1736123456, 0)
	got := NewAccountNumber(PrefixAccount, now)
	if !reAccountNumber.MatchString(got) {
		t.Fatalf("unexpected account number %q", got)
	}
	if !strings.HasPrefix(got, "ACC1736123456") {
		t.Fatalf("timestamp not embedded: %q", got)
	}

	org := NewAccountNumber(PrefixTreasury, now)
	if !strings.HasPrefix(org, "ORG") {
		t.Fatalf("treasury prefix missing: %q", org)
	}
	if org[len(org)-8:] == got[len(got)-8:] {
		t.Fatalf("suffixes should differ: %q vs %q", org, got)
	}
}

func TestNewReference_Prefix(t *testing.T) {
	ref := NewReference("counter")
	if !strings.HasPrefix(ref, "COUNTER-") {
		t.Fatalf("unexpected reference %q", ref)
	}
}

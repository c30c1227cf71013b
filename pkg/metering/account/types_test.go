package account

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"General", CategoryGeneral, true},
		{"general", CategoryGeneral, true},
		{"SOCIAL", CategorySocial, true},
		{"video", CategoryVideo, true},
		{"Gaming", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCategoryOrGeneral(t *testing.T) {
	if got := CategoryOrGeneral("Video"); got != CategoryVideo {
		t.Errorf("Expected Video, got %q", got)
	}
	if got := CategoryOrGeneral("garbage-from-db"); got != CategoryGeneral {
		t.Errorf("Expected fallback to General, got %q", got)
	}
}

func TestUnitBytes(t *testing.T) {
	if got := UnitMB.Bytes(3); got != 3*1024*1024 {
		t.Errorf("Expected %d, got %d", 3*1024*1024, got)
	}
	if got := UnitGB.Bytes(2); got != 2*1024*1024*1024 {
		t.Errorf("Expected %d, got %d", 2*1024*1024*1024, got)
	}
}

func TestNewTopping(t *testing.T) {
	now := time.Now()
	b := NewTopping(CategoryVideo, 2, UnitGB, now)

	if b.ID == "" {
		t.Error("Expected a generated bucket ID")
	}
	if b.Name != "2 GB Topping" {
		t.Errorf("Expected name %q, got %q", "2 GB Topping", b.Name)
	}
	if b.RemainingBytes != 2*1024*1024*1024 {
		t.Errorf("Expected %d bytes, got %d", 2*1024*1024*1024, b.RemainingBytes)
	}
	if b.Expiry != now.Add(AllotmentTTL).Unix() {
		t.Errorf("Expected expiry %d, got %d", now.Add(AllotmentTTL).Unix(), b.Expiry)
	}
	if b.Expired(now) {
		t.Error("Fresh topping should not be expired")
	}
	if !b.Expired(now.Add(AllotmentTTL)) {
		t.Error("Topping should be expired at its expiry instant")
	}
}

func TestCloneIsDeep(t *testing.T) {
	acct := testAccount(bucket(CategoryGeneral, 100, time.Now().Add(time.Hour)))

	clone := acct.Clone()
	clone.Buckets[0].RemainingBytes = 0

	if acct.Buckets[0].RemainingBytes != 100 {
		t.Error("Clone shares bucket storage with the original")
	}
}

func TestRecomputeBalance(t *testing.T) {
	future := time.Now().Add(time.Hour)
	acct := testAccount(
		bucket(CategoryGeneral, 100, future),
		bucket(CategoryVideo, 200, future),
	)

	if acct.BalanceBytes != 300 {
		t.Errorf("Expected balance 300, got %d", acct.BalanceBytes)
	}

	acct.Buckets = nil
	acct.RecomputeBalance()
	if acct.BalanceBytes != 0 {
		t.Errorf("Expected zero balance with no buckets, got %d", acct.BalanceBytes)
	}
}

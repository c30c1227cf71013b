package command

import (
	"errors"
	"strings"
	"testing"

	"datacap-hq/datacap/pkg/metering/account"
)

func TestParseTopping(t *testing.T) {
	tests := []struct {
		input    string
		category account.Category
		amount   uint64
		unit     account.Unit
		wantErr  bool
	}{
		{"YouTube 2GB", account.CategoryVideo, 2, account.UnitGB, false},
		{"youtube 2 gb", account.CategoryVideo, 2, account.UnitGB, false},
		{"Video 1GB", account.CategoryVideo, 1, account.UnitGB, false},
		{"Social 500MB", account.CategorySocial, 500, account.UnitMB, false},
		{"general 10 GB", account.CategoryGeneral, 10, account.UnitGB, false},
		{"  General 3GB  ", account.CategoryGeneral, 3, account.UnitGB, false},
		{"Gaming 2GB", "", 0, "", true},
		{"YouTube twoGB", "", 0, "", true},
		{"YouTube 2TB", "", 0, "", true},
		{"YouTube", "", 0, "", true},
		{"status", "", 0, "", true},
		{"", "", 0, "", true},
		{"YouTube 0GB", "", 0, "", true},
	}

	for _, tt := range tests {
		got, err := ParseTopping(tt.input)
		if tt.wantErr {
			if !errors.Is(err, account.ErrInvalidCommand) {
				t.Errorf("ParseTopping(%q): expected ErrInvalidCommand, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTopping(%q) failed: %v", tt.input, err)
			continue
		}
		if got.Category != tt.category || got.Amount != tt.amount || got.Unit != tt.unit {
			t.Errorf("ParseTopping(%q) = %+v, want {%s %d %s}", tt.input, got, tt.category, tt.amount, tt.unit)
		}
	}
}

// fakeEngine records calls for parser tests.
type fakeEngine struct {
	locked       bool
	balance      uint64
	dailyAverage uint64
	added        []Topping
	addErr       error
}

func (f *fakeEngine) Locked() bool         { return f.locked }
func (f *fakeEngine) Balance() uint64      { return f.balance }
func (f *fakeEngine) DailyAverage() uint64 { return f.dailyAverage }

func (f *fakeEngine) AddAllotment(category account.Category, amount uint64, unit account.Unit) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, Topping{Category: category, Amount: amount, Unit: unit})
	return nil
}

func TestHandle_LockedRejectsEverything(t *testing.T) {
	engine := &fakeEngine{locked: true}
	p := NewParser(engine)

	for _, cmd := range []string{"status", "YouTube 2GB", "garbage"} {
		if got := p.Handle(cmd); got != "Unlock required." {
			t.Errorf("Handle(%q) = %q, want unlock prompt", cmd, got)
		}
	}
	if len(engine.added) != 0 {
		t.Error("Locked engine was mutated")
	}
}

func TestHandle_Topping(t *testing.T) {
	engine := &fakeEngine{}
	p := NewParser(engine)

	got := p.Handle("YouTube 2GB")
	if !strings.Contains(got, "Added 2 GB Video topping") {
		t.Errorf("Unexpected response: %q", got)
	}
	if len(engine.added) != 1 || engine.added[0].Category != account.CategoryVideo {
		t.Errorf("Expected one Video topping, got %+v", engine.added)
	}
}

func TestHandle_InvalidCommand(t *testing.T) {
	engine := &fakeEngine{}
	p := NewParser(engine)

	got := p.Handle("frobnicate 12")
	if !strings.Contains(got, "Error:") || !strings.Contains(got, "try 'YouTube 2GB'") {
		t.Errorf("Expected error with usage hint, got %q", got)
	}
}

func TestHandle_Status(t *testing.T) {
	engine := &fakeEngine{balance: 5_000_000_000, dailyAverage: 1_000_000_000}
	p := NewParser(engine)

	got := p.Handle("STATUS")
	if !strings.Contains(got, "5.00 GB remaining") {
		t.Errorf("Expected balance in status, got %q", got)
	}
	if !strings.Contains(got, "5 days") {
		t.Errorf("Expected days-left projection, got %q", got)
	}
}

func TestInsight(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		daily   uint64
		want    []string
		exclude []string
	}{
		{
			name:    "no history",
			balance: 2_000_000_000,
			daily:   0,
			want:    []string{"2.00 GB remaining", "Start using data"},
		},
		{
			name:    "plenty left",
			balance: 10_000_000_000,
			daily:   1_000_000_000,
			want:    []string{"10 days"},
			exclude: []string{"Top up soon"},
		},
		{
			name:    "running low",
			balance: 2_000_000_000,
			daily:   1_000_000_000,
			want:    []string{"2 days", "Top up soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insight(tt.balance, tt.daily)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Insight missing %q: %q", w, got)
				}
			}
			for _, x := range tt.exclude {
				if strings.Contains(got, x) {
					t.Errorf("Insight unexpectedly contains %q: %q", x, got)
				}
			}
		})
	}
}

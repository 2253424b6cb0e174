package preset

import (
	"errors"
	"testing"
)

func TestLibrary_Valid(t *testing.T) {
	lib := Library()
	if err := lib.Validate(); err != nil {
		t.Fatalf("built-in library should be valid, got: %v", err)
	}

	want := []string{"football", "basketball", "table-tennis", "chess", "volleyball", "hockey"}
	if len(lib) != len(want) {
		t.Fatalf("Expected %d presets, got %d", len(want), len(lib))
	}
	for i, id := range want {
		if lib[i].ID != id {
			t.Errorf("Expected preset %d to be %s, got %s", i, id, lib[i].ID)
		}
	}
}

func TestCatalog_Lookup(t *testing.T) {
	lib := Library()

	p, ok := lib.Lookup("table-tennis")
	if !ok {
		t.Fatal("Lookup should find table-tennis")
	}
	if p.RoundCount != 5 || p.TargetPerRound != 11 || p.ScoreFloor != 0 {
		t.Errorf("Unexpected table-tennis preset: %+v", p)
	}

	if _, ok := lib.Lookup("curling"); ok {
		t.Error("Lookup should not find an unknown preset")
	}
	if lib.Index("chess") != 3 {
		t.Errorf("Expected chess at index 3, got %d", lib.Index("chess"))
	}
	if lib.Index("curling") != -1 {
		t.Error("Index of unknown preset should be -1")
	}
}

func TestCatalog_FirstFallsBackToPlaceholder(t *testing.T) {
	if got := (Catalog{}).First(); got.ID != "generic" {
		t.Errorf("Expected placeholder for empty catalog, got %s", got.ID)
	}
	if got := Library().First(); got.ID != "football" {
		t.Errorf("Expected football first, got %s", got.ID)
	}
}

func TestCatalog_DuplicateID(t *testing.T) {
	c := Catalog{Placeholder(), Placeholder()}
	if err := c.Validate(); err == nil {
		t.Error("Expected duplicate ids to be rejected")
	}
}

func TestPreset_Validate(t *testing.T) {
	base := Placeholder()

	cases := []struct {
		name   string
		mutate func(p *Preset)
		want   error
	}{
		{"zero rounds", func(p *Preset) { p.RoundCount = 0 }, ErrInvalidRoundCount},
		{"zero min players", func(p *Preset) { p.MinPlayers = 0 }, ErrInvalidMinPlayers},
		{"max below min", func(p *Preset) { p.MinPlayers = 3; p.MaxPlayers = 2 }, ErrInvalidMaxPlayers},
		{"no options", func(p *Preset) { p.Options = nil }, ErrNoOptions},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.Options = append([]ScoreOption(nil), base.Options...)
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPreset_SuggestedName(t *testing.T) {
	p := Preset{DefaultPlayerNames: []string{"Home", ""}}

	if got := p.SuggestedName(0); got != "Home" {
		t.Errorf("Expected Home, got %s", got)
	}
	if got := p.SuggestedName(1); got != "Player 2" {
		t.Errorf("Expected fallback for empty default, got %s", got)
	}
	if got := p.SuggestedName(4); got != "Player 5" {
		t.Errorf("Expected Player 5, got %s", got)
	}
}

func TestPreset_DefaultDraft(t *testing.T) {
	lib := Library()

	chess, _ := lib.Lookup("chess")
	if got := chess.DefaultDraft(); len(got) != 4 {
		t.Errorf("Chess has no max, expected all 4 defaults, got %v", got)
	}

	p := Preset{MinPlayers: 3, MaxPlayers: 3, DefaultPlayerNames: []string{"A"}}
	got := p.DefaultDraft()
	want := []string{"A", "Player 2", "Player 3"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}

	p = Preset{MinPlayers: 1, MaxPlayers: 2, DefaultPlayerNames: []string{"A", "B", "C"}}
	if got := p.DefaultDraft(); len(got) != 2 {
		t.Errorf("Expected draft truncated to max, got %v", got)
	}
}

func TestPreset_RosterBounds(t *testing.T) {
	football, _ := Library().Lookup("football")
	if football.CanAddPlayer(2) {
		t.Error("Football is capped at two players")
	}
	if football.CanRemovePlayer(2) {
		t.Error("Football needs at least two players")
	}

	chess, _ := Library().Lookup("chess")
	if !chess.CanAddPlayer(100) {
		t.Error("Chess has no player cap")
	}
	if !chess.CanRemovePlayer(3) {
		t.Error("Chess roster of 3 may shrink to 2")
	}
}

func TestPreset_Option(t *testing.T) {
	p := Placeholder()
	if _, ok := p.Option(0); !ok {
		t.Error("Expected option 0")
	}
	if _, ok := p.Option(1); ok {
		t.Error("Option 1 does not exist")
	}
	if _, ok := p.Option(-1); ok {
		t.Error("Negative index should not resolve")
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandKnownCodes(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string]string{
		"BO": "Breakout",
		"LA": "Labyrinth",
		"RO": "Asteroids",
		"TT": "Tappytime",
	}
	for code, want := range cases {
		if got := c.Expand(code); got != want {
			t.Fatalf("Expand(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestExpandUnknownCodePassesThrough(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Expand("ZZ"); got != "ZZ" {
		t.Fatalf("Expand(ZZ) = %q, want pass-through", got)
	}
	if got := c.Expand("Breakout"); got != "Breakout" {
		t.Fatalf("Expand(Breakout) = %q, want pass-through", got)
	}
}

func TestGameID(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, ok := c.GameID("Tappytime")
	if !ok || id != 5 {
		t.Fatalf("GameID(Tappytime) = %d,%v", id, ok)
	}
	if _, ok := c.GameID("Pong"); ok {
		t.Fatalf("expected Pong to be unknown")
	}
}

func TestGamesSortedByName(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	games := c.Games()
	if len(games) != c.Size() {
		t.Fatalf("len(Games) = %d, Size = %d", len(games), c.Size())
	}
	for i := 1; i < len(games); i++ {
		if games[i-1].Name > games[i].Name {
			t.Fatalf("games not sorted: %q before %q", games[i-1].Name, games[i].Name)
		}
	}
}

func TestOverrideFileReplacesEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.yaml")
	body := "games:\n  - code: PG\n    name: Pong\n    id: 9\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("Size = %d, want 1", c.Size())
	}
	if got := c.Expand("PG"); got != "Pong" {
		t.Fatalf("Expand(PG) = %q", got)
	}
	if got := c.Expand("BO"); got != "BO" {
		t.Fatalf("embedded entries should be gone, Expand(BO) = %q", got)
	}
}

func TestRejectsEmptyCatalog(t *testing.T) {
	if _, err := parse([]byte("games: []\n")); err == nil {
		t.Fatalf("expected error for empty catalog")
	}
}

package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultFiles embed.FS

// Entry is one cataloged game: the short code machines send, the canonical
// name, and the numeric id the scores table references.
type Entry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	ID   int64  `yaml:"id"`
}

// Catalog is the fixed set of games. Loaded once at startup and read-only
// afterwards; safe for concurrent use.
type Catalog struct {
	entries []Entry
	byCode  map[string]string
	byName  map[string]int64
}

type catalogFile struct {
	Games []Entry `yaml:"games"`
}

// New loads the embedded game list and, if path is non-empty, replaces it
// with the entries from that file.
func New(path string) (*Catalog, error) {
	raw, err := fs.ReadFile(defaultFiles, "games.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
	}
	return parse(raw)
}

func parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Games) == 0 {
		return nil, fmt.Errorf("catalog has no games")
	}
	c := &Catalog{
		byCode: make(map[string]string, len(f.Games)),
		byName: make(map[string]int64, len(f.Games)),
	}
	for _, e := range f.Games {
		e.Code = strings.TrimSpace(e.Code)
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" || e.ID <= 0 {
			return nil, fmt.Errorf("catalog entry %q: name and positive id required", e.Code)
		}
		if e.Code != "" {
			c.byCode[e.Code] = e.Name
		}
		c.byName[e.Name] = e.ID
		c.entries = append(c.entries, e)
	}
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Name < c.entries[j].Name })
	return c, nil
}

// Expand translates a short game code to its canonical name. Unknown codes
// pass through unchanged.
func (c *Catalog) Expand(code string) string {
	if name, ok := c.byCode[code]; ok {
		return name
	}
	return code
}

// GameID resolves a canonical game name to its numeric id.
func (c *Catalog) GameID(name string) (int64, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Size returns the number of cataloged games.
func (c *Catalog) Size() int { return len(c.entries) }

// Games returns the entries sorted by canonical name.
func (c *Catalog) Games() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

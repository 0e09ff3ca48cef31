package scores

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arcadelab/high-score-processor/internal/catalog"
)

// RawScore is one entry of a high-score payload. Machines send either the
// object form {"g":"BO","s":500,"d":30} or the positional triple
// ["BO",500,30]; both decode into the same struct.
type RawScore struct {
	Game     string `json:"g"`
	Score    int64  `json:"s"`
	Duration int64  `json:"d"`
}

func (r *RawScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		if len(parts) != 3 {
			return fmt.Errorf("score triple has %d elements, want 3", len(parts))
		}
		if err := json.Unmarshal(parts[0], &r.Game); err != nil {
			return fmt.Errorf("score triple game: %w", err)
		}
		if err := json.Unmarshal(parts[1], &r.Score); err != nil {
			return fmt.Errorf("score triple score: %w", err)
		}
		if err := json.Unmarshal(parts[2], &r.Duration); err != nil {
			return fmt.Errorf("score triple duration: %w", err)
		}
		return nil
	}

	type plain RawScore
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RawScore(p)
	return nil
}

// NormalizedScore is a raw entry with its game code expanded to the
// canonical name.
type NormalizedScore struct {
	Game     string
	Score    int64
	Duration int64
}

// Normalize expands abbreviated game codes through the catalog. Unknown
// codes pass through unchanged; they are rejected later at insert time.
func Normalize(cat *catalog.Catalog, raws []RawScore) []NormalizedScore {
	out := make([]NormalizedScore, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizedScore{
			Game:     cat.Expand(r.Game),
			Score:    r.Score,
			Duration: r.Duration,
		})
	}
	return out
}

// Order sorts records by canonical game name, keeping the submission order
// within a game. Grouping same-game records lets the persister fetch the
// existing-score list once per game instead of once per record; the final
// persisted state does not depend on the order.
func Order(records []NormalizedScore) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Game < records[j].Game })
}

// groupByGame partitions ordered records into runs sharing a game name.
func groupByGame(records []NormalizedScore) [][]NormalizedScore {
	var groups [][]NormalizedScore
	start := 0
	for i := 1; i <= len(records); i++ {
		if i == len(records) || records[i].Game != records[start].Game {
			groups = append(groups, records[start:i])
			start = i
		}
	}
	return groups
}

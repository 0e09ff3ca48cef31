package challenge

import "github.com/arcadelab/high-score-processor/internal/store"

// Participant is one side of a decided challenge, carried only long enough
// to write the winner and build the announcement.
type Participant struct {
	DiscordUserID string
	Score         int64
	Duration      int64
}

// Outcome applies the head-to-head rule to the two submitted scores:
// higher score wins; on equal scores the lower duration wins; a full tie
// has no winner and ok is false.
func Outcome(c *store.Challenge, challenger, challengee *store.ScoreRecord) (winner, loser Participant, ok bool) {
	a := Participant{DiscordUserID: c.ChallengerDiscordID, Score: challenger.Score, Duration: challenger.Duration}
	b := Participant{DiscordUserID: c.ChallengeeDiscordID, Score: challengee.Score, Duration: challengee.Duration}

	switch {
	case a.Score > b.Score:
		return a, b, true
	case a.Score < b.Score:
		return b, a, true
	case a.Duration < b.Duration:
		return a, b, true
	case a.Duration > b.Duration:
		return b, a, true
	default:
		return Participant{}, Participant{}, false
	}
}

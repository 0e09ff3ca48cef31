package scores

import (
	"context"
	"testing"

	"github.com/arcadelab/high-score-processor/internal/store"
)

type fakeScoreStore struct {
	records []store.ScoreRecord
	nextID  int64
	fetches map[string]int
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{nextID: 1, fetches: map[string]int{}}
}

func (f *fakeScoreStore) ScoresFor(_ context.Context, userUUID, macAddress, gameName string) ([]store.ScoreRecord, error) {
	f.fetches[gameName]++
	var out []store.ScoreRecord
	for _, r := range f.records {
		if r.UserUUID == userUUID && r.MacAddress == macAddress && r.GameName == gameName {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeScoreStore) InsertScore(_ context.Context, gameID int64, userUUID, macAddress, gameName string, score, duration int64) (int64, error) {
	id := f.nextID
	f.nextID++
	f.records = append(f.records, store.ScoreRecord{
		ID: id, GameID: gameID, GameName: gameName,
		UserUUID: userUUID, MacAddress: macAddress,
		Score: score, Duration: duration,
	})
	return id, nil
}

func (f *fakeScoreStore) GameIDByName(_ context.Context, _ string) (int64, bool, error) {
	return 0, false, nil
}

type fakeChecker struct{ calls int }

func (f *fakeChecker) Check(context.Context, string, string) error {
	f.calls++
	return nil
}

const (
	testUser = "4c7f2a1e-8d3b-4f6a-9c5e-1b2d3f4a5c6e"
	testMac  = "aa:bb:cc:dd:ee:ff"
)

func TestIdempotentInsertion(t *testing.T) {
	st := newFakeScoreStore()
	svc := NewService(st, testCatalog(t), nil)
	batch := []RawScore{{Game: "Breakout", Score: 500, Duration: 30}}

	res, err := svc.ProcessHighScores(context.Background(), testUser, testMac, batch)
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if len(res.InsertedIDs) != 1 {
		t.Fatalf("first batch inserted %d, want 1", len(res.InsertedIDs))
	}

	res, err = svc.ProcessHighScores(context.Background(), testUser, testMac, batch)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if len(res.InsertedIDs) != 0 || res.Duplicates != 1 {
		t.Fatalf("second batch: %+v, want duplicate skip", res)
	}
	if len(st.records) != 1 {
		t.Fatalf("store holds %d records, want 1", len(st.records))
	}
}

func TestDuplicateWithinOneBatch(t *testing.T) {
	st := newFakeScoreStore()
	svc := NewService(st, testCatalog(t), nil)
	batch := []RawScore{
		{Game: "BO", Score: 500, Duration: 30},
		{Game: "Breakout", Score: 500, Duration: 30},
	}
	res, err := svc.ProcessHighScores(context.Background(), testUser, testMac, batch)
	if err != nil {
		t.Fatalf("ProcessHighScores: %v", err)
	}
	if len(res.InsertedIDs) != 1 || res.Duplicates != 1 {
		t.Fatalf("got %+v, want one insert and one duplicate", res)
	}
}

func TestExistingListFetchedOncePerGame(t *testing.T) {
	st := newFakeScoreStore()
	svc := NewService(st, testCatalog(t), nil)
	batch := []RawScore{
		{Game: "Labyrinth", Score: 1, Duration: 1},
		{Game: "Breakout", Score: 2, Duration: 2},
		{Game: "Labyrinth", Score: 3, Duration: 3},
		{Game: "RO", Score: 4, Duration: 4},
		{Game: "Breakout", Score: 5, Duration: 5},
	}
	if _, err := svc.ProcessHighScores(context.Background(), testUser, testMac, batch); err != nil {
		t.Fatalf("ProcessHighScores: %v", err)
	}
	for _, game := range []string{"Asteroids", "Breakout", "Labyrinth"} {
		if got := st.fetches[game]; got != 1 {
			t.Fatalf("fetched %q %d times, want 1", game, got)
		}
	}
	if len(st.records) != 5 {
		t.Fatalf("store holds %d records, want 5", len(st.records))
	}
}

func TestUnknownGameSkipped(t *testing.T) {
	st := newFakeScoreStore()
	checker := &fakeChecker{}
	svc := NewService(st, testCatalog(t), checker)
	batch := []RawScore{{Game: "Pong", Score: 100, Duration: 10}}

	res, err := svc.ProcessHighScores(context.Background(), testUser, testMac, batch)
	if err != nil {
		t.Fatalf("ProcessHighScores: %v", err)
	}
	if res.UnknownGames != 1 || len(res.InsertedIDs) != 0 {
		t.Fatalf("got %+v, want one unknown-game skip", res)
	}
	if len(st.records) != 0 {
		t.Fatalf("nothing should be persisted for an unknown game")
	}
	if checker.calls != 0 {
		t.Fatalf("achievement check must not run on a skipped record")
	}
}

func TestAchievementCheckedPerInsert(t *testing.T) {
	st := newFakeScoreStore()
	checker := &fakeChecker{}
	svc := NewService(st, testCatalog(t), checker)
	batch := []RawScore{
		{Game: "BO", Score: 1, Duration: 1},
		{Game: "LA", Score: 2, Duration: 2},
		{Game: "BO", Score: 1, Duration: 1}, // duplicate, no check
	}
	if _, err := svc.ProcessHighScores(context.Background(), testUser, testMac, batch); err != nil {
		t.Fatalf("ProcessHighScores: %v", err)
	}
	if checker.calls != 2 {
		t.Fatalf("achievement checked %d times, want 2", checker.calls)
	}
}

func TestEmptyBatchIsNoop(t *testing.T) {
	st := newFakeScoreStore()
	svc := NewService(st, testCatalog(t), nil)
	res, err := svc.ProcessHighScores(context.Background(), testUser, testMac, nil)
	if err != nil {
		t.Fatalf("ProcessHighScores: %v", err)
	}
	if len(res.InsertedIDs) != 0 || len(st.fetches) != 0 {
		t.Fatalf("empty batch should touch nothing: %+v", res)
	}
}

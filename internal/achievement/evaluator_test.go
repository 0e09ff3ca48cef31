package achievement

import (
	"context"
	"errors"
	"testing"
)

type fakeCompletionStore struct {
	total  int64
	played int64
	err    error
}

func (f *fakeCompletionStore) PlayedGameCounts(context.Context, string, string) (int64, int64, error) {
	return f.total, f.played, f.err
}

type fakeRecorder struct {
	calls []recorded
}

type recorded struct {
	userUUID string
	eventID  int64
	code     string
}

func (f *fakeRecorder) RecordAchievement(_ context.Context, userUUID, _ string, eventID int64, code string) error {
	f.calls = append(f.calls, recorded{userUUID: userUUID, eventID: eventID, code: code})
	return nil
}

func TestCheckRecordsWhenAllGamesPlayed(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewEvaluator(&fakeCompletionStore{total: 4, played: 4}, rec)

	if err := e.Check(context.Background(), "user-1", "mac-1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("recorded %d achievements, want 1", len(rec.calls))
	}
	got := rec.calls[0]
	if got.code != AroundTheWorldCode || got.eventID != AroundTheWorldEventID || got.userUUID != "user-1" {
		t.Fatalf("recorded %+v", got)
	}
}

func TestCheckSkipsWhenGamesMissing(t *testing.T) {
	rec := &fakeRecorder{}
	e := NewEvaluator(&fakeCompletionStore{total: 4, played: 3}, rec)

	if err := e.Check(context.Background(), "user-1", "mac-1"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("nothing should be recorded, got %+v", rec.calls)
	}
}

func TestCheckRefiresOnRepeatedCompletion(t *testing.T) {
	// Re-firing is the specified behavior; the recorder deduplicates.
	rec := &fakeRecorder{}
	e := NewEvaluator(&fakeCompletionStore{total: 4, played: 4}, rec)

	for i := 0; i < 3; i++ {
		if err := e.Check(context.Background(), "user-1", "mac-1"); err != nil {
			t.Fatalf("Check #%d: %v", i, err)
		}
	}
	if len(rec.calls) != 3 {
		t.Fatalf("recorded %d times, want 3", len(rec.calls))
	}
}

func TestCheckPropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEvaluator(&fakeCompletionStore{err: boom}, &fakeRecorder{})
	if err := e.Check(context.Background(), "user-1", "mac-1"); !errors.Is(err, boom) {
		t.Fatalf("got %v, want store error", err)
	}
}

func TestCompleted(t *testing.T) {
	e := NewEvaluator(&fakeCompletionStore{total: 4, played: 4}, nil)
	done, err := e.Completed(context.Background(), "user-1", "mac-1")
	if err != nil || !done {
		t.Fatalf("Completed = %v, %v", done, err)
	}

	e = NewEvaluator(&fakeCompletionStore{total: 4, played: 0}, nil)
	done, err = e.Completed(context.Background(), "user-1", "mac-1")
	if err != nil || done {
		t.Fatalf("Completed = %v, %v, want false", done, err)
	}
}

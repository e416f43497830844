package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/truthlens/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(user string, kind model.Kind, content string, confidence int, remote bool, at time.Time) model.HistoryEntry {
	req := model.NewRequest(kind, content)
	res := model.AnalysisResult{
		ID:              "res-" + content,
		Confidence:      confidence,
		UsedRemoteModel: remote,
		Issues:          []string{"issue"},
		SyntheticStats:  true,
	}
	return model.NewHistoryEntry("", user, req, res, at)
}

func TestStore_SaveGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	saved, err := s.Save(ctx, entry("alice", model.KindURL, "https://example.com/a", 73, true, at))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.Get(ctx, "alice", saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("created_at %v, want %v", got.CreatedAt, at)
	}
	if got.Title != "Url Analysis (AI-Powered) - 73% Credible" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if got.Result.Confidence != 73 || len(got.Result.Issues) != 1 {
		t.Errorf("result not restored: %+v", got.Result)
	}

	if _, err := s.Get(ctx, "bob", saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other users must not see the entry, got %v", err)
	}
}

func TestStore_ListNewestFirstAndFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	inputs := []model.HistoryEntry{
		entry("alice", model.KindText, "Vaccine study from a university", 80, true, base),
		entry("alice", model.KindURL, "https://news.example/story", 40, false, base.Add(time.Minute)),
		entry("alice", model.KindVideo, "https://youtu.be/abc", 55, false, base.Add(2*time.Minute)),
		entry("bob", model.KindText, "Bob's text", 60, false, base.Add(3*time.Minute)),
	}
	for _, e := range inputs {
		if _, err := s.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, model.HistoryFilter{User: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Kind != model.KindVideo || all[2].Kind != model.KindText {
		t.Errorf("expected newest first, got %s..%s", all[0].Kind, all[2].Kind)
	}

	tests := []struct {
		name   string
		filter model.HistoryFilter
		want   int
	}{
		{"by kind", model.HistoryFilter{User: "alice", Kind: model.KindURL}, 1},
		{"search content case-insensitive", model.HistoryFilter{User: "alice", Search: "UNIVERSITY"}, 1},
		{"search title", model.HistoryFilter{User: "alice", Search: "fallback"}, 2},
		{"limit", model.HistoryFilter{User: "alice", Limit: 2}, 2},
		{"no match", model.HistoryFilter{User: "alice", Search: "nothing here"}, 0},
		{"other user", model.HistoryFilter{User: "bob"}, 1},
		{"unknown user", model.HistoryFilter{User: "carol"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _ := s.Save(ctx, entry("alice", model.KindText, "one", 50, false, time.Now()))
	_, _ = s.Save(ctx, entry("alice", model.KindText, "two", 50, false, time.Now()))
	_, _ = s.Save(ctx, entry("bob", model.KindText, "three", 50, false, time.Now()))

	if err := s.Delete(ctx, "alice", a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "alice", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should be ErrNotFound, got %v", err)
	}

	n, err := s.Clear(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 cleared, got %d", n)
	}

	if c, _ := s.Count(ctx, "bob"); c != 1 {
		t.Errorf("clear must not touch other users, bob has %d", c)
	}
}

func TestStore_SaveRequiresUser(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save(context.Background(), model.HistoryEntry{}); err == nil {
		t.Error("expected error for entry without user")
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := s.Save(context.Background(), entry("alice", model.KindText, "persist me", 61, false, time.Now()))
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Get(context.Background(), "alice", saved.ID); err != nil {
		t.Errorf("entry lost across reopen: %v", err)
	}
}

func TestStore_SearchFoldsNonASCII(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.Save(ctx, entry("alice", model.KindText, "ÉCOLE PRIVÉE ferme", 40, false, now)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, entry("alice", model.KindText, "Straße gesperrt", 55, false, now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, entry("alice", model.KindText, "école du soir", 60, false, now.Add(2*time.Second))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"école", 2},
		{"ÉCOLE", 2},
		{"privée", 1},
		{"STRASSE", 0},
		{"STRAßE", 1},
		{"ferme", 1},
	}
	for _, tt := range tests {
		got, err := s.List(ctx, model.HistoryFilter{User: "alice", Search: tt.query})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("search %q: got %d entries, want %d", tt.query, len(got), tt.want)
		}
	}

	limited, err := s.List(ctx, model.HistoryFilter{User: "alice", Search: "école", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Content != "école du soir" {
		t.Errorf("limit should keep the newest match, got %+v", limited)
	}
}

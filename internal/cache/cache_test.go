package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/truthlens/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("openai", "llama-3.1-8b-instant", "some text")
	b := Key("OpenAI", "llama-3.1-8b-instant", "some text")
	c := Key("openai", "llama-3.1-70b", "some text")

	if !strings.HasPrefix(a, KeyPrefix) {
		t.Errorf("key %s missing prefix", a)
	}
	if a != b {
		t.Error("provider name should be case-insensitive")
	}
	if a == c {
		t.Error("different models must not share a key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss")
	}
	_ = c.Set("k", []byte("v"), 0)
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q %v", got, ok)
	}
	_ = c.Clear()
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("openai", "m", "content")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != "payload" {
		t.Fatalf("expected payload, got %q %v", got, ok)
	}

	if err := c.Set("expired", []byte("old"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("expired"); ok {
		t.Error("expired entry must miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "expired.json")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed on read")
	}

	if err := c.Delete("never-written"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}

func TestDiskCache_Purge(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	_ = c.Set("live", []byte("a"), 0)
	_ = c.Set("dead", []byte("b"), -time.Minute)

	n, err := c.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
	if _, ok := c.Get("live"); !ok {
		t.Error("live entry should survive purge")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	first := NewLayeredCache(time.Minute, dir, time.Hour)
	_ = first.Set("k", []byte("v"), 0)

	// A fresh process sees only the disk layer
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	if got, ok := second.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := second.memory.Get("k"); !ok {
		t.Error("disk hit should be promoted to memory")
	}
}

func TestAssessmentCache(t *testing.T) {
	ac := NewAssessmentCache(NewLayeredCache(time.Minute, t.TempDir(), time.Hour), 0)

	if _, ok := ac.Lookup("openai", "m", "text"); ok {
		t.Fatal("expected miss")
	}

	a := Assessment{Provider: "openai", Model: "m", Narrative: "Credibility Score: 77/100"}
	if err := ac.Store("openai", "m", "text", a); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := ac.Lookup("openai", "m", "text")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Narrative != a.Narrative || got.StoredAt.IsZero() {
		t.Errorf("unexpected entry %+v", got)
	}

	served := Assessment{Provider: "openai", Model: "m-2025-01", Narrative: "Credibility Score: 60/100"}
	if err := ac.Store("openai", "m", "served", served); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if got, ok := ac.Lookup("openai", "m", "served"); !ok || got.Model != "m-2025-01" {
		t.Errorf("entry should be found by configured model and keep the serving model, got %+v ok=%v", got, ok)
	}

	if _, ok := ac.Lookup("openai", "m", "other text"); ok {
		t.Error("different content must miss")
	}

	if err := ac.Store("openai", "m", "text", Assessment{Provider: "openai", Model: "m"}); err == nil {
		t.Error("empty narrative must be rejected")
	}
}

func TestAssessmentCache_NilIsDisabled(t *testing.T) {
	var ac *AssessmentCache
	if _, ok := ac.Lookup("p", "m", "c"); ok {
		t.Error("nil cache must miss")
	}
	if err := ac.Store("p", "m", "c", Assessment{Narrative: "x"}); err != nil {
		t.Errorf("nil cache store should be a no-op, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	if FromConfig(model.CacheConfig{Enabled: false}) != nil {
		t.Error("disabled config must yield nil cache")
	}
	if FromConfig(model.CacheConfig{Enabled: true, Dir: t.TempDir()}) == nil {
		t.Error("enabled config must yield a cache")
	}
}

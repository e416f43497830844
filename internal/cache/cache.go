package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/truthlens/internal/model"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces cache keys; bump the version when Assessment changes shape
const KeyPrefix = "truthlens:v1:"

// Cache defines the interface for byte caches
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one (provider, model, content) triple
func Key(provider, modelName, content string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(provider)))
	h.Write([]byte{'|'})
	h.Write([]byte(modelName))
	h.Write([]byte{'|'})
	h.Write([]byte(content))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Assessment is a successful model answer worth reusing
type Assessment struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Narrative string    `json:"narrative"`
	StoredAt  time.Time `json:"stored_at"`
}

// AssessmentCache stores model answers keyed by provider, model and content.
// Fallback results are never stored.
type AssessmentCache struct {
	store Cache
	ttl   time.Duration
}

// NewAssessmentCache wraps a byte cache
func NewAssessmentCache(store Cache, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{store: store, ttl: ttl}
}

// FromConfig builds the layered cache, or returns nil when caching is off
func FromConfig(cfg model.CacheConfig) *AssessmentCache {
	if !cfg.Enabled {
		return nil
	}

	memoryTTL := time.Duration(cfg.MemoryTTLMinutes) * time.Minute
	diskTTL := time.Duration(cfg.DiskTTLHours) * time.Hour
	if memoryTTL <= 0 {
		memoryTTL = time.Hour
	}
	if diskTTL <= 0 {
		diskTTL = 24 * time.Hour
	}

	return NewAssessmentCache(NewLayeredCache(memoryTTL, cfg.Dir, diskTTL), 0)
}

// Lookup returns a cached assessment. Undecodable entries are dropped.
func (c *AssessmentCache) Lookup(provider, modelName, content string) (Assessment, bool) {
	if c == nil {
		return Assessment{}, false
	}

	key := Key(provider, modelName, content)
	data, ok := c.store.Get(key)
	if !ok {
		return Assessment{}, false
	}

	var a Assessment
	if err := json.Unmarshal(data, &a); err != nil || a.Narrative == "" {
		logrus.WithField("key", key).Debug("dropping unreadable cache entry")
		_ = c.store.Delete(key)
		return Assessment{}, false
	}
	return a, true
}

// Store saves an assessment for content under the configured provider and
// model. The assessment keeps the model that actually answered.
func (c *AssessmentCache) Store(provider, modelName, content string, a Assessment) error {
	if c == nil {
		return nil
	}
	if a.Narrative == "" {
		return fmt.Errorf("refusing to cache an empty narrative")
	}
	if a.StoredAt.IsZero() {
		a.StoredAt = time.Now().UTC()
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return c.store.Set(Key(provider, modelName, content), data, c.ttl)
}

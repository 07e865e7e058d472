package store

import (
	"sync"

	"github.com/AngelCh415/marketing-intel-go/internal/models"
)

// MemoryStore holds the current input batch. Readers get copies, so a
// snapshot stays immutable while ingest keeps appending.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[models.Platform][]models.ChannelRecord
	business []models.BusinessRecord
	seen     map[string]struct{} // idempotencia por-record
	version  uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		channels: make(map[models.Platform][]models.ChannelRecord),
		seen:     make(map[string]struct{}),
	}
}

// MarkSeen records key and reports whether it was new.
func (s *MemoryStore) MarkSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *MemoryStore) AddChannel(rec models.ChannelRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[rec.Platform] = append(s.channels[rec.Platform], rec)
	s.version++
}

// AddBusiness appends a business record. Several records for one date are
// all kept; the combiner resolves them last-write-wins.
func (s *MemoryStore) AddBusiness(b models.BusinessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business = append(s.business, b)
	s.version++
}

// Replace swaps the whole batch for ds; seen becomes the new set of known
// keys and every earlier key is forgotten.
func (s *MemoryStore) Replace(ds models.Dataset, seen []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = map[models.Platform][]models.ChannelRecord{
		models.Facebook: append([]models.ChannelRecord(nil), ds.Facebook...),
		models.Google:   append([]models.ChannelRecord(nil), ds.Google...),
		models.TikTok:   append([]models.ChannelRecord(nil), ds.TikTok...),
	}
	s.business = append([]models.BusinessRecord(nil), ds.Business...)
	s.seen = make(map[string]struct{}, len(seen))
	for _, k := range seen {
		s.seen[k] = struct{}{}
	}
	s.version++
}

// Snapshot returns a copy of the batch.
func (s *MemoryStore) Snapshot() models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Dataset{
		Facebook: append([]models.ChannelRecord(nil), s.channels[models.Facebook]...),
		Google:   append([]models.ChannelRecord(nil), s.channels[models.Google]...),
		TikTok:   append([]models.ChannelRecord(nil), s.channels[models.TikTok]...),
		Business: append([]models.BusinessRecord(nil), s.business...),
	}
}

// Version changes on every write.
func (s *MemoryStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Counts returns the number of records per source.
func (s *MemoryStore) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int{"business": len(s.business)}
	for _, p := range models.AdPlatforms {
		out[string(p)] = len(s.channels[p])
	}
	return out
}

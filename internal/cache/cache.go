package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is a decoded resource, ready for keyword counting.
type Entry struct {
	StatusCode  int
	ContentType string
	Encoding    string
	Method      string
	Text        string
}

// Store keeps decoded resources keyed by URL for the lifetime of a run.
// A nil *Store is valid and caches nothing.
type Store struct {
	items *gocache.Cache
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		return nil
	}
	return &Store{items: gocache.New(ttl, 2*ttl)}
}

func (s *Store) Get(url string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	v, ok := s.items.Get(url)
	if !ok {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	return entry, ok
}

func (s *Store) Set(url string, entry Entry) {
	if s == nil {
		return
	}
	s.items.SetDefault(url, entry)
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.items.ItemCount()
}

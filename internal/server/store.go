package server

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"llamaconv/pkg/conversion"
)

type conversionEntry struct {
	ID        string
	Data      conversion.Data
	Pipeline  *conversion.Pipeline
	CreatedAt time.Time

	cancel context.CancelFunc
}

// conversionStore keeps the most recent conversions. Evicting a conversion that is still running cancels it.
type conversionStore struct {
	cache *lru.Cache
	wg    sync.WaitGroup
}

func newConversionStore(size int) (*conversionStore, error) {
	cache, err := lru.NewWithEvict(size, func(_ interface{}, value interface{}) {
		value.(*conversionEntry).cancel()
	})
	if err != nil {
		return nil, err
	}
	return &conversionStore{cache: cache}, nil
}

// start runs the entry's pipeline with input in the background, onDone is called once it returns.
func (s *conversionStore) start(entry *conversionEntry, input any, onDone func(*conversionEntry, any, error)) {
	ctx, cancel := context.WithCancel(context.Background())
	entry.cancel = cancel
	s.cache.Add(entry.ID, entry)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		result, err := entry.Pipeline.Run(ctx, input)
		onDone(entry, result, err)
	}()
}

func (s *conversionStore) get(id string) (*conversionEntry, bool) {
	value, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	return value.(*conversionEntry), true
}

func (s *conversionStore) cancel(id string) (*conversionEntry, bool) {
	entry, found := s.get(id)
	if !found {
		return nil, false
	}
	entry.cancel()
	return entry, true
}

// close cancels every conversion and waits for them to stop.
func (s *conversionStore) close() {
	for _, key := range s.cache.Keys() {
		if value, found := s.cache.Peek(key); found {
			value.(*conversionEntry).cancel()
		}
	}
	s.wg.Wait()
}

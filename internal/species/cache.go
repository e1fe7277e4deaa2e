package species

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const catalogKey = "catalog"

// catalogCache keeps the full registry indexed by id. The registry is small
// and changes rarely, so one entry with a TTL serves every heatmap build.
//
// Every invalidate bumps the generation. A load that read the store before
// an invalidate cannot publish its result afterwards.
type catalogCache struct {
	mu  sync.Mutex
	gen uint64
	c   *gocache.Cache
}

func newCatalogCache(ttl time.Duration) *catalogCache {
	return &catalogCache{c: gocache.New(ttl, 2*ttl)}
}

func (cc *catalogCache) get() (map[uuid.UUID]Species, uint64, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	v, ok := cc.c.Get(catalogKey)
	if !ok {
		return nil, cc.gen, false
	}
	return v.(map[uuid.UUID]Species), cc.gen, true
}

// put indexes items and caches the index unless the cache was invalidated
// since gen was observed.
func (cc *catalogCache) put(gen uint64, items []Species) map[uuid.UUID]Species {
	index := make(map[uuid.UUID]Species, len(items))
	for _, s := range items {
		index[s.ID] = s
	}

	cc.mu.Lock()
	if gen == cc.gen {
		cc.c.SetDefault(catalogKey, index)
	}
	cc.mu.Unlock()
	return index
}

func (cc *catalogCache) invalidate() {
	cc.mu.Lock()
	cc.gen++
	cc.c.Delete(catalogKey)
	cc.mu.Unlock()
}

package cache

import (
	"encoding/json"
	"time"

	"github.com/everFinance/nftsync/schema"
)

const metadataKeyPrefix = "metadata:"

type Cache struct {
	Cache ICache
}

type ICache interface {
	Set(key string, entry []byte) error

	Get(key string) ([]byte, error)

	Delete(key string) error
}

func NewLocalCache(allKeysExpTime time.Duration) (*Cache, error) {
	cache, err := NewBigCache(allKeysExpTime)
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: cache}, nil
}

// SetMetadata caches a resolved document under the uri it was fetched from.
func (c *Cache) SetMetadata(uri string, meta schema.Metadata) error {
	by, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.Cache.Set(metadataKeyPrefix+uri, by)
}

func (c *Cache) GetMetadata(uri string) (schema.Metadata, bool) {
	meta := schema.Metadata{}
	by, err := c.Cache.Get(metadataKeyPrefix + uri)
	if err != nil {
		return meta, false
	}
	if err = json.Unmarshal(by, &meta); err != nil {
		return meta, false
	}
	return meta, true
}

package cache

import (
	"testing"
	"time"

	"github.com/everFinance/nftsync/schema"
	"github.com/stretchr/testify/assert"
)

func TestNewLocalCache(t *testing.T) {
	cache, err := NewLocalCache(time.Second * 10)
	assert.NoError(t, err)

	err = cache.Cache.Set("test-key", []byte("test-data"))
	assert.NoError(t, err)
	data, err := cache.Cache.Get("test-key")
	assert.NoError(t, err)
	assert.Equal(t, "test-data", string(data))

	assert.NoError(t, cache.Cache.Delete("test-key"))
	_, err = cache.Cache.Get("test-key")
	assert.Error(t, err)
}

func TestCache_Metadata(t *testing.T) {
	cache, err := NewLocalCache(time.Minute)
	assert.NoError(t, err)

	_, ok := cache.GetMetadata("https://ipfs.io/ipfs/abc")
	assert.False(t, ok)

	meta := schema.Metadata{
		Name:       "Art #1",
		Image:      "https://ipfs.io/ipfs/img",
		Attributes: []schema.Attribute{{TraitType: "Background", Value: "Blue"}},
	}
	assert.NoError(t, cache.SetMetadata("https://ipfs.io/ipfs/abc", meta))
	got, ok := cache.GetMetadata("https://ipfs.io/ipfs/abc")
	assert.True(t, ok)
	assert.Equal(t, meta, got)
}

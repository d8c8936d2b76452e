package nftsync

import (
	"testing"

	"github.com/everFinance/nftsync/schema"
	"github.com/stretchr/testify/assert"
)

func TestSequencer(t *testing.T) {
	s := newSequencer()
	task := func(hash string) txTask {
		return txTask{intent: schema.IntentBurn, tx: schema.LedgerTx{Hash: hash}}
	}

	assert.True(t, s.push("AAA", task("H1")))
	assert.False(t, s.push("AAA", task("H2")))
	assert.True(t, s.push("BBB", task("H3")))
	assert.Equal(t, 3, s.size())

	got, ok := s.next("AAA")
	assert.True(t, ok)
	assert.Equal(t, "H1", got.tx.Hash)

	// the runner of AAA is still alive, no new one is needed
	assert.False(t, s.push("AAA", task("H4")))

	got, ok = s.next("AAA")
	assert.True(t, ok)
	assert.Equal(t, "H2", got.tx.Hash)
	got, ok = s.next("AAA")
	assert.True(t, ok)
	assert.Equal(t, "H4", got.tx.Hash)
	_, ok = s.next("AAA")
	assert.False(t, ok)

	// the key is gone, the next push starts a runner again
	assert.True(t, s.push("AAA", task("H5")))

	dropped := s.drop("BBB")
	assert.Len(t, dropped, 1)
	assert.Equal(t, 1, s.size())
}

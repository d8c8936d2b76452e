package nftsync

import (
	"sync"
	"sync/atomic"

	"github.com/everFinance/nftsync/schema"
)

type txTask struct {
	intent schema.Intent
	tx     schema.LedgerTx
	ids    []string // the token of this part, empty when the tx names none
	parts  *txParts
}

// txParts counts the per-token parts of one tx still running.
type txParts struct {
	remaining   int32
	interrupted int32
}

// done records one finished part. It reports true once the last part is done and
// none of them was interrupted.
func (p *txParts) done(finished bool) bool {
	if !finished {
		atomic.StoreInt32(&p.interrupted, 1)
	}
	return atomic.AddInt32(&p.remaining, -1) == 0 && atomic.LoadInt32(&p.interrupted) == 0
}

// sequencer keeps one FIFO queue per token id. At most one runner drains a key at a
// time, so txs touching the same token are applied in delivery order while different
// tokens proceed in parallel.
type sequencer struct {
	locker sync.Mutex
	queues map[string][]txTask
}

func newSequencer() *sequencer {
	return &sequencer{queues: make(map[string][]txTask)}
}

// push queues task under key; start reports whether the caller must start a runner.
func (s *sequencer) push(key string, task txTask) (start bool) {
	s.locker.Lock()
	defer s.locker.Unlock()
	q, ok := s.queues[key]
	s.queues[key] = append(q, task)
	return !ok
}

// next pops the head of key's queue. When the queue is empty the key is dropped and
// ok is false: the runner must stop.
func (s *sequencer) next(key string) (task txTask, ok bool) {
	s.locker.Lock()
	defer s.locker.Unlock()
	q := s.queues[key]
	if len(q) == 0 {
		delete(s.queues, key)
		return txTask{}, false
	}
	task = q[0]
	s.queues[key] = q[1:]
	return task, true
}

// drop removes key and returns what was still queued.
func (s *sequencer) drop(key string) []txTask {
	s.locker.Lock()
	defer s.locker.Unlock()
	q := s.queues[key]
	delete(s.queues, key)
	return q
}

func (s *sequencer) size() int {
	s.locker.Lock()
	defer s.locker.Unlock()
	n := 0
	for _, q := range s.queues {
		n += len(q)
	}
	return n
}

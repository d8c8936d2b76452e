package nftsync

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/everFinance/nftsync/cache"
	"github.com/everFinance/nftsync/common"
	"github.com/everFinance/nftsync/schema"
	"github.com/everFinance/nftsync/xrpl"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/panjf2000/ants/v2"
)

var log = common.NewLog("nftsync")

const (
	DefaultWorkers      = 16
	DefaultQueueSize    = 1024
	DefaultSettleDelay  = 3 * time.Second
	DefaultSettleRetry  = 3
	DefaultFetchTimeout = 20 * time.Second

	reconnectWait = 5 * time.Second
	metadataTTL   = 30 * time.Minute
)

// LedgerClient looks up ledger objects the stream messages only reference.
type LedgerClient interface {
	NFTInfo(id string) (schema.NFTInfo, error)
	GetTx(hash string) ([]byte, error)
}

type MetadataResolver interface {
	Resolve(hexUri string) schema.Metadata
}

type EventSource interface {
	Subscribe(ctx context.Context, streams ...string) (<-chan []byte, error)
	Err() error
}

type Options struct {
	Workers     int
	QueueSize   int
	SettleDelay time.Duration
	SettleRetry int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.SettleRetry <= 0 {
		o.SettleRetry = DefaultSettleRetry
	}
	return o
}

// Tracker follows one issuer/taxon pair on the ledger and keeps the tokens table in sync.
type Tracker struct {
	issuer string
	taxon  uint32
	opts   Options

	wdb      *Wdb
	store    *Store
	columns  *Columns
	resolver MetadataResolver
	ledger   LedgerClient
	source   EventSource
	kWriter  *KWriter

	pool      *ants.PoolWithFunc
	seq       *sequencer
	wg        sync.WaitGroup
	scheduler *gocron.Scheduler
	engine    *gin.Engine
	apiSrv    *http.Server

	// held for writing while stopping, so no Dispatch adds to wg after that
	stopLocker sync.RWMutex
	closeOnce  sync.Once

	lastLedger int64 // atomic

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg schema.Config) (*Tracker, error) {
	if cfg.Issuer == "" {
		return nil, schema.ErrInvalidIssuer
	}
	store, err := NewBoltStore(cfg.BoltDir)
	if err != nil {
		return nil, err
	}
	var wdb *Wdb
	if cfg.Mysql != "" {
		wdb = NewMysqlDb(cfg.Mysql)
	} else {
		wdb = NewSqliteDb(cfg.Sqlite)
	}
	if err = wdb.Migrate(); err != nil {
		return nil, err
	}
	columns, err := NewColumns(wdb)
	if err != nil {
		return nil, err
	}
	localCache, err := cache.NewLocalCache(metadataTTL)
	if err != nil {
		return nil, err
	}
	fetchTimeout := DefaultFetchTimeout
	if cfg.FetchTimeout > 0 {
		fetchTimeout = time.Duration(cfg.FetchTimeout) * time.Second
	}
	resolver := NewResolver(cfg.IpfsGw, cfg.ArNode, fetchTimeout, localCache)

	var kWriter *KWriter
	if cfg.Kafka.Start {
		if kWriter, err = NewKWriter(TokenEventTopic, cfg.Kafka.Uri); err != nil {
			return nil, err
		}
	}

	opts := Options{
		Workers:     cfg.Workers,
		QueueSize:   cfg.QueueSize,
		SettleDelay: time.Duration(cfg.SettleMs) * time.Millisecond,
		SettleRetry: cfg.SettleRetry,
	}
	if cfg.SettleMs == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	t, err := newTracker(cfg.Issuer, cfg.Taxon, wdb, store, columns, resolver,
		xrpl.NewClient(cfg.RpcNode, fetchTimeout), xrpl.NewStream(cfg.WsNode), opts)
	if err != nil {
		return nil, err
	}
	t.kWriter = kWriter
	return t, nil
}

func newTracker(
	issuer string, taxon uint32,
	wdb *Wdb, store *Store, columns *Columns,
	resolver MetadataResolver, ledger LedgerClient, source EventSource,
	opts Options,
) (*Tracker, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		issuer:    issuer,
		taxon:     taxon,
		opts:      opts,
		wdb:       wdb,
		store:     store,
		columns:   columns,
		resolver:  resolver,
		ledger:    ledger,
		source:    source,
		seq:       newSequencer(),
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    gin.Default(),
		ctx:       ctx,
		cancel:    cancel,
	}
	pool, err := ants.NewPoolWithFunc(opts.Workers, t.runKey, ants.WithMaxBlockingTasks(opts.QueueSize))
	if err != nil {
		cancel()
		return nil, err
	}
	t.pool = pool
	t.registerRoutes()
	atomic.StoreInt64(&t.lastLedger, store.LoadLastLedger())
	return t, nil
}

// Run recovers unfinished txs, subscribes to the ledger and starts jobs and api.
// A failed first subscription is returned; later disconnects are retried.
func (t *Tracker) Run(port string) error {
	t.recoverPending()

	msgs, err := t.source.Subscribe(t.ctx, xrpl.StreamTransactions)
	if err != nil {
		return err
	}
	go t.runStream(msgs)
	go t.runJobs()
	if port != "" {
		t.apiSrv = &http.Server{Addr: port, Handler: t.engine}
		go t.runAPI(t.apiSrv)
	}
	return nil
}

func (t *Tracker) runStream(msgs <-chan []byte) {
	for {
		for msg := range msgs {
			t.handleStreamMsg(msg)
		}
		if t.ctx.Err() != nil {
			return
		}
		log.Warn("ledger stream closed, reconnecting", "err", t.source.Err())

		for {
			select {
			case <-t.ctx.Done():
				return
			case <-time.After(reconnectWait):
			}
			var err error
			msgs, err = t.source.Subscribe(t.ctx, xrpl.StreamTransactions)
			if err == nil {
				break
			}
			log.Error("t.source.Subscribe(t.ctx, xrpl.StreamTransactions)", "err", err)
		}
	}
}

func (t *Tracker) handleStreamMsg(msg []byte) {
	tx, ok := schema.ParseStreamTx(msg)
	if !ok {
		return
	}
	if tx.Validated {
		t.updateLastLedger(tx.LedgerIndex)
	}
	if err := t.Dispatch(tx); err != nil {
		log.Error("t.Dispatch(tx)", "err", err, "hash", tx.Hash)
	}
}

func (t *Tracker) updateLastLedger(idx int64) {
	for {
		cur := atomic.LoadInt64(&t.lastLedger)
		if idx <= cur || atomic.CompareAndSwapInt64(&t.lastLedger, cur, idx) {
			return
		}
	}
}

func (t *Tracker) LastLedger() int64 {
	return atomic.LoadInt64(&t.lastLedger)
}

// Wait blocks until every dispatched tx has been processed.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) Close() {
	t.closeOnce.Do(t.close)
}

func (t *Tracker) close() {
	t.stopLocker.Lock()
	t.cancel()
	t.stopLocker.Unlock()
	t.wg.Wait()
	t.pool.Release()
	t.scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.shutdownAPI(ctx)
	cancel()
	t.saveCheckpoint()
	if t.kWriter != nil {
		t.kWriter.Close()
	}
	t.wdb.Close()
	if err := t.store.Close(); err != nil {
		log.Error("t.store.Close()", "err", err)
	}
}

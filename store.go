package nftsync

import (
	"strconv"

	"github.com/everFinance/nftsync/rawdb"
	"github.com/everFinance/nftsync/schema"
)

type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	Db, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: Db}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

// pending pool: relevant txs received but not yet fully processed

func (s *Store) PutPendingTx(hash string, raw []byte) error {
	return s.KVDb.Put(schema.PendingTxBucket, hash, raw)
}

func (s *Store) DelPendingTx(hash string) error {
	return s.KVDb.Delete(schema.PendingTxBucket, hash)
}

func (s *Store) IsPendingTx(hash string) bool {
	return s.KVDb.Exist(schema.PendingTxBucket, hash)
}

func (s *Store) LoadPendingTxs() (map[string][]byte, error) {
	res := make(map[string][]byte)
	err := s.KVDb.ForEach(schema.PendingTxBucket, func(key string, val []byte) error {
		res[key] = val
		return nil
	})
	return res, err
}

func (s *Store) CountPendingTxs() int {
	n, err := s.KVDb.Count(schema.PendingTxBucket)
	if err != nil {
		return 0
	}
	return n
}

// checkpoint

func (s *Store) SaveLastLedger(ledgerIndex int64) error {
	return s.KVDb.Put(schema.ConstantsBucket, schema.LastLedgerKey, []byte(strconv.FormatInt(ledgerIndex, 10)))
}

func (s *Store) LoadLastLedger() int64 {
	by, err := s.KVDb.Get(schema.ConstantsBucket, schema.LastLedgerKey)
	if err != nil {
		return 0
	}
	idx, err := strconv.ParseInt(string(by), 10, 64)
	if err != nil {
		return 0
	}
	return idx
}

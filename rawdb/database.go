package rawdb

type KeyValueDB interface {
	Put(bucket, key string, value interface{}) (err error)

	Get(bucket, key string) (data []byte, err error)

	GetAllKey(bucket string) (keys []string, err error)

	ForEach(bucket string, fn func(key string, val []byte) error) (err error)

	Count(bucket string) (n int, err error)

	Delete(bucket, key string) (err error)

	Close() (err error)

	Type() string

	Exist(bucket, key string) bool
}

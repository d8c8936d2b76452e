package schema

var (
	// bucket
	ConstantsBucket = "constants-bucket"

	// key: txHash, val: raw stream message of a relevant tx that has not been processed yet
	PendingTxBucket = "pending-tx-bucket"

	LastLedgerKey = "last-validated-ledger"
)

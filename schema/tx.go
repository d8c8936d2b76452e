package schema

import (
	"github.com/tidwall/gjson"
)

const (
	TxTypeMint        = "NFTokenMint"
	TxTypeBurn        = "NFTokenBurn"
	TxTypeAcceptOffer = "NFTokenAcceptOffer"

	EntryTypeTokenPage = "NFTokenPage"
	EntryTypeOffer     = "NFTokenOffer"

	ResultSuccess = "tesSUCCESS"

	StreamTypeTransaction = "transaction"
)

type Intent int

const (
	IntentNone Intent = iota
	IntentMint
	IntentAuthorizedMint
	IntentAcceptOffer
	IntentBurn
)

func (i Intent) String() string {
	switch i {
	case IntentMint:
		return "mint"
	case IntentAuthorizedMint:
		return "authorized_mint"
	case IntentAcceptOffer:
		return "accept_offer"
	case IntentBurn:
		return "burn"
	}
	return "none"
}

// LedgerTx is the subset of a transactions-stream message the tracker reads.
// Raw keeps the whole message so it can be parked in the pending pool.
type LedgerTx struct {
	Hash            string
	TransactionType string
	Account         string
	Issuer          string // empty when the mint carries no Issuer field
	Taxon           uint32
	HasTaxon        bool
	NFTokenID       string // NFTokenBurn body field
	LedgerIndex     int64
	Validated       bool
	Result          string
	Meta            []byte
	Raw             []byte
}

// ParseStreamTx reads a transactions-stream message or a `tx` rpc result.
// Both the api v1 "transaction" body and the api v2 "tx_json" body are accepted.
// ok is false when the payload is not a transaction at all.
func ParseStreamTx(msg []byte) (tx LedgerTx, ok bool) {
	if !gjson.ValidBytes(msg) {
		return
	}
	root := gjson.ParseBytes(msg)
	if t := root.Get("type"); t.Exists() && t.String() != StreamTypeTransaction {
		return
	}

	body := root.Get("transaction")
	if !body.Exists() {
		body = root.Get("tx_json")
	}
	if !body.Exists() && root.Get("TransactionType").Exists() {
		// rpc `tx` result keeps the fields at top level
		body = root
	}
	if !body.IsObject() {
		return
	}

	tx = LedgerTx{
		Hash:            firstString(root.Get("hash"), body.Get("hash")),
		TransactionType: body.Get("TransactionType").String(),
		Account:         body.Get("Account").String(),
		Issuer:          body.Get("Issuer").String(),
		NFTokenID:       body.Get("NFTokenID").String(),
		LedgerIndex:     firstInt(root.Get("ledger_index"), body.Get("ledger_index")),
		Validated:       root.Get("validated").Bool(),
		Raw:             msg,
	}
	if taxon := body.Get("NFTokenTaxon"); taxon.Exists() && taxon.Type == gjson.Number {
		tx.Taxon = uint32(taxon.Uint())
		tx.HasTaxon = true
	}
	meta := root.Get("meta")
	if !meta.Exists() {
		meta = root.Get("metaData")
	}
	if meta.IsObject() {
		tx.Meta = []byte(meta.Raw)
		tx.Result = meta.Get("TransactionResult").String()
	}
	if tx.Result == "" {
		tx.Result = root.Get("engine_result").String()
	}
	return tx, true
}

func firstString(rs ...gjson.Result) string {
	for _, r := range rs {
		if r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func firstInt(rs ...gjson.Result) int64 {
	for _, r := range rs {
		if r.Exists() {
			return r.Int()
		}
	}
	return 0
}

package nftsync

import (
	"github.com/everFinance/nftsync/schema"
)

// Classify decides which handler a tx goes to. Each rule checks the fields it needs
// before matching, so irrelevant or malformed txs just yield IntentNone.
func Classify(tx schema.LedgerTx, issuer string, taxon uint32) schema.Intent {
	if !tx.Validated || tx.Result != schema.ResultSuccess {
		return schema.IntentNone
	}

	switch tx.TransactionType {
	case schema.TxTypeBurn:
		if tx.NFTokenID == "" {
			return schema.IntentNone
		}
		return schema.IntentBurn

	case schema.TxTypeMint:
		if !tx.HasTaxon || tx.Taxon != taxon || tx.Account == "" {
			return schema.IntentNone
		}
		if tx.Account == issuer {
			return schema.IntentMint
		}
		if tx.Issuer != "" && tx.Issuer == issuer {
			return schema.IntentAuthorizedMint
		}

	case schema.TxTypeAcceptOffer:
		if tx.Account == "" || len(tx.Meta) == 0 {
			return schema.IntentNone
		}
		return schema.IntentAcceptOffer
	}
	return schema.IntentNone
}

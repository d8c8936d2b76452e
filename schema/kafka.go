package schema

type KafkaTokenEvent struct {
	Kind        string            `json:"kind"` // "created","transferred","destroyed"
	Identifier  string            `json:"identifier"`
	Owner       string            `json:"owner,omitempty"`
	Name        string            `json:"name,omitempty"`
	Image       string            `json:"image,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	TxHash      string            `json:"txHash"`
	LedgerIndex int64             `json:"ledgerIndex"`
}

package schema

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}

type RespInfo struct {
	Issuer           string   `json:"issuer"`
	Taxon            uint32   `json:"taxon"`
	LastLedger       int64    `json:"lastLedger"`
	Tokens           int64    `json:"tokens"`
	DestroyedTokens  int64    `json:"destroyedTokens"`
	PendingTxs       int      `json:"pendingTxs"`
	AttributeColumns []string `json:"attributeColumns"`
}

type RespToken struct {
	Identifier string            `json:"identifier"`
	Destroyed  bool              `json:"destroyed"`
	Owner      string            `json:"owner"`
	Name       string            `json:"name"`
	Image      string            `json:"image"`
	Attributes map[string]string `json:"attributes"`
}

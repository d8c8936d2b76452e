package schema

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TokenTableName = "tokens"

	ColIdentifier = "identifier"
	ColDestroyed  = "destroyed"
	ColOwner      = "owner"
	ColName       = "name"
	ColImage      = "image"

	// token event kinds
	EventCreated     = "created"
	EventTransferred = "transferred"
	EventDestroyed   = "destroyed"
)

// FixedColumns never come from metadata traits.
var FixedColumns = []string{ColIdentifier, ColDestroyed, ColOwner, ColName, ColImage}

// NFToken holds the fixed columns of the tokens table. Attribute columns are added
// at runtime and are only reachable through map queries.
type NFToken struct {
	Identifier string `gorm:"column:identifier;primaryKey;type:varchar(64)" json:"identifier"`
	Destroyed  bool   `gorm:"column:destroyed;not null;default:false" json:"destroyed"`
	Owner      string `gorm:"column:owner;type:text" json:"owner"`
	Name       string `gorm:"column:name;type:text" json:"name"`
	Image      string `gorm:"column:image;type:text" json:"image"`
}

func (NFToken) TableName() string {
	return TokenTableName
}

type TokenEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Kind        string         `gorm:"index:idx1" json:"kind"`
	Identifier  string         `gorm:"index:idx2;type:varchar(64)" json:"identifier"`
	Owner       string         `json:"owner"`
	TxHash      string         `json:"txHash"`
	LedgerIndex int64          `json:"ledgerIndex"`
	Attributes  datatypes.JSON `json:"attributes"` // snapshot of traits on creation
}

type NFTInfo struct {
	NFTokenID string `json:"nft_id"`
	Owner     string `json:"owner"`
	Issuer    string `json:"issuer"`
	Taxon     uint32 `json:"nft_taxon"`
	IsBurned  bool   `json:"is_burned"`
	Uri       string `json:"uri"` // hex encoded
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type Metadata struct {
	Name       string      `json:"name"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}

func (m Metadata) IsEmpty() bool {
	return m.Name == "" && m.Image == "" && len(m.Attributes) == 0
}

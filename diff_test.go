package nftsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNewTokenIds_CreatedPage(t *testing.T) {
	meta := `{"AffectedNodes":[
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot","FinalFields":{"Account":"rIssuer"}}},
		{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{"NFTokens":[
			{"NFToken":{"NFTokenID":"AAA","URI":"697066733A2F2F616263"}}
		]}}}
	],"TransactionResult":"tesSUCCESS"}`
	assert.Equal(t, []string{"AAA"}, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractNewTokenIds_ModifiedPage(t *testing.T) {
	meta := `{"AffectedNodes":[
		{"ModifiedNode":{"LedgerEntryType":"NFTokenPage",
			"FinalFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}},{"NFToken":{"NFTokenID":"BBB"}},{"NFToken":{"NFTokenID":"CCC"}}]},
			"PreviousFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}},{"NFToken":{"NFTokenID":"CCC"}}]}}}
	]}`
	assert.Equal(t, []string{"BBB"}, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractNewTokenIds_ModifiedWithoutPrevious(t *testing.T) {
	// only the page links changed
	meta := `{"AffectedNodes":[
		{"ModifiedNode":{"LedgerEntryType":"NFTokenPage",
			"FinalFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}}],"NextPageMin":"FFF"},
			"PreviousFields":{"NextPageMin":"EEE"}}}
	]}`
	assert.Empty(t, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractNewTokenIds_PageSplit(t *testing.T) {
	// BBB and CCC move from the old page into the created one; only DDD is new
	meta := `{"AffectedNodes":[
		{"ModifiedNode":{"LedgerEntryType":"NFTokenPage",
			"FinalFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}}]},
			"PreviousFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}},{"NFToken":{"NFTokenID":"BBB"}},{"NFToken":{"NFTokenID":"CCC"}}]}}},
		{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{"NFTokens":[
			{"NFToken":{"NFTokenID":"BBB"}},{"NFToken":{"NFTokenID":"CCC"}},{"NFToken":{"NFTokenID":"DDD"}}
		]}}}
	]}`
	assert.Equal(t, []string{"DDD"}, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractNewTokenIds_Malformed(t *testing.T) {
	tests := []string{
		``,
		`{}`,
		`{"AffectedNodes":{}}`,
		`{"AffectedNodes":[{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{}}}]}`,
		`{"AffectedNodes":[{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{"NFTokens":"AAA"}}}]}`,
		`{"AffectedNodes":[{"CreatedNode":{"LedgerEntryType":"DirectoryNode","NewFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}}]}}}]}`,
		`{"AffectedNodes":[{"ModifiedNode":{"LedgerEntryType":"NFTokenPage","PreviousFields":{"NFTokens":[]}}}]}`,
	}
	for _, meta := range tests {
		assert.Empty(t, ExtractNewTokenIds([]byte(meta)), meta)
	}

	// broken items are skipped, the rest still count
	meta := `{"AffectedNodes":[{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{"NFTokens":[
		{"NFToken":{}},{"NFToken":{"NFTokenID":12}},{"NFToken":{"NFTokenID":"AAA"}}
	]}}}]}`
	assert.Equal(t, []string{"AAA"}, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractNewTokenIds_Dedup(t *testing.T) {
	meta := `{"AffectedNodes":[
		{"CreatedNode":{"LedgerEntryType":"NFTokenPage","NewFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}}]}}},
		{"ModifiedNode":{"LedgerEntryType":"NFTokenPage",
			"FinalFields":{"NFTokens":[{"NFToken":{"NFTokenID":"AAA"}},{"NFToken":{"NFTokenID":"BBB"}}]},
			"PreviousFields":{"NFTokens":[{"NFToken":{"NFTokenID":"BBB"}}]}}}
	]}`
	assert.Equal(t, []string{"AAA"}, ExtractNewTokenIds([]byte(meta)))
}

func TestExtractAcceptedTokenId(t *testing.T) {
	meta := `{"AffectedNodes":[
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot"}},
		{"DeletedNode":{"LedgerEntryType":"DirectoryNode","FinalFields":{}}},
		{"DeletedNode":{"LedgerEntryType":"NFTokenOffer","FinalFields":{"NFTokenID":"AAA","Owner":"rSeller"}}},
		{"DeletedNode":{"LedgerEntryType":"NFTokenOffer","FinalFields":{"NFTokenID":"BBB"}}}
	]}`
	assert.Equal(t, "AAA", ExtractAcceptedTokenId([]byte(meta)))

	assert.Equal(t, "", ExtractAcceptedTokenId([]byte(`{"AffectedNodes":[]}`)))
	assert.Equal(t, "", ExtractAcceptedTokenId([]byte(`{"AffectedNodes":[{"DeletedNode":{"LedgerEntryType":"NFTokenOffer","FinalFields":{}}}]}`)))
	assert.Equal(t, "", ExtractAcceptedTokenId(nil))
}

package nftsync

import (
	"github.com/everFinance/nftsync/schema"
	"github.com/tidwall/gjson"
)

// ExtractNewTokenIds returns the token ids that appeared in NFTokenPage entries
// of a tx meta, in the order they are met. Entries with an unexpected shape are skipped.
// Ids that some page of the same tx held before are not new: a page split moves
// existing tokens into a created page.
func ExtractNewTokenIds(meta []byte) []string {
	candidates := make([]string, 0)
	seen := make(map[string]struct{})
	existed := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}

	nodes := gjson.GetBytes(meta, "AffectedNodes")
	if !nodes.IsArray() {
		return candidates
	}
	nodes.ForEach(func(_, node gjson.Result) bool {
		if deleted := node.Get("DeletedNode"); deleted.IsObject() {
			if deleted.Get("LedgerEntryType").String() == schema.EntryTypeTokenPage {
				ids, _ := tokenIds(deleted.Get("FinalFields.NFTokens"))
				for _, id := range ids {
					existed[id] = struct{}{}
				}
			}
			return true
		}

		if created := node.Get("CreatedNode"); created.IsObject() {
			if created.Get("LedgerEntryType").String() != schema.EntryTypeTokenPage {
				return true
			}
			ids, ok := tokenIds(created.Get("NewFields.NFTokens"))
			if !ok {
				return true
			}
			for _, id := range ids {
				add(id)
			}
			return true
		}

		if modified := node.Get("ModifiedNode"); modified.IsObject() {
			if modified.Get("LedgerEntryType").String() != schema.EntryTypeTokenPage {
				return true
			}
			final, ok := tokenIds(modified.Get("FinalFields.NFTokens"))
			if !ok {
				return true
			}
			prevList := modified.Get("PreviousFields.NFTokens")
			if !prevList.Exists() {
				// NFTokens untouched by this tx, e.g. only the page links moved
				return true
			}
			prev, ok := tokenIds(prevList)
			if !ok {
				return true
			}
			prevSet := make(map[string]struct{}, len(prev))
			for _, id := range prev {
				prevSet[id] = struct{}{}
				existed[id] = struct{}{}
			}
			for _, id := range final {
				if _, ok := prevSet[id]; !ok {
					add(id)
				}
			}
		}
		return true
	})

	res := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := existed[id]; !ok {
			res = append(res, id)
		}
	}
	return res
}

// ExtractAcceptedTokenId returns the token id referenced by the first deleted
// NFTokenOffer entry of a tx meta, "" when there is none.
func ExtractAcceptedTokenId(meta []byte) string {
	nodes := gjson.GetBytes(meta, "AffectedNodes")
	if !nodes.IsArray() {
		return ""
	}
	id := ""
	nodes.ForEach(func(_, node gjson.Result) bool {
		deleted := node.Get("DeletedNode")
		if !deleted.IsObject() || deleted.Get("LedgerEntryType").String() != schema.EntryTypeOffer {
			return true
		}
		tokenId := deleted.Get("FinalFields.NFTokenID")
		if tokenId.Type != gjson.String || tokenId.String() == "" {
			return true
		}
		id = tokenId.String()
		return false
	})
	return id
}

// tokenIds reads an NFTokens list: [{"NFToken":{"NFTokenID":"..."}}, ...].
// ok is false when the value is missing or not a list; malformed items are dropped.
func tokenIds(list gjson.Result) (ids []string, ok bool) {
	if !list.IsArray() {
		return nil, false
	}
	ids = make([]string, 0)
	for _, item := range list.Array() {
		id := item.Get("NFToken.NFTokenID")
		if id.Type != gjson.String || id.String() == "" {
			continue
		}
		ids = append(ids, id.String())
	}
	return ids, true
}

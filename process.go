package nftsync

import (
	"encoding/json"
	"time"

	"github.com/everFinance/nftsync/schema"
)

// Dispatch classifies tx and queues it for processing. Irrelevant txs return nil
// without side effects. A tx touching several tokens is queued once per token.
func (t *Tracker) Dispatch(tx schema.LedgerTx) error {
	intent := Classify(tx, t.issuer, t.taxon)
	if intent == schema.IntentNone {
		return nil
	}
	ids := touchedTokenIds(intent, tx)
	keys := ids
	if len(keys) == 0 {
		keys = []string{"tx:" + tx.Hash}
	}

	// the stop check and wg.Add must not interleave with Close
	t.stopLocker.RLock()
	if t.ctx.Err() != nil {
		t.stopLocker.RUnlock()
		return schema.ErrTrackerStopped
	}
	t.wg.Add(len(keys))
	t.stopLocker.RUnlock()

	if tx.Hash != "" && len(tx.Raw) > 0 {
		if err := t.store.PutPendingTx(tx.Hash, tx.Raw); err != nil {
			log.Error("t.store.PutPendingTx(tx.Hash, tx.Raw)", "err", err, "hash", tx.Hash)
		}
	}

	parts := &txParts{remaining: int32(len(keys))}
	var invokeErr error
	for _, key := range keys {
		task := txTask{intent: intent, tx: tx, parts: parts}
		if len(ids) > 0 {
			task.ids = []string{key}
		}
		if !t.seq.push(key, task) {
			continue
		}
		if err := t.pool.Invoke(key); err != nil {
			// dropped tasks stay in the pending pool
			for range t.seq.drop(key) {
				t.wg.Done()
			}
			invokeErr = err
		}
	}
	return invokeErr
}

func touchedTokenIds(intent schema.Intent, tx schema.LedgerTx) []string {
	switch intent {
	case schema.IntentBurn:
		return []string{tx.NFTokenID}
	case schema.IntentMint, schema.IntentAuthorizedMint:
		return ExtractNewTokenIds(tx.Meta)
	case schema.IntentAcceptOffer:
		if id := ExtractAcceptedTokenId(tx.Meta); id != "" {
			return []string{id}
		}
	}
	return nil
}

// runKey is the pool func: it drains one key's queue.
func (t *Tracker) runKey(i interface{}) {
	key := i.(string)
	for {
		task, ok := t.seq.next(key)
		if !ok {
			return
		}
		if task.parts.done(t.process(task)) && task.tx.Hash != "" {
			if err := t.store.DelPendingTx(task.tx.Hash); err != nil {
				log.Error("t.store.DelPendingTx(task.tx.Hash)", "err", err, "hash", task.tx.Hash)
			}
		}
		t.wg.Done()
	}
}

// process applies one tx. It returns false only when shutdown interrupted it, in which
// case the tx stays in the pending pool for the next start.
func (t *Tracker) process(task txTask) bool {
	metricTxs.WithLabelValues(task.intent.String()).Inc()
	switch task.intent {
	case schema.IntentBurn:
		t.processBurn(task.tx, task.ids[0])
	case schema.IntentMint, schema.IntentAuthorizedMint:
		return t.processMint(task.tx, task.ids)
	case schema.IntentAcceptOffer:
		if len(task.ids) == 0 {
			log.Debug("accept offer without a deleted offer entry", "hash", task.tx.Hash)
			return true
		}
		t.processAcceptOffer(task.tx, task.ids[0])
	}
	return true
}

// processMint runs the creation pipeline for the new tokens of a mint. The owner is
// the tx account, for authorized minters too.
func (t *Tracker) processMint(tx schema.LedgerTx, ids []string) bool {
	if len(ids) == 0 {
		log.Warn("mint tx without new token", "hash", tx.Hash)
		return true
	}
	for _, id := range ids {
		info, found, interrupted := t.lookupToken(id)
		if interrupted {
			return false
		}
		if !found {
			log.Warn("token not found after settle, skip", "id", id, "hash", tx.Hash)
			metricDropped.WithLabelValues("not_found").Inc()
			continue
		}

		meta := t.resolver.Resolve(info.Uri)
		row, attrs := t.assembleRow(id, tx.Account, info.IsBurned, meta)
		if err := t.wdb.UpsertToken(row); err != nil {
			log.Error("t.wdb.UpsertToken(row)", "err", err, "id", id, "hash", tx.Hash)
			metricDropped.WithLabelValues("store_error").Inc()
			continue
		}
		log.Info("token created", "id", id, "owner", tx.Account, "name", meta.Name, "hash", tx.Hash)
		t.recordEvent(schema.KafkaTokenEvent{
			Kind:        schema.EventCreated,
			Identifier:  id,
			Owner:       tx.Account,
			Name:        meta.Name,
			Image:       meta.Image,
			Attributes:  attrs,
			TxHash:      tx.Hash,
			LedgerIndex: tx.LedgerIndex,
		})
	}
	return true
}

// lookupToken waits the settle delay before every nft_info attempt.
func (t *Tracker) lookupToken(id string) (info schema.NFTInfo, found, interrupted bool) {
	for i := 0; i < t.opts.SettleRetry; i++ {
		select {
		case <-t.ctx.Done():
			return info, false, true
		case <-time.After(t.opts.SettleDelay):
		}
		var err error
		info, err = t.ledger.NFTInfo(id)
		if err == nil {
			return info, true, false
		}
		if err != schema.ErrNotFound {
			log.Warn("t.ledger.NFTInfo(id)", "err", err, "id", id, "attempt", i+1)
		}
	}
	return info, false, false
}

// assembleRow builds a full replacement row: attribute columns not carried by meta are
// set to null so the row holds only the latest data. destroyed and owner only count
// for a new row, see UpsertToken.
func (t *Tracker) assembleRow(id, owner string, burned bool, meta schema.Metadata) (map[string]interface{}, map[string]string) {
	row := map[string]interface{}{
		schema.ColIdentifier: id,
		schema.ColDestroyed:  burned,
		schema.ColOwner:      owner,
		schema.ColName:       meta.Name,
		schema.ColImage:      meta.Image,
	}
	attrs := make(map[string]string, len(meta.Attributes))
	for _, attr := range meta.Attributes {
		col, err := t.columns.Ensure(attr.TraitType)
		if err != nil {
			log.Warn("t.columns.Ensure(attr.TraitType)", "err", err, "trait", attr.TraitType, "id", id)
			continue
		}
		row[col] = attr.Value
		attrs[col] = attr.Value
	}
	for _, col := range t.columns.Known() {
		if _, ok := row[col]; !ok {
			row[col] = nil
		}
	}
	return row, attrs
}

func (t *Tracker) processBurn(tx schema.LedgerTx, id string) {
	ok, err := t.wdb.SetDestroyed(id)
	if err != nil {
		log.Error("t.wdb.SetDestroyed(id)", "err", err, "id", id, "hash", tx.Hash)
		metricDropped.WithLabelValues("store_error").Inc()
		return
	}
	if !ok {
		log.Debug("burn of untracked token", "id", id, "hash", tx.Hash)
		metricDropped.WithLabelValues("untracked").Inc()
		return
	}
	log.Info("token destroyed", "id", id, "hash", tx.Hash)
	t.recordEvent(schema.KafkaTokenEvent{
		Kind:        schema.EventDestroyed,
		Identifier:  id,
		TxHash:      tx.Hash,
		LedgerIndex: tx.LedgerIndex,
	})
}

func (t *Tracker) processAcceptOffer(tx schema.LedgerTx, id string) {
	ok, err := t.wdb.SetOwner(id, tx.Account)
	if err != nil {
		log.Error("t.wdb.SetOwner(id, tx.Account)", "err", err, "id", id, "hash", tx.Hash)
		metricDropped.WithLabelValues("store_error").Inc()
		return
	}
	if !ok {
		log.Debug("transfer of untracked token", "id", id, "hash", tx.Hash)
		metricDropped.WithLabelValues("untracked").Inc()
		return
	}
	log.Info("token transferred", "id", id, "owner", tx.Account, "hash", tx.Hash)
	t.recordEvent(schema.KafkaTokenEvent{
		Kind:        schema.EventTransferred,
		Identifier:  id,
		Owner:       tx.Account,
		TxHash:      tx.Hash,
		LedgerIndex: tx.LedgerIndex,
	})
}

// recordEvent appends to the event log and publishes to kafka when enabled.
// Failures here never undo the token write.
func (t *Tracker) recordEvent(ev schema.KafkaTokenEvent) {
	var attrs []byte
	if len(ev.Attributes) > 0 {
		attrs, _ = json.Marshal(ev.Attributes)
	}
	if err := t.wdb.InsertTokenEvent(schema.TokenEvent{
		Kind:        ev.Kind,
		Identifier:  ev.Identifier,
		Owner:       ev.Owner,
		TxHash:      ev.TxHash,
		LedgerIndex: ev.LedgerIndex,
		Attributes:  attrs,
	}); err != nil {
		log.Error("t.wdb.InsertTokenEvent", "err", err, "id", ev.Identifier)
	}

	if t.kWriter == nil {
		return
	}
	by, err := json.Marshal(ev)
	if err != nil {
		log.Error("json.Marshal(ev)", "err", err, "id", ev.Identifier)
		return
	}
	if err = t.kWriter.WriteKey([]byte(ev.Identifier), by); err != nil {
		log.Error("t.kWriter.WriteKey", "err", err, "id", ev.Identifier)
	}
}

// recoverPending re-dispatches txs that were received before the last stop but
// never finished.
func (t *Tracker) recoverPending() {
	pending, err := t.store.LoadPendingTxs()
	if err != nil {
		log.Error("t.store.LoadPendingTxs()", "err", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	log.Info("recover pending txs", "number", len(pending))
	for hash, raw := range pending {
		tx, ok := schema.ParseStreamTx(raw)
		if !ok || len(tx.Meta) == 0 {
			if err := t.Resync(hash); err != nil {
				log.Error("t.Resync(hash)", "err", err, "hash", hash)
				if err = t.store.DelPendingTx(hash); err != nil {
					log.Error("t.store.DelPendingTx(hash)", "err", err, "hash", hash)
				}
			}
			continue
		}
		if err := t.Dispatch(tx); err != nil {
			log.Error("t.Dispatch(tx)", "err", err, "hash", hash)
		}
	}
}

// Resync fetches a tx by hash from the ledger and dispatches it again.
func (t *Tracker) Resync(hash string) error {
	raw, err := t.ledger.GetTx(hash)
	if err != nil {
		return err
	}
	tx, ok := schema.ParseStreamTx(raw)
	if !ok {
		return schema.ErrNotFound
	}
	if tx.Hash == "" {
		tx.Hash = hash
	}
	if Classify(tx, t.issuer, t.taxon) == schema.IntentNone {
		// nothing to apply, make sure it does not linger in the pending pool
		return t.store.DelPendingTx(hash)
	}
	return t.Dispatch(tx)
}

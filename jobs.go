package nftsync

func (t *Tracker) runJobs() {
	t.scheduler.Every(1).Minute().SingletonMode().Do(t.updateTokenMetrics)
	t.scheduler.Every(10).Seconds().SingletonMode().Do(t.saveCheckpoint)
	t.scheduler.Every(5).Minutes().SingletonMode().Do(t.reloadColumns)

	t.scheduler.StartAsync()
}

func (t *Tracker) updateTokenMetrics() {
	active, err := t.wdb.CountTokens(false)
	if err != nil {
		log.Error("t.wdb.CountTokens(false)", "err", err)
		return
	}
	destroyed, err := t.wdb.CountTokens(true)
	if err != nil {
		log.Error("t.wdb.CountTokens(true)", "err", err)
		return
	}
	metricTokenCount(active, destroyed)
}

func (t *Tracker) saveCheckpoint() {
	idx := t.LastLedger()
	if idx == 0 {
		return
	}
	metricLastLedger.Set(float64(idx))
	if err := t.store.SaveLastLedger(idx); err != nil {
		log.Error("t.store.SaveLastLedger(idx)", "err", err, "ledger", idx)
	}
}

// reloadColumns picks up attribute columns added by another process on a shared db.
func (t *Tracker) reloadColumns() {
	if err := t.columns.Reload(); err != nil {
		log.Error("t.columns.Reload()", "err", err)
	}
}

package nftsync

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/everFinance/nftsync/schema"
)

const reservedPrefix = "trait_"

var nonWordRegexp = regexp.MustCompile(`\W+`)

// SanitizeColumnName maps a metadata trait name onto a column name:
// trimmed, lowercased, every run of non-word characters collapsed to "_".
func SanitizeColumnName(name string) string {
	return nonWordRegexp.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Columns owns the growing set of attribute columns of the tokens table.
// Ensure is serialised so that check-then-add never races inside one process.
type Columns struct {
	wdb    *Wdb
	locker sync.Mutex
	known  map[string]struct{}
}

func NewColumns(wdb *Wdb) (*Columns, error) {
	c := &Columns{
		wdb:   wdb,
		known: make(map[string]struct{}),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory column set with what the table holds now.
func (c *Columns) Reload() error {
	cols, err := c.wdb.ListColumns()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if isFixedColumn(col) {
			continue
		}
		known[col] = struct{}{}
	}
	c.locker.Lock()
	c.known = known
	c.locker.Unlock()
	return nil
}

// ColumnName returns the column a trait is stored under, "" when the trait can not be stored.
func ColumnName(trait string) string {
	col := SanitizeColumnName(trait)
	if col == "" || col == "_" {
		return ""
	}
	if isFixedColumn(col) {
		return reservedPrefix + col
	}
	return col
}

// Ensure makes sure the column for trait exists and returns its name.
func (c *Columns) Ensure(trait string) (string, error) {
	col := ColumnName(trait)
	if col == "" {
		return "", schema.ErrInvalidColumn
	}

	c.locker.Lock()
	defer c.locker.Unlock()
	if _, ok := c.known[col]; ok {
		return col, nil
	}

	exist, err := c.wdb.HasColumn(col)
	if err != nil {
		return "", err
	}
	if !exist {
		if err = c.wdb.AddColumn(col); err != nil {
			// another process may have added it first
			if ok, _ := c.wdb.HasColumn(col); !ok {
				log.Error("c.wdb.AddColumn(col)", "err", err, "column", col)
				return "", err
			}
		}
		log.Info("add attribute column", "column", col, "trait", trait)
		metricAttributeColumns.Inc()
	}
	c.known[col] = struct{}{}
	return col, nil
}

// Known returns the attribute columns in name order.
func (c *Columns) Known() []string {
	c.locker.Lock()
	defer c.locker.Unlock()
	cols := make([]string, 0, len(c.known))
	for col := range c.known {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

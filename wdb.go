package nftsync

import (
	"errors"
	"os"
	"path"

	"github.com/everFinance/nftsync/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	sqliteName = "nftsync.sqlite"
)

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel), // prod use warn
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		panic(err)
	}
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Silent),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.NFToken{}, &schema.TokenEvent{})
}

func (w *Wdb) Close() {
	sqlDb, err := w.Db.DB()
	if err == nil {
		sqlDb.Close()
	}
}

// ListColumns returns every column of the tokens table, fixed columns included.
func (w *Wdb) ListColumns() ([]string, error) {
	cts, err := w.Db.Migrator().ColumnTypes(&schema.NFToken{})
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(cts))
	for _, ct := range cts {
		cols = append(cols, ct.Name())
	}
	return cols, nil
}

func (w *Wdb) HasColumn(name string) (bool, error) {
	cols, err := w.ListColumns()
	if err != nil {
		return false, err
	}
	for _, col := range cols {
		if col == name {
			return true, nil
		}
	}
	return false, nil
}

func (w *Wdb) AddColumn(name string) error {
	if name == "" {
		return schema.ErrInvalidColumn
	}
	return w.Db.Exec("ALTER TABLE ? ADD COLUMN ? TEXT",
		clause.Table{Name: schema.TokenTableName}, clause.Column{Name: name}).Error
}

// UpsertToken inserts the row or replaces the descriptive and attribute columns of an
// existing one. Callers pass all known attribute columns so that the row ends up
// holding only the latest data. destroyed and owner of an existing row are left to
// burns and transfers, so a replayed mint never revives a token.
func (w *Wdb) UpsertToken(row map[string]interface{}) error {
	id, _ := row[schema.ColIdentifier].(string)
	if id == "" {
		return schema.ErrNotExist
	}
	updates := make([]string, 0, len(row))
	for col := range row {
		switch col {
		case schema.ColIdentifier, schema.ColDestroyed, schema.ColOwner:
			continue
		}
		updates = append(updates, col)
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: schema.ColIdentifier}},
		DoUpdates: clause.AssignmentColumns(updates),
	}
	if len(updates) == 0 {
		onConflict = clause.OnConflict{Columns: onConflict.Columns, DoNothing: true}
	}
	return w.Db.Table(schema.TokenTableName).Clauses(onConflict).Create(row).Error
}

func (w *Wdb) GetToken(id string) (res schema.NFToken, err error) {
	err = w.Db.Where("identifier = ?", id).Take(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = schema.ErrNotExist
	}
	return
}

func (w *Wdb) ExistToken(id string) bool {
	var count int64
	w.Db.Model(&schema.NFToken{}).Where("identifier = ?", id).Count(&count)
	return count > 0
}

// GetTokenAttributes returns the non-null attribute columns of one row.
func (w *Wdb) GetTokenAttributes(id string) (map[string]string, error) {
	row := make(map[string]interface{})
	err := w.Db.Table(schema.TokenTableName).Where("identifier = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, schema.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	res := make(map[string]string)
	for col, val := range row {
		if isFixedColumn(col) || val == nil {
			continue
		}
		res[col] = toString(val)
	}
	return res, nil
}

// UpdateToken applies fields only when the identifier is tracked; unknown ids are a no-op.
func (w *Wdb) UpdateToken(id string, fields map[string]interface{}) (updated bool, err error) {
	if _, err = w.GetToken(id); err != nil {
		if err == schema.ErrNotExist {
			return false, nil
		}
		return false, err
	}
	err = w.Db.Model(&schema.NFToken{}).Where("identifier = ?", id).Updates(fields).Error
	return err == nil, err
}

func (w *Wdb) SetOwner(id, owner string) (bool, error) {
	return w.UpdateToken(id, map[string]interface{}{schema.ColOwner: owner})
}

func (w *Wdb) SetDestroyed(id string) (bool, error) {
	return w.UpdateToken(id, map[string]interface{}{schema.ColDestroyed: true})
}

func (w *Wdb) CountTokens(destroyed bool) (count int64, err error) {
	err = w.Db.Model(&schema.NFToken{}).Where("destroyed = ?", destroyed).Count(&count).Error
	return
}

func (w *Wdb) GetTokensByOwner(owner string, cursor string, limit int) ([]schema.NFToken, error) {
	res := make([]schema.NFToken, 0, limit)
	err := w.Db.Where("owner = ? AND identifier > ?", owner, cursor).
		Order("identifier asc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) InsertTokenEvent(ev schema.TokenEvent) error {
	return w.Db.Create(&ev).Error
}

func (w *Wdb) GetTokenEvents(id string) ([]schema.TokenEvent, error) {
	res := make([]schema.TokenEvent, 0, 4)
	err := w.Db.Where("identifier = ?", id).Order("id asc").Find(&res).Error
	return res, err
}

func isFixedColumn(col string) bool {
	for _, c := range schema.FixedColumns {
		if c == col {
			return true
		}
	}
	return false
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return ""
	}
}

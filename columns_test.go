package nftsync

import (
	"sync"
	"testing"

	"github.com/everFinance/nftsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeColumnName(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"Background", "background"},
		{"Background Color!!", "background_color_"},
		{"  Eye   Color ", "eye_color"},
		{"hat-type", "hat_type"},
		{"already_ok_1", "already_ok_1"},
		{"!!!", "_"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, SanitizeColumnName(tt.in), tt.in)
	}
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "background", ColumnName("Background"))
	assert.Equal(t, "trait_name", ColumnName("Name"))
	assert.Equal(t, "trait_owner", ColumnName(" owner "))
	assert.Equal(t, "", ColumnName("   "))
	assert.Equal(t, "", ColumnName("$$"))
}

func TestColumns_Ensure(t *testing.T) {
	wdb := newTestWdb(t)
	cols, err := NewColumns(wdb)
	require.NoError(t, err)
	assert.Empty(t, cols.Known())

	col, err := cols.Ensure("Background Color!!")
	assert.NoError(t, err)
	assert.Equal(t, "background_color_", col)

	// same column, no second ALTER
	col, err = cols.Ensure("background color")
	assert.NoError(t, err)
	assert.Equal(t, "background_color", col)
	col, err = cols.Ensure("BACKGROUND COLOR!!")
	assert.NoError(t, err)
	assert.Equal(t, "background_color_", col)

	col, err = cols.Ensure("Name")
	assert.NoError(t, err)
	assert.Equal(t, "trait_name", col)

	_, err = cols.Ensure("  ")
	assert.Equal(t, schema.ErrInvalidColumn, err)

	assert.Equal(t, []string{"background_color", "background_color_", "trait_name"}, cols.Known())
	dbCols, err := wdb.ListColumns()
	assert.NoError(t, err)
	assert.Subset(t, dbCols, cols.Known())
}

func TestColumns_Reload(t *testing.T) {
	wdb := newTestWdb(t)
	cols, err := NewColumns(wdb)
	require.NoError(t, err)

	// another process adds a column behind our back
	require.NoError(t, wdb.AddColumn("eyes"))
	assert.Empty(t, cols.Known())

	// Ensure tolerates the column already being there
	col, err := cols.Ensure("Eyes")
	assert.NoError(t, err)
	assert.Equal(t, "eyes", col)

	require.NoError(t, wdb.AddColumn("mouth"))
	assert.NoError(t, cols.Reload())
	assert.Equal(t, []string{"eyes", "mouth"}, cols.Known())

	again, err := NewColumns(wdb)
	require.NoError(t, err)
	assert.Equal(t, []string{"eyes", "mouth"}, again.Known())
}

func TestColumns_EnsureConcurrent(t *testing.T) {
	wdb := newTestWdb(t)
	cols, err := NewColumns(wdb)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trait := "Background"
			if i%2 == 1 {
				trait = "Eyes"
			}
			if _, err := cols.Ensure(trait); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, []string{"background", "eyes"}, cols.Known())
	dbCols, err := wdb.ListColumns()
	require.NoError(t, err)
	seen := make(map[string]int)
	for _, col := range dbCols {
		seen[col]++
	}
	assert.Equal(t, 1, seen["background"])
	assert.Equal(t, 1, seen["eyes"])
}

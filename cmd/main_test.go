package main

import (
	"os"
	"path"
	"testing"

	"github.com/everFinance/nftsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runLoadConfig(args ...string) (cfg schema.Config, err error) {
	app := newApp()
	app.Action = func(c *cli.Context) error {
		cfg, err = loadConfig(c)
		return nil
	}
	if runErr := app.Run(append([]string{"nftsync"}, args...)); runErr != nil {
		return cfg, runErr
	}
	return
}

func TestLoadConfig(t *testing.T) {
	cfg, err := runLoadConfig("--workers", "4", "rIssuer", "7")
	assert.NoError(t, err)
	assert.Equal(t, "rIssuer", cfg.Issuer)
	assert.Equal(t, uint32(7), cfg.Taxon)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "./data/sqlite", cfg.Sqlite)
	assert.Equal(t, "", cfg.Mysql)
	assert.False(t, cfg.Kafka.Start)
}

func TestLoadConfig_BadArgs(t *testing.T) {
	_, err := runLoadConfig()
	assert.Error(t, err)
	_, err = runLoadConfig("rIssuer")
	assert.Error(t, err)
	_, err = runLoadConfig("rIssuer", "seven")
	assert.ErrorIs(t, err, schema.ErrInvalidTaxon)
	_, err = runLoadConfig("rIssuer", "4294967296")
	assert.ErrorIs(t, err, schema.ErrInvalidTaxon)
}

func TestLoadConfig_File(t *testing.T) {
	file := path.Join(t.TempDir(), "nftsync.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
issuer: rFromFile
taxon: 3
rpcNode: https://clio.example.com
workers: 8
kafka:
  start: true
  uri: kafka:9092
`), 0644))

	cfg, err := runLoadConfig("--config", file, "--workers", "2")
	assert.NoError(t, err)
	assert.Equal(t, "rFromFile", cfg.Issuer)
	assert.Equal(t, uint32(3), cfg.Taxon)
	assert.Equal(t, "https://clio.example.com", cfg.RpcNode)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Kafka.Start)
	assert.Equal(t, "kafka:9092", cfg.Kafka.Uri)

	// positional args win over the file
	cfg, err = runLoadConfig("--config", file, "rIssuer", "9")
	assert.NoError(t, err)
	assert.Equal(t, "rIssuer", cfg.Issuer)
	assert.Equal(t, uint32(9), cfg.Taxon)
	assert.Equal(t, 8, cfg.Workers)
}

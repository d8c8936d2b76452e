package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/everFinance/nftsync"
	"github.com/everFinance/nftsync/common"
	"github.com/everFinance/nftsync/schema"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const usage = "nftsync [options] <issuer> <taxon>"

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "nftsync",
		Usage:     "mirror the NFTs of one issuer/taxon into a sql table",
		UsageText: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "yaml config file, flags override it", EnvVars: []string{"CONFIG"}},
			&cli.StringFlag{Name: "ws_node", Value: "wss://xrplcluster.com", Usage: "ledger websocket node", EnvVars: []string{"WS_NODE"}},
			&cli.StringFlag{Name: "rpc_node", Value: "https://s1.ripple.com:51234", Usage: "clio json-rpc node, must serve nft_info", EnvVars: []string{"RPC_NODE"}},
			&cli.StringFlag{Name: "ipfs_gateway", Value: nftsync.DefaultIpfsGateway, EnvVars: []string{"IPFS_GATEWAY"}},
			&cli.StringFlag{Name: "ar_node", Value: nftsync.DefaultArNode, EnvVars: []string{"AR_NODE"}},
			&cli.StringFlag{Name: "sqlite", Value: "./data/sqlite", Usage: "sqlite dir path", EnvVars: []string{"SQLITE"}},
			&cli.StringFlag{Name: "mysql", Value: "", Usage: "mysql dsn, replaces sqlite when set", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "bolt_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"BOLT_DIR"}},
			&cli.StringFlag{Name: "port", Value: ":8080", Usage: "api port, empty disables the api", EnvVars: []string{"PORT"}},
			&cli.StringFlag{Name: "metric_port", Value: ":8081", EnvVars: []string{"METRIC_PORT"}},
			&cli.IntFlag{Name: "workers", Value: nftsync.DefaultWorkers, EnvVars: []string{"WORKERS"}},
			&cli.IntFlag{Name: "queue_size", Value: nftsync.DefaultQueueSize, EnvVars: []string{"QUEUE_SIZE"}},
			&cli.IntFlag{Name: "settle_ms", Value: int(nftsync.DefaultSettleDelay.Milliseconds()), Usage: "wait before each nft_info lookup", EnvVars: []string{"SETTLE_MS"}},
			&cli.IntFlag{Name: "settle_retry", Value: nftsync.DefaultSettleRetry, EnvVars: []string{"SETTLE_RETRY"}},
			&cli.IntFlag{Name: "fetch_timeout", Value: int(nftsync.DefaultFetchTimeout.Seconds()), Usage: "seconds", EnvVars: []string{"FETCH_TIMEOUT"}},
			&cli.BoolFlag{Name: "kafka", Value: false, Usage: "publish token events to kafka", EnvVars: []string{"KAFKA"}},
			&cli.StringFlag{Name: "kafka_uri", Value: "localhost:9092", EnvVars: []string{"KAFKA_URI"}},
			&cli.StringFlag{Name: "sentry_dsn", Value: "", EnvVars: []string{"SENTRY_DSN"}},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%v\nusage: %s", err, usage), 1)
	}

	if dsn := c.String("sentry_dsn"); dsn != "" {
		if err := common.InitSentry(dsn, "nftsync"); err != nil {
			return err
		}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	metricSrv := common.NewMetricServer(cfg.MetricPort)
	defer metricSrv.Close()

	t, err := nftsync.New(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err = t.Run(cfg.Port); err != nil {
		t.Close()
		return cli.Exit(err.Error(), 1)
	}

	<-signals
	t.Close()
	return nil
}

// loadConfig reads the optional yaml file and lays the flags over it. The two
// positional arguments always win.
func loadConfig(c *cli.Context) (schema.Config, error) {
	cfg := schema.Config{}
	path := c.String("config")
	if path == "" && c.NArg() < 2 {
		return cfg, fmt.Errorf("missing issuer or taxon")
	}
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, err
		}
	}

	if c.NArg() >= 1 {
		cfg.Issuer = c.Args().Get(0)
	}
	if c.NArg() >= 2 {
		taxon, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("%w: %q", schema.ErrInvalidTaxon, c.Args().Get(1))
		}
		cfg.Taxon = uint32(taxon)
	}
	if cfg.Issuer == "" {
		return cfg, fmt.Errorf("%w: missing issuer", schema.ErrInvalidIssuer)
	}

	str := func(name string, cur *string) {
		if c.IsSet(name) || *cur == "" {
			*cur = c.String(name)
		}
	}
	num := func(name string, cur *int) {
		if c.IsSet(name) || *cur == 0 {
			*cur = c.Int(name)
		}
	}
	str("ws_node", &cfg.WsNode)
	str("rpc_node", &cfg.RpcNode)
	str("ipfs_gateway", &cfg.IpfsGw)
	str("ar_node", &cfg.ArNode)
	str("sqlite", &cfg.Sqlite)
	str("mysql", &cfg.Mysql)
	str("bolt_dir", &cfg.BoltDir)
	str("port", &cfg.Port)
	str("metric_port", &cfg.MetricPort)
	num("workers", &cfg.Workers)
	num("queue_size", &cfg.QueueSize)
	num("settle_ms", &cfg.SettleMs)
	num("settle_retry", &cfg.SettleRetry)
	num("fetch_timeout", &cfg.FetchTimeout)
	if c.IsSet("kafka") {
		cfg.Kafka.Start = c.Bool("kafka")
	}
	str("kafka_uri", &cfg.Kafka.Uri)
	return cfg, nil
}

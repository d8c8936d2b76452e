package schema

type Config struct {
	Issuer string `mapstructure:"issuer" yaml:"issuer"`
	Taxon  uint32 `mapstructure:"taxon" yaml:"taxon"`

	WsNode     string `mapstructure:"wsNode" yaml:"wsNode"`   // rippled/clio websocket
	RpcNode    string `mapstructure:"rpcNode" yaml:"rpcNode"` // clio json-rpc, needs nft_info
	IpfsGw     string `mapstructure:"ipfsGateway" yaml:"ipfsGateway"`
	ArNode     string `mapstructure:"arNode" yaml:"arNode"`
	Sqlite     string `mapstructure:"sqlite" yaml:"sqlite"` // sqlite dir; used when mysql is empty
	Mysql      string `mapstructure:"mysql" yaml:"mysql"`
	BoltDir    string `mapstructure:"boltDir" yaml:"boltDir"`
	Port       string `mapstructure:"port" yaml:"port"`
	MetricPort string `mapstructure:"metricPort" yaml:"metricPort"`

	Workers      int `mapstructure:"workers" yaml:"workers"`
	QueueSize    int `mapstructure:"queueSize" yaml:"queueSize"`
	SettleMs     int `mapstructure:"settleMs" yaml:"settleMs"`
	SettleRetry  int `mapstructure:"settleRetry" yaml:"settleRetry"`
	FetchTimeout int `mapstructure:"fetchTimeout" yaml:"fetchTimeout"` // seconds

	Kafka Kafka `mapstructure:"kafka" yaml:"kafka"`
}

type Kafka struct {
	Start bool   `mapstructure:"start" yaml:"start"`
	Uri   string `mapstructure:"uri" yaml:"uri"`
}

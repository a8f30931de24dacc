package broker

type Config struct {
	URI              string
	StreamName       string `yaml:"stream_name"`
	GroupName        string `yaml:"group_name"`
	BlockMS          int    `yaml:"block_in_ms"`
	RedeliverAfterMS int    `yaml:"redeliver_after_in_ms"`
}

type PublisherConfig struct {
	Timeout int `yaml:"timeout_in_ms"`
}

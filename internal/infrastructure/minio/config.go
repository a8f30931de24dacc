package minio

type ClientConfig struct {
	AccessKey string
	SecretKey string
	Endpoint  string `yaml:"endpoint"`
	Secure    bool   `yaml:"secure"`
}

type StoreConfig struct {
	Timeout       int64  `yaml:"timeout_in_ms"`
	Bucket        string `yaml:"bucket"`
	PartSizeBytes int64  `yaml:"part_size_bytes"`
}

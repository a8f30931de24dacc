package s3

type Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string `yaml:"bucket"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	Timeout         int64  `yaml:"timeout_in_ms"`
}

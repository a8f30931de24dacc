package library

type Config struct {
	Path string `yaml:"path"`
}

package keystore

type Config struct {
	Dir        string `yaml:"dir"`
	Passphrase string
}

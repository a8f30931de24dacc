package paymentgate

const (
	ModeGRPC  = "grpc"
	ModeAllow = "allow"
	ModeDeny  = "deny"
)

type Config struct {
	Mode     string `yaml:"mode"`
	Endpoint string `yaml:"endpoint"`
	Timeout  int64  `yaml:"timeout_in_ms"`
	Token    string `yaml:"static_token"`
}

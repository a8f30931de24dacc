package broker

type Message interface {
	ID() string
	Body() []byte
	Ack() error
	Nack() error
}

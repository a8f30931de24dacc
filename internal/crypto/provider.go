package crypto

import (
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"cipherdrop/internal/domain/failure"
)

// Provider supplies the randomness every primitive in this package draws from.
type Provider interface {
	Random() io.Reader
	Secure() bool
	Name() string
}

// RealProvider reads from the operating system CSPRNG.
type RealProvider struct{}

func (RealProvider) Random() io.Reader { return cryptorand.Reader }
func (RealProvider) Secure() bool      { return true }
func (RealProvider) Name() string      { return "real" }

// TestProvider is a deterministic, seeded source. It must never back a production build.
type TestProvider struct {
	mu  sync.Mutex
	src *rand.ChaCha8
}

func NewTestProvider(seed uint64) *TestProvider {
	var s [32]byte
	for i := range 8 {
		s[i] = byte(seed >> (8 * i))
	}

	return &TestProvider{src: rand.NewChaCha8(s)}
}

func (p *TestProvider) Random() io.Reader { return p }
func (*TestProvider) Secure() bool        { return false }
func (*TestProvider) Name() string        { return "test" }

func (p *TestProvider) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.src.Read(b)
}

// ProviderByName maps a configured provider name to an implementation.
func ProviderByName(name string) (Provider, error) {
	switch name {
	case "", "real":
		return RealProvider{}, nil
	case "test":
		return NewTestProvider(1), nil
	default:
		return nil, fmt.Errorf("unknown crypto provider %q: %w", name, failure.ErrInsecureProvider)
	}
}

// RequireSecure refuses a non-secure provider in the prod environment.
func RequireSecure(p Provider, environment string) error {
	if p == nil {
		return fmt.Errorf("no provider: %w", failure.ErrInsecureProvider)
	}

	if environment == "prod" && !p.Secure() {
		return fmt.Errorf("provider %s in %s: %w", p.Name(), environment, failure.ErrInsecureProvider)
	}

	return nil
}

func readFull(p Provider, b []byte) error {
	if p == nil {
		return fmt.Errorf("no provider: %w", failure.ErrKeyGeneration)
	}

	if _, err := io.ReadFull(p.Random(), b); err != nil {
		return fmt.Errorf("read randomness: %v: %w", err, failure.ErrKeyGeneration)
	}

	return nil
}

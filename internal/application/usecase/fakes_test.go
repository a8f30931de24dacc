package usecase

import (
	"bytes"
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	suite     = crypto.NewSuite(crypto.NewTestProvider(7), crypto.MinRSABits)
	keysOnce  sync.Once
	recipient *rsa.PrivateKey
	stranger  *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()

	keysOnce.Do(func() {
		var err error
		recipient, err = suite.Keys.GenerateKeyPair()
		require.NoError(t, err)
		stranger, err = suite.Keys.GenerateKeyPair()
		require.NoError(t, err)
	})

	return recipient, stranger
}

func fastConfig() TransferConfig {
	return TransferConfig{
		FreeLimitBytes: 1000,
		HardLimitBytes: 2000,
		TTLDays:        30,
		MaxAttempts:    3,
		BackoffBaseMS:  1,
		BackoffMaxMS:   2,
		ChunkSize:      4,
	}
}

type memStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	putFailures  int
	getFailures  int
	hideLength   bool
	corruptReads int
	removeErr    error
	removeFails  map[string]error
	puts         int
	locatorRoot  string
	afterPut     func()
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(ctx context.Context, path string, body io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	s.puts++
	fail := s.putFailures > 0
	if fail {
		s.putFailures--
	}
	s.mu.Unlock()

	if fail {
		return "", fmt.Errorf("connection reset: %w", failure.ErrNetwork)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	locator := s.locatorRoot + path

	s.mu.Lock()
	s.objects[locator] = data
	after := s.afterPut
	s.mu.Unlock()

	if after != nil {
		after()
	}

	return locator, nil
}

func (s *memStore) Get(_ context.Context, path string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getFailures > 0 {
		s.getFailures--

		return nil, 0, fmt.Errorf("503: %w", failure.ErrNetwork)
	}

	data, ok := s.objects[path]
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", path, failure.ErrNotFound)
	}

	data = append([]byte(nil), data...)
	if s.corruptReads > 0 {
		s.corruptReads--
		data[len(data)-1] ^= 0x01
	}

	size := int64(len(data))
	if s.hideLength {
		size = -1
	}

	return io.NopCloser(bytes.NewReader(data)), size, nil
}

func (s *memStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeErr != nil {
		return s.removeErr
	}

	if err, ok := s.removeFails[path]; ok {
		return err
	}

	if _, ok := s.objects[path]; !ok {
		return failure.ErrNotFound
	}

	delete(s.objects, path)

	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.objects)
}

type memDB struct {
	mu        sync.Mutex
	records   map[string]model.EncryptedMediaMetadata
	insertErr error
}

func newMemDB() *memDB { return &memDB{records: map[string]model.EncryptedMediaMetadata{}} }

func (d *memDB) Insert(_ context.Context, _ string, meta *model.EncryptedMediaMetadata) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.insertErr != nil {
		return "", d.insertErr
	}

	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	d.records[meta.ID] = *meta

	return meta.ID, nil
}

func (d *memDB) Fetch(_ context.Context, id string) (*model.EncryptedMediaMetadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, ok := d.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, failure.ErrNotFound)
	}

	return &m, nil
}

func (d *memDB) ListExpired(_ context.Context, now time.Time, exclude []string,
	limit int64,
) ([]model.EncryptedMediaMetadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.EncryptedMediaMetadata
	for _, m := range d.records {
		if !m.ExpiresAt.After(now) && !slices.Contains(exclude, m.ID) {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (d *memDB) RemoveByID(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return failure.ErrNotFound
	}
	delete(d.records, id)

	return nil
}

func (d *memDB) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.records)
}

type memPreviews struct {
	mu   sync.Mutex
	live map[string][]byte
	made int
}

func newMemPreviews() *memPreviews { return &memPreviews{live: map[string][]byte{}} }

func (p *memPreviews) Create(data []byte, _ string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.made++
	url := fmt.Sprintf("preview://%d", p.made)
	p.live[url] = data

	return url
}

func (p *memPreviews) Revoke(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.live, url)
}

func (p *memPreviews) count() (made, live int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.made, len(p.live)
}

type stubGate struct {
	token string
	err   error
	calls int
}

func (g *stubGate) AuthorizeLargeFile(context.Context, int64, string) (string, error) {
	g.calls++

	return g.token, g.err
}

type stubThumbnailer struct {
	thumb []byte
	err   error
}

func (s stubThumbnailer) Generate(context.Context, []byte, string) ([]byte, error) {
	return s.thumb, s.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.payloads = append(p.payloads, payload)

	return p.err
}

type memLibrary struct {
	mu    sync.Mutex
	saved []model.EncryptedMediaMetadata
}

func (l *memLibrary) Save(_ context.Context, meta model.EncryptedMediaMetadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.saved = append(l.saved, meta)

	return nil
}

// pausingCipher blocks inside Encrypt until released.
type pausingCipher struct {
	Cipher
	entered chan struct{}
	release chan struct{}
}

func (c *pausingCipher) Encrypt(p []byte, key *crypto.SymmetricKey) ([]byte, []byte, error) {
	close(c.entered)
	<-c.release

	return c.Cipher.Encrypt(p, key)
}

type harness struct {
	store     *memStore
	db        *memDB
	previews  *memPreviews
	gate      *stubGate
	publisher *recordingPublisher
	library   *memLibrary
	now       time.Time
}

func newHarness() *harness {
	return &harness{
		store:     newMemStore(),
		db:        newMemDB(),
		previews:  newMemPreviews(),
		gate:      &stubGate{token: "tok-1"},
		publisher: &recordingPublisher{},
		library:   &memLibrary{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (h *harness) clock() time.Time { return h.now }

func (h *harness) uploader(cfg TransferConfig, mutate ...func(*UploaderDeps)) *Uploader {
	deps := UploaderDeps{
		Keys:        suite.Keys,
		Cipher:      suite.Cipher,
		Wrapper:     suite.Wrapper,
		Store:       h.store,
		Writer:      h.db,
		Gate:        h.gate,
		Publisher:   h.publisher,
		Previews:    h.previews,
		Thumbnailer: stubThumbnailer{thumb: []byte("jpeg-thumb")},
		Now:         h.clock,
	}
	for _, m := range mutate {
		m(&deps)
	}

	return NewUploader(deps, cfg)
}

func (h *harness) downloader(cfg TransferConfig) *Downloader {
	return NewDownloader(DownloaderDeps{
		Retriever: h.db,
		Store:     h.store,
		Cipher:    suite.Cipher,
		Wrapper:   suite.Wrapper,
		Library:   h.library,
		Previews:  h.previews,
		Now:       h.clock,
	}, cfg)
}

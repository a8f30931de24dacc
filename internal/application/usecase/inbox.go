package usecase

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/domain/failure"
	"cipherdrop/internal/domain/repository/broker"
	"cipherdrop/pkg/utils"
)

// Inbox downloads transfers announced for the local identity into a directory.
type Inbox struct {
	receiver   broker.Receiver
	downloader *Downloader
	identity   string
	privateKey *rsa.PrivateKey
	dir        string
}

func NewInbox(receiver broker.Receiver, downloader *Downloader, identity string,
	privateKey *rsa.PrivateKey, dir string,
) *Inbox {
	return &Inbox{
		receiver:   receiver,
		downloader: downloader,
		identity:   identity,
		privateKey: privateKey,
		dir:        dir,
	}
}

// Run consumes notices until ctx is done.
func (i *Inbox) Run(ctx context.Context) error {
	if err := os.MkdirAll(i.dir, 0o700); err != nil {
		return fmt.Errorf("inbox dir: %w", err)
	}

	msgs, err := i.receiver.Messages(ctx, i.identity)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			i.handle(ctx, msg)
		}
	}
}

func (i *Inbox) handle(ctx context.Context, msg broker.Message) {
	notice, err := decodeNotice(msg.Body())
	if err != nil {
		logger.Warn("dropping malformed notice", "msg", msg.ID(), "err", err)
		ack(msg)

		return
	}

	if notice.Recipient != i.identity {
		ack(msg)

		return
	}

	path, err := i.Receive(ctx, notice.RecordID)
	if err != nil {
		if permanent(err) {
			logger.Error("transfer cannot be received", "record", notice.RecordID, "err", err)
			ack(msg)

			return
		}

		logger.Warn("transfer receive deferred", "record", notice.RecordID, "err", err)
		if nerr := msg.Nack(); nerr != nil {
			logger.Error("nack failed", "msg", msg.ID(), "err", nerr)
		}

		return
	}

	logger.Info("transfer received", "record", notice.RecordID, "path", path)
	ack(msg)
}

// Receive downloads one record and writes it as <recordId><ext>. The sender's
// file name never takes part in the path.
func (i *Inbox) Receive(ctx context.Context, recordID string) (string, error) {
	res, err := i.downloader.Download(ctx, DownloadRequest{
		RecordID:    recordID,
		PrivateKey:  i.privateKey,
		SkipPreview: true,
	})
	if err != nil {
		return "", err
	}
	defer clear(res.Plaintext)

	if err := os.MkdirAll(i.dir, 0o700); err != nil {
		return "", fmt.Errorf("inbox dir: %w", err)
	}

	name := filepath.Base(recordID) + utils.GetExtensionFromMimeType(res.Metadata.MimeType)
	path := filepath.Join(i.dir, name)

	if err := os.WriteFile(path, res.Plaintext, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

func permanent(err error) bool {
	for _, e := range []error{
		failure.ErrNotFound, failure.ErrKeyUnwrap, failure.ErrInvalidMetadata,
		failure.ErrIntegrity, failure.ErrValidation, failure.ErrKeyFormat,
	} {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

func ack(msg broker.Message) {
	if err := msg.Ack(); err != nil {
		logger.Error("ack failed", "msg", msg.ID(), "err", err)
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/application/usecase"
)

func HandleSend(args []string) {
	if len(args) < 5 {
		ExitOnError(errors.New("at least 3 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	recipient, path := args[3], args[4]
	conversation := recipient
	if len(args) > 5 {
		conversation = args[5]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	key, err := s.keys.RecipientKey(recipient)
	if err != nil {
		ExitOnError(err)
	}

	file, err := os.Open(path)
	if err != nil {
		ExitOnError(err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		ExitOnError(err)
	}

	uploader, err := s.uploader(ctx)
	if err != nil {
		ExitOnError(err)
	}

	result, err := uploader.Upload(ctx, usecase.UploadRequest{
		Conversation: conversation,
		Recipient:    recipient,
		RecipientKey: key,
		FileName:     filepath.Base(path),
		Size:         info.Size(),
		Body:         file,
		OnProgress:   printProgress,
	})
	if err != nil {
		ExitOnError(err)
	}

	logger.Info("transfer complete", "record", result.RecordID, "expires_at", result.Metadata.ExpiresAt)
	fmt.Println(result.RecordID) //nolint
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"golang.org/x/sync/errgroup"

	"cipherdrop"
	"cipherdrop/internal/application/usecase"
	"cipherdrop/internal/infrastructure/database"
	"cipherdrop/internal/presentation/handler"
)

func HandleRun(args []string) {
	if len(args) < 3 {
		ExitOnError(errors.New("at least 1 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	logger.Info("running cipherdrop", "version", cipherdrop.StringVersion(), "identity", s.cfg.Identity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploader, err := s.uploader(ctx)
	if err != nil {
		ExitOnError(err)
	}

	lib, err := s.localLibrary(ctx)
	if err != nil {
		ExitOnError(err)
	}

	deleter, err := s.deleter()
	if err != nil {
		ExitOnError(err)
	}

	handlers := handler.Handlers{
		Upload:   handler.NewUploadHandler(uploader, s.keys),
		Get:      handler.NewGetHandler(usecase.NewGetter(database.NewMetadataRetriever(s.db))),
		Head:     handler.NewHeadHandler(usecase.NewGetter(database.NewMetadataRetriever(s.db))),
		Delete:   handler.NewDeleteHandler(deleter),
		List:     handler.NewListHandler(lib),
		Preview:  handler.NewPreviewHandler(s.previews),
		Gatherer: s.registry,
	}

	inbox, err := s.inbox(ctx)
	if err != nil {
		logger.Warn("receiving disabled", "err", err)
	} else {
		handlers.Receive = handler.NewReceiveHandler(inbox)
	}

	e := handler.NewRouter(s.cfg.HTTP, handlers)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(s.cfg.HTTP.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return e.Shutdown(shutdownCtx)
	})

	if inbox != nil && s.cfg.Inbox.Enabled && s.broker != nil {
		g.Go(func() error {
			return inbox.Run(ctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := s.previews.Prune(); n > 0 {
					logger.Debug("expired previews released", "count", n)
				}
			}
		}
	})

	if s.cfg.Sweeper.Enabled {
		sweeper, err := s.sweeper()
		if err != nil {
			ExitOnError(err)
		}

		g.Go(func() error {
			return sweeper.Run(ctx, s.sweepInterval())
		})
	}

	logger.Info("agent listening", "address", s.cfg.HTTP.Address)

	if err := g.Wait(); err != nil {
		ExitOnError(err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/config"
	"github.com/ebaenamar/wikidata-mcp-mirror/internal/server"
	"github.com/ebaenamar/wikidata-mcp-mirror/internal/wikidata"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	client := wikidata.NewClient(cfg.WikidataAPIURL, cfg.SPARQLEndpoint, logger)
	srv := server.New(cfg, client, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler: srv.Handler(),
	}

	allowListNote := ""
	if len(cfg.AllowCIDRs) > 0 {
		allowListNote = fmt.Sprintf(" (allowed CIDRs: %s, plus localhost)", strings.Join(cfg.AllowCIDRs, ", "))
	}
	fmt.Printf("wikidata-mcp listening on http://%s:%d%s (SSE endpoint: /sse, messages: %s)\n",
		cfg.Bind,
		cfg.Port,
		allowListNote,
		cfg.MessagesPath(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		fmt.Printf("received %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = srv.Shutdown(ctx)
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"clubintake/app/client/oracle"
	"clubintake/app/client/submission"
	"clubintake/app/config"
	"clubintake/app/service/api"
	"clubintake/app/service/archive"
	"clubintake/app/service/conversation"
	"clubintake/app/service/knowledge"
	"clubintake/app/service/session"
	"clubintake/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("CLUBINTAKE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, knowledge.New)
	do.Provide(di, session.New[conversation.State])
	do.Provide(di, archive.New)
	do.Provide(di, func(i *do.Injector) (conversation.Oracle, error) {
		return oracle.New(i)
	})
	do.Provide(di, func(i *do.Injector) (conversation.Sink, error) {
		return submission.New(i)
	})
	do.Provide(di, conversation.New)
	do.Provide(di, api.New)

	apiSvc, err := do.Invoke[*api.Service](di)
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	slog.Info("Service started")

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		return apiSvc.Run(groupCtx)
	})

	if cfg.Session.TTL > 0 {
		store := do.MustInvoke[*session.Store[conversation.State]](di)

		group.Go(func() error {
			store.RunJanitor(groupCtx, cfg.Session.TTL, cfg.Session.JanitorInterval)
			return nil
		})
	}

	if err = group.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	log.Info("Shutting down...")
}

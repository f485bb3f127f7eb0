package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/unfoldingWord/tx-enqueue-job/internal/broker"
	"github.com/unfoldingWord/tx-enqueue-job/internal/cache"
	"github.com/unfoldingWord/tx-enqueue-job/internal/config"
	"github.com/unfoldingWord/tx-enqueue-job/internal/enrich"
	"github.com/unfoldingWord/tx-enqueue-job/internal/health"
	"github.com/unfoldingWord/tx-enqueue-job/internal/identity"
	"github.com/unfoldingWord/tx-enqueue-job/internal/redisholder"
	"github.com/unfoldingWord/tx-enqueue-job/internal/routing"
	"github.com/unfoldingWord/tx-enqueue-job/internal/schema"
	"github.com/unfoldingWord/tx-enqueue-job/internal/transport/handler"
	"github.com/unfoldingWord/tx-enqueue-job/internal/transport/router"
	use_case "github.com/unfoldingWord/tx-enqueue-job/internal/use-case"
)

type App struct {
	HttpServer *http.Server
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	holder, err := redisholder.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokenCache := cache.NewCache("tx:tokens", holder)
	idClient := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Timeout*time.Second)
	lookup := identity.NewCachedLookup(idClient, tokenCache, cfg.Identity.CacheTTL)

	checker := schema.NewChecker(schema.Default(), schema.KnownValues(), lookup, schema.OriginPolicy{
		PrimaryDomain: cfg.Gateway.AllowedDomain,
		DebugMode:     cfg.Gateway.DebugMode,
	})

	table := routing.NewTable(cfg.Routing, cfg.Gateway.QueuePrefix, cfg.CDN)
	brokerClient := broker.New(holder, cfg.Gateway.JobTimeout)
	monitor := health.NewMonitor(brokerClient)

	uc := use_case.New(checker, enrich.New(), table, brokerClient, monitor, cfg.Gateway.EnqueueTimeout*time.Second)

	h := handler.New(uc, cfg)
	r := router.NewRouter(h)

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout * time.Second,
	}

	return &App{
		HttpServer: s,
	}, nil
}

func (a *App) Run() error {
	log.Printf("starting server")
	return a.HttpServer.ListenAndServe()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/epic-events/crm/internal/audit"
	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/cli"
	"github.com/epic-events/crm/internal/config"
	"github.com/epic-events/crm/internal/crm"
	"github.com/epic-events/crm/internal/obs"
	"github.com/epic-events/crm/internal/store/sqlite"
)

var version = "0.3.1"

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "", "path to config.toml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("crm", version)
		return
	}

	obs.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	store := sqlite.New(db)
	if err := store.Init(ctx); err != nil {
		log.Fatalf("prepare database: %v", err)
	}

	codec, err := auth.NewCodec(cfg.Secret())
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	sessions, err := auth.NewFileSessionStore(cfg.SessionPath)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	authn, err := auth.NewAuthenticator(store.Users(), codec, sessions,
		auth.WithTokenTTL(cfg.TokenTTL.Duration),
		auth.WithRefreshGrace(cfg.RefreshGrace.Duration),
		auth.WithAudit(func(ctx context.Context, event string, fields map[string]any) {
			_ = audit.LogEvent(ctx, event, fields)
		}),
	)
	if err != nil {
		log.Fatalf("authenticator: %v", err)
	}

	users, err := crm.NewUserService(authn, store.Users())
	if err != nil {
		log.Fatal(err)
	}
	customers, err := crm.NewCustomerService(authn, store.Customers(), store.Users())
	if err != nil {
		log.Fatal(err)
	}
	contracts, err := crm.NewContractService(authn, store.Contracts(), store.Customers())
	if err != nil {
		log.Fatal(err)
	}
	events, err := crm.NewEventService(authn, store.Events(), store.Contracts(), store.Users())
	if err != nil {
		log.Fatal(err)
	}

	prompt := cli.NewPrompter()
	defer prompt.Close()

	app := &cli.App{
		Authn:          authn,
		Users:          users,
		Customers:      customers,
		Contracts:      contracts,
		Events:         events,
		BootstrapStore: store.Users(),
		InitStore:      store.Init,
		Out:            os.Stdout,
		Prompt:         prompt,
	}

	if err := app.Run(ctx, flag.Args()); err != nil {
		prompt.Close()
		log.Fatalf("crm: %v", err)
	}
}

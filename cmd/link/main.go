package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/account-mirror/internal/config"
	"github.com/dvloznov/account-mirror/internal/logger"
	"github.com/dvloznov/account-mirror/internal/provider"
)

// link exchanges a public token from the provider's Link flow for the
// long-lived access token the sync tools use. The token prints to
// stdout; stash it in the env var named by provider.access_token_env.
func main() {
	var (
		configPath  = flag.String("config", "config.toml", "Path to config file")
		publicToken = flag.String("public-token", "", "Public token from the Link flow")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *publicToken == "" {
		log.Fatal().Msg("-public-token is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	feed := provider.NewClient(
		cfg.Provider.BaseURL,
		os.Getenv(cfg.Provider.ClientIDEnv),
		os.Getenv(cfg.Provider.SecretEnv),
	)

	resp, err := feed.ExchangePublicToken(ctx, *publicToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Token exchange failed")
	}

	log.Info().Str("item_id", resp.ItemID).Msg("Linked item")

	fmt.Printf("export %s=%s\n", cfg.Provider.AccessTokenEnv, resp.AccessToken)
}

package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/apiclient"
	intconfig "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/favorites"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/tui"
)

var favoritesFlags struct {
	config  string
	baseURL string
	token   string
	limit   int
	session string
	query   string
	debug   bool
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Browse your favorite recipes in the terminal",
	Long: `Open the "my favorites" list against a running gateway or recipe API.

The starting position can be given as a query string, for example
  wongnok favorites --query "page=2&search=tom"`,
	RunE: runFavorites,
}

func init() {
	f := favoritesCmd.Flags()
	f.StringVar(&favoritesFlags.config, "config", intconfig.DefaultClientPath(), "client config file (yaml)")
	f.StringVar(&favoritesFlags.baseURL, "base-url", "", "API base URL, overrides the config file")
	f.StringVar(&favoritesFlags.token, "token", "", "bearer token, overrides the config file")
	f.IntVar(&favoritesFlags.limit, "limit", 0, "page size, overrides the config file")
	f.StringVar(&favoritesFlags.session, "session", "", "gateway session cookie, enables live updates")
	f.StringVar(&favoritesFlags.query, "query", "", "initial ?page=&search= query")
	f.BoolVar(&favoritesFlags.debug, "debug", false, "log to wongnok-favorites.log")
}

func runFavorites(cmd *cobra.Command, _ []string) error {
	cfg, err := intconfig.LoadClient(favoritesFlags.config)
	if err != nil {
		return err
	}
	if favoritesFlags.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(favoritesFlags.baseURL, "/")
	}
	if favoritesFlags.token != "" {
		cfg.Token = favoritesFlags.token
	}
	if favoritesFlags.limit > 0 {
		cfg.Limit = favoritesFlags.limit
	}
	if favoritesFlags.session != "" {
		cfg.Session = favoritesFlags.session
	}
	if cfg.Token == "" {
		return fmt.Errorf("no token: set token in %s or pass --token", favoritesFlags.config)
	}

	// the terminal belongs to the view, so logs go to a file or nowhere
	log := zap.NewNop()
	if favoritesFlags.debug {
		zc := zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{"wongnok-favorites.log"}
		zc.ErrorOutputPaths = []string{"wongnok-favorites.log"}
		if log, err = zc.Build(); err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
	}

	userID := cfg.UserID
	if userID == "" {
		userID = apiclient.TokenSubject(cfg.Token)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := events.NewBus(log)
	api := apiclient.New(cfg.BaseURL, apiclient.StaticToken(cfg.Token), log)
	ctrl := favorites.New(api, favorites.ParseQuery(strings.TrimPrefix(favoritesFlags.query, "?"), cfg.Limit), favorites.Options{
		Limit:  cfg.Limit,
		Bus:    bus,
		UserID: userID,
		Log:    log,
	})
	defer ctrl.Wait()
	defer ctrl.Close()

	model := tui.NewFavoritesModel(ctrl)
	model.Follow(bus, userID)

	var wg sync.WaitGroup
	if cfg.Session != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			followGateway(ctx, api, cfg.Session, bus, log)
		}()
	}
	defer wg.Wait()
	defer cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// followGateway relays the gateway event stream into bus, reconnecting with
// a capped backoff until ctx ends. A rejected session stops it for good.
func followGateway(ctx context.Context, api *apiclient.Client, session string, bus *events.Bus, log *zap.Logger) {
	backoff := time.Second
	for {
		err := api.StreamFavoriteEvents(ctx, session, bus.FavoriteChanged.Publish)
		if ctx.Err() != nil {
			return
		}
		if domain.IsUnauthorized(err) {
			log.Warn("gateway session rejected, live updates off", zap.Error(err))
			return
		}
		log.Debug("event stream ended, reconnecting", zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

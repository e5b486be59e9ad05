package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/picolog/cmd/picolog/internal"
	"github.com/tinyland-inc/picolog/pkg/auditlog"
	"github.com/tinyland-inc/picolog/pkg/bot"
	"github.com/tinyland-inc/picolog/pkg/commands"
	"github.com/tinyland-inc/picolog/pkg/commands/logs"
	"github.com/tinyland-inc/picolog/pkg/objstore"
)

// drainTimeout bounds how long shutdown waits for in-flight handler tasks.
const drainTimeout = 10 * time.Second

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if debug || cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	secret, err := cfg.Logs.SecretKey()
	if err != nil {
		return err
	}
	keyring := auditlog.NewKeyring(secret)

	store, err := auditlog.Open(cfg.Store.Path, keyring, log)
	if err != nil {
		return err
	}
	defer store.Close()

	objects, err := objstore.New(cfg.Objects)
	if err != nil {
		return err
	}

	b, err := bot.New(cfg.Discord.Token, cfg.Discord.Prefix, log)
	if err != nil {
		return err
	}

	for _, cmd := range []bot.Command{
		commands.Say{},
		commands.Ping{},
		commands.Help{},
		logs.New(store, keyring, objects, cfg.Discord.OwnerID, cfg.Logs.FilesBaseURL, log),
	} {
		if err := b.RegisterCommand(cmd); err != nil {
			return fmt.Errorf("register command: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		return err
	}
	log.Info().Str("prefix", cfg.Discord.Prefix).Msg("gateway connected")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	log.Info().Msg("shutting down, draining handlers")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer stopCancel()
	if err := b.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}

	return nil
}

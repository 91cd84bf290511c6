package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "github.com/atulbakery/ishan-assistant/src/ai/providers"
	"github.com/atulbakery/ishan-assistant/src/api/config"
	"github.com/atulbakery/ishan-assistant/src/api/data"
	"github.com/atulbakery/ishan-assistant/src/api/webserver"
	aiconfig "github.com/atulbakery/ishan-assistant/src/config"
	"github.com/atulbakery/ishan-assistant/src/discord"
	"github.com/atulbakery/ishan-assistant/src/gateway"
	"github.com/atulbakery/ishan-assistant/src/logging"
	"github.com/atulbakery/ishan-assistant/src/order"
	"github.com/atulbakery/ishan-assistant/src/persona"
	"github.com/atulbakery/ishan-assistant/src/session"
)

func main() {
	var (
		logLevel  string
		logPretty bool
	)
	root := &cobra.Command{
		Use:          "ishan-assistant",
		Short:        "Bakery sales assistant chat service",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, logPretty)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "trace|debug|info|warn|error")
	root.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "human-readable console logs")

	root.AddCommand(newServeCmd(), newBroadcastCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	f.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for sessions and the order stream (empty keeps sessions in memory)")
	f.StringVar(&cfg.MySQLDSN, "mysql-dsn", cfg.MySQLDSN, "MySQL DSN for the order ledger and settings (empty disables both)")
	f.StringVar(&cfg.PersonaFile, "persona-file", cfg.PersonaFile, "YAML persona catalog replacing the built-in one")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "CORS origins")
	f.DurationVar(&cfg.ReplyDelayMin, "reply-delay-min", cfg.ReplyDelayMin, "minimum typing delay")
	f.DurationVar(&cfg.ReplyDelayMax, "reply-delay-max", cfg.ReplyDelayMax, "maximum typing delay")
	f.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "messages per minute per client (0 disables)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	catalog, err := persona.LoadFile(cfg.PersonaFile)
	if err != nil {
		return err
	}

	ai := aiconfig.LoadAIFromEnv()
	gw := gateway.New(ai.FactoryConfig())
	log.Info().Str("provider", ai.Provider).Str("model", ai.Model).Dur("timeout", gw.Timeout()).Msg("model gateway ready")

	var (
		store session.Store = session.NewMemoryStore()
		sinks []session.OrderSink
		db    *gorm.DB
		rdb   *redis.Client
	)

	if cfg.RedisURL != "" {
		rdb = data.MustRedis(cfg.RedisURL)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "redis ping")
		}
		store = data.NewSessionStore(rdb, cfg.SessionTTL)
		sinks = append(sinks, data.NewOrderStream(rdb))
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
	}

	var ledger webserver.OrderLister
	if cfg.MySQLDSN != "" {
		db = data.MustMySQL(cfg.MySQLDSN)
		if err := data.Migrate(db); err != nil {
			return errors.Wrap(err, "migrate")
		}
		if err := data.LoadSettings(db); err != nil {
			log.Warn().Err(err).Msg("load settings")
		}
		l := data.NewLedger(db)
		ledger = l
		sinks = append(sinks, l)
	}

	shopName := catalog.First().ShopName
	if cfg.DiscordToken != "" {
		channel := func() string {
			return aiconfig.GetSetting("discord_channel_id", "DISCORD_CHANNEL_ID", cfg.DiscordChannelID)
		}
		n, dg, err := discord.Open(cfg.DiscordToken, channel, shopName)
		if err != nil {
			return err
		}
		defer dg.Close()
		sinks = append(sinks, n)
	}

	svc := session.NewService(session.Config{
		Catalog:        catalog,
		Store:          store,
		Generator:      gw,
		Sinks:          sinks,
		GatewayTimeout: gw.Timeout(),
		MinDelay:       cfg.ReplyDelayMin,
		MaxDelay:       cfg.ReplyDelayMax,
		Location:       session.LoadLocation(cfg.ShopTimezone),
		MessagingHost:  cfg.MessagingHost,
		ShopNumber: func() string {
			return aiconfig.GetSetting("shop_number", "SHOP_NUMBER", order.DefaultShopNumber)
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	router := webserver.New(gctx, webserver.Deps{
		Config:      cfg,
		Service:     svc,
		Broadcaster: gw,
		Ledger:      ledger,
		DB:          db,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Ishan Assistant API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "http")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	if db != nil {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := data.LoadSettings(db); err != nil {
						log.Warn().Err(err).Msg("refresh settings")
					}
				}
			}
		})
	}

	err = g.Wait()
	log.Info().Msg("shut down")
	return err
}

func newBroadcastCmd() *cobra.Command {
	var audience, tone string
	cmd := &cobra.Command{
		Use:   "broadcast <topic>",
		Short: "Draft a WhatsApp marketing broadcast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gw := gateway.New(aiconfig.LoadAIFromEnv().FactoryConfig())
			text := gw.GenerateBroadcast(cmd.Context(), args[0], audience, tone)
			shop := cfg.ShopNumber
			if shop == "" {
				shop = order.DefaultShopNumber
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), order.HandoffURL(cfg.MessagingHost, shop, text))
			return nil
		},
	}
	cmd.Flags().StringVar(&audience, "audience", "Local customers", "target audience")
	cmd.Flags().StringVar(&tone, "tone", gateway.DefaultTone, "tone of voice")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VTGare/member-counter/bot"
	"github.com/VTGare/member-counter/handlers"
	"github.com/VTGare/member-counter/internal/config"
	"github.com/VTGare/member-counter/internal/logger"
	"github.com/VTGare/member-counter/internal/metrics"
	"github.com/bwmarrin/discordgo"
	"github.com/servusdei2018/shards"
)

func initialiseShardManager(b *bot.Bot, token string) error {
	mgr, err := shards.New("Bot " + token)
	if err != nil {
		return err
	}

	mgr.RegisterIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildMembers)
	for _, handler := range handlers.All(b) {
		mgr.AddHandler(handler)
	}

	b.WithShardManager(mgr)
	return nil
}

func main() {
	cfg, err := config.Load("config.json")
	if err != nil {
		fmt.Println("failed to load config: ", err)
		os.Exit(1)
	}

	log, flush, err := logger.New(cfg.Sentry)
	if err != nil {
		fmt.Println("failed to initialise logger: ", err)
		os.Exit(1)
	}
	defer flush()

	for _, notice := range cfg.Notices {
		log.Warn(notice)
	}

	b := bot.New(cfg, log)
	if err := initialiseShardManager(b, cfg.Discord.Token); err != nil {
		log.Fatalf("failed to initialise a shard manager: %v", err)
	}

	var server *metrics.Server
	if addr := cfg.Metrics.Address; addr != "" {
		server = metrics.NewServer(addr, b.Metrics, b.Registry.Len, log)
		server.Start()
	}

	if err := b.Open(); err != nil {
		log.Fatalf("failed to open a session: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Info("shutting down")
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.With("error", err).Warn("failed to shut down metrics server")
		}
	}

	if err := b.Close(); err != nil {
		log.With("error", err).Warn("failed to close shards")
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/jose-valero/guild-music-bot/internal/adapters/audio"
	discordrouter "github.com/jose-valero/guild-music-bot/internal/adapters/discord"
	"github.com/jose-valero/guild-music-bot/internal/adapters/httpapi"
	"github.com/jose-valero/guild-music-bot/internal/app/command"
	"github.com/jose-valero/guild-music-bot/internal/app/service"
	"github.com/jose-valero/guild-music-bot/internal/infra/config"
	"github.com/jose-valero/guild-music-bot/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(db, log); err != nil {
		return err
	}
	log.Info("✅ DB lista y migrada")

	// Repos
	queueRepo := storage.NewQueueRepo(db, cfg.QueueDeleteBatch)
	allowRepo := storage.NewAllowlistRepo(db)
	sessionRepo := storage.NewSessionRepo(db)

	// Services
	audioClient := audio.New(cfg.AudioServerURL, cfg.AudioServerPassword)
	queueSvc := service.NewQueueService(queueRepo, log, service.QueueOptions{
		StoreTimeout: cfg.StoreTimeout,
		CacheSize:    cfg.QueueCacheSize,
		CacheTTL:     cfg.QueueCacheTTL,
	})
	playerSvc := service.NewPlayerService(queueSvc, audioClient, sessionRepo, cfg.StoreTimeout, log)
	gate := service.NewAccessGate(allowRepo, cfg.StoreTimeout, log)

	catalog, err := command.NewCatalog(append([]command.Command{command.Ping()}, service.MusicCommands(queueSvc, playerSvc)...)...)
	if err != nil {
		return err
	}
	dispatcher := command.NewDispatcher(catalog, gate, log, command.Options{
		Timeout:       cfg.CommandTimeout,
		AccessContact: cfg.AccessContact,
		SelfHostURL:   cfg.SelfHostURL,
	})

	// Webhook del audio + health/metrics
	web := httpapi.New(cfg.HTTPAddr, cfg.AudioEventsSecret, db, playerSvc.OnTrackEvent, log)
	go func() {
		if err := web.Start(); err != nil {
			log.Error("http server", "err", err)
		}
	}()

	// Discord
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		return err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	log.Info("✅ Conectado", "user", s.State.User.Username, "id", s.State.User.ID)

	r := discordrouter.NewRouter(s, dispatcher, []rune(cfg.CommandPrefix)[0], cfg.DiscordGuild, log)
	if err := r.Register(); err != nil {
		return err
	}
	r.Handlers()

	// sesiones de voz que quedaron abiertas antes del reinicio
	go func() {
		rctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		sessions, err := sessionRepo.ListAll(rctx)
		if err != nil {
			log.Warn("listing sessions", "err", err)
			return
		}
		playerSvc.Resume(rctx, sessions)
		log.Info("sesiones retomadas", "count", len(sessions))
	}()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return web.Shutdown(sctx)
}

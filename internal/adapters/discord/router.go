package discord

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

// Router traduce eventos de Discord a invocaciones del dispatcher y devuelve la respuesta.
type Router struct {
	s          *discordgo.Session
	rest       restClient
	state      stateReader
	dispatcher *command.Dispatcher
	trigger    rune
	// guildID vacío = comandos globales
	guildID string
	notices *keyLimiter
	log     *slog.Logger
}

func NewRouter(s *discordgo.Session, dispatcher *command.Dispatcher, trigger rune, guildID string, log *slog.Logger) *Router {
	r := &Router{
		s:          s,
		dispatcher: dispatcher,
		trigger:    trigger,
		guildID:    guildID,
		notices:    newKeyLimiter(time.Minute),
		log:        log.With("component", "discord"),
	}
	if s != nil {
		r.rest = s
		if s.State != nil {
			r.state = s.State
		}
	}
	return r
}

// Register pisa los slash commands con los del catálogo (en un guild si hay guildID, si no globales).
func (r *Router) Register() error {
	appID := r.s.State.User.ID
	cmds := applicationCommands(r.dispatcher.Catalog().Descriptors())
	if _, err := r.s.ApplicationCommandBulkOverwrite(appID, r.guildID, cmds); err != nil {
		return fmt.Errorf("registrando comandos: %w", err)
	}
	r.log.Info("✅ comandos registrados", "count", len(cmds), "guild", r.guildID)
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		r.handleSlashCommand(ic)
	})
	r.s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		r.handleMessage(m.Message)
	})
}

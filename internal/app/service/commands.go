package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
	"github.com/jose-valero/guild-music-bot/internal/domain"
)

const queueListLimit = 10

// MusicCommands arma los comandos de música sobre la cola y el player.
func MusicCommands(q *QueueService, p *PlayerService) []command.Command {
	return []command.Command{
		{
			Descriptor: command.Descriptor{
				Name:        "play",
				Description: "Agrega una canción (URL o búsqueda) a la cola",
				Cooldown:    2 * time.Second,
				Params:      []command.Param{{Name: "query", Description: "URL o texto a buscar", Required: true}},
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				query, err := inv.RequireParam("query")
				if err != nil {
					return nil, err
				}
				pos, err := q.Enqueue(ctx, inv.GuildID, query, inv.UserID)
				if err != nil {
					return nil, err
				}
				// la pista ya quedó en la cola; si el audio falla no es un error del comando
				if playing, _ := p.Started(ctx, inv.GuildID, pos); playing {
					return command.Success{Message: fmt.Sprintf("▶️ Sonando: **%s** (posición %d)", query, pos)}, nil
				}
				return command.Success{Message: fmt.Sprintf("🎶 Agregado a la cola: **%s** (posición %d)", query, pos)}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:        "skip",
				Description: "Salta la canción actual",
				Cooldown:    2 * time.Second,
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				skipped, ok, err := p.Skip(ctx, inv.GuildID)
				if err != nil {
					return nil, err
				}
				if !ok {
					return command.Success{Message: "ℹ️ La cola está vacía, no hay nada para saltar.", Ephemeral: true}, nil
				}
				msg := fmt.Sprintf("⏭️ Saltada: **%s**", skipped.TrackRef)
				if next, ok, err := q.PeekFront(ctx, inv.GuildID); err == nil && ok {
					msg += fmt.Sprintf("\n▶️ Ahora: **%s**", next.TrackRef)
				}
				return command.Success{Message: msg}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:        "queue",
				Description: "Muestra la cola",
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				items, err := q.List(ctx, inv.GuildID, queueListLimit)
				if err != nil {
					return nil, err
				}
				if len(items) == 0 {
					return command.Success{Message: "ℹ️ La cola está vacía."}, nil
				}
				total, err := q.Size(ctx, inv.GuildID)
				if err != nil {
					return nil, err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "📋 **Cola actual** (%d)\n", total)
				for i, it := range items {
					mark := ""
					if i == 0 {
						mark = " ▶️"
					}
					fmt.Fprintf(&b, "%d) **%s**%s", i+1, it.TrackRef, mark)
					if it.RequestedBy != "" {
						fmt.Fprintf(&b, " · <@%s>", it.RequestedBy)
					}
					b.WriteString("\n")
				}
				if total > len(items) {
					fmt.Fprintf(&b, "… y %d más", total-len(items))
				}
				return command.Success{Message: b.String()}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:        "current",
				Description: "Muestra lo que está sonando",
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				front, ok, err := q.PeekFront(ctx, inv.GuildID)
				if err != nil {
					return nil, err
				}
				if !ok {
					return command.Success{Message: "ℹ️ No hay nada sonando."}, nil
				}
				return command.Success{Message: fmt.Sprintf("▶️ Sonando: **%s**", front.TrackRef)}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:                "clear",
				Description:         "Vacía la cola",
				Cooldown:            10 * time.Second,
				RequiredPermissions: []string{command.PermManageMessages},
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				n, err := p.Clear(ctx, inv.GuildID)
				if err != nil {
					return nil, err
				}
				return command.Success{Message: fmt.Sprintf("🧹 Cola vaciada (%d pistas).", n)}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:        "join",
				Description: "Conecta el bot a tu canal de voz",
				Cooldown:    5 * time.Second,
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				if inv.VoiceChannelID == "" {
					return command.Failure{
						Message: "🎧 Tenés que estar en un canal de voz.",
						Cause:   domain.ErrInvalidParameters,
					}, nil
				}
				started, err := p.Join(ctx, inv.GuildID, inv.VoiceChannelID, inv.ChannelID)
				if errors.Is(err, domain.ErrAudioUnavailable) {
					return command.Failure{Message: "No pude conectar con el servidor de audio.", Cause: err}, nil
				}
				if err != nil {
					return nil, err
				}
				msg := fmt.Sprintf("🔊 Conectado a <#%s>.", inv.VoiceChannelID)
				if started != "" {
					msg += fmt.Sprintf("\n▶️ Sonando: **%s**", started)
				}
				return command.Success{Message: msg}, nil
			},
		},
		{
			Descriptor: command.Descriptor{
				Name:        "leave",
				Description: "Desconecta el bot del canal de voz",
				Cooldown:    5 * time.Second,
			},
			Handler: func(ctx context.Context, inv *command.Invocation) (command.Result, error) {
				if err := p.Leave(ctx, inv.GuildID); err != nil {
					return nil, err
				}
				return command.Success{Message: "👋 Me fui del canal de voz."}, nil
			},
		},
	}
}

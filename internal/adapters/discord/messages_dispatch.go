package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

// handleMessage atiende los comandos por prefijo ("!play ..."). Todo lo que no parezca comando se ignora.
func (r *Router) handleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	inv, ok := r.prefixInvocation(m)
	if !ok {
		return
	}
	log := r.log.With("cmd", inv.CommandName, "guild", inv.GuildID, "user", inv.UserID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in prefix handler", "panic", rec)
		}
	}()

	done := step(log, "dispatch")
	res := r.dispatcher.Dispatch(context.Background(), inv)
	done()

	// un guild sin acceso que spamea no recibe un aviso por mensaje
	if _, unauthorized := res.(command.Unauthorized); unauthorized && !r.notices.Allow(m.ChannelID) {
		return
	}
	r.replyMessage(m, command.Render(res))
}

func (r *Router) prefixInvocation(m *discordgo.Message) (command.Invocation, bool) {
	catalog := r.dispatcher.Catalog()
	name, args, ok := command.ParsePrefix(catalog, r.trigger, m.Content)
	if !ok {
		return command.Invocation{}, false
	}
	cmd, _ := catalog.Lookup(name)
	return command.Invocation{
		CommandName:    name,
		GuildID:        m.GuildID,
		UserID:         m.Author.ID,
		ChannelID:      m.ChannelID,
		VoiceChannelID: r.voiceChannelOf(m.GuildID, m.Author.ID),
		Permissions:    r.channelPermissions(m.GuildID, m.Author.ID, m.ChannelID),
		Params:         command.BindArgs(cmd.Descriptor, args),
		Args:           args,
		Source:         command.SourcePrefix,
	}, true
}

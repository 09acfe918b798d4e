package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

func (r *Router) handleSlashCommand(ic *discordgo.InteractionCreate) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return
	}
	inv := r.slashInvocation(ic)
	log := r.log.With("cmd", inv.CommandName, "guild", inv.GuildID, "user", inv.UserID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in slash handler", "panic", rec)
		}
	}()

	deferred := r.deferPublic(ic) == nil

	done := step(log, "dispatch")
	res := r.dispatcher.Dispatch(context.Background(), inv)
	done()

	r.replySlash(ic, command.Render(res), deferred)
}

func (r *Router) slashInvocation(ic *discordgo.InteractionCreate) command.Invocation {
	data := ic.ApplicationCommandData()
	inv := command.Invocation{
		CommandName: data.Name,
		GuildID:     ic.GuildID,
		UserID:      interactionUserID(ic),
		ChannelID:   ic.ChannelID,
		Params:      slashParams(data.Options),
		Source:      command.SourceSlash,
	}
	if ic.Member != nil {
		inv.Permissions = permissionNames(ic.Member.Permissions)
	}
	inv.VoiceChannelID = r.voiceChannelOf(inv.GuildID, inv.UserID)
	return inv
}

package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

// deferPublic reserva la respuesta (tenemos 3s para contestar y el comando puede tardar más).
func (r *Router) deferPublic(ic *discordgo.InteractionCreate) error {
	err := r.rest.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		r.log.Warn("defer interaction", "err", err)
	}
	return err
}

// replySlash: lo público edita la respuesta diferida; lo privado la borra y manda un followup efímero.
func (r *Router) replySlash(ic *discordgo.InteractionCreate, reply command.Reply, deferred bool) {
	content := truncate(reply.Content)
	if !deferred {
		r.respondDirect(ic, content, reply.Ephemeral)
		return
	}
	if !reply.Ephemeral {
		if _, err := r.rest.InteractionResponseEdit(ic.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
			r.log.Warn("edit interaction response", "err", err)
		}
		return
	}
	if err := r.rest.InteractionResponseDelete(ic.Interaction); err != nil {
		r.log.Debug("delete deferred response", "err", err)
	}
	_, err := r.rest.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err == nil {
		return
	}
	// webhook desconocido: todavía no hubo respuesta, contestamos directo
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
		r.respondDirect(ic, content, true)
		return
	}
	r.log.Warn("followup", "err", err)
}

func (r *Router) respondDirect(ic *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.rest.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		r.log.Warn("respond interaction", "err", err)
	}
}

// dmClosedNotice va al canal cuando una respuesta privada no se pudo mandar por DM.
const dmClosedNotice = "📬 No pude mandarte la respuesta por DM. Abrí tus mensajes directos o usá el comando con `/`."

// replyMessage: en prefijo no hay efímeros, así que lo privado va por DM. Si el DM falla,
// al canal sólo va un aviso genérico, nunca el contenido.
func (r *Router) replyMessage(m *discordgo.Message, reply command.Reply) {
	content := truncate(reply.Content)
	if reply.Ephemeral && m.GuildID != "" {
		err := r.sendDM(m.Author.ID, content)
		if err == nil {
			return
		}
		r.log.Debug("dm failed, posting notice", "user", m.Author.ID, "err", err)
		content = dmClosedNotice
	}
	if _, err := r.rest.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		r.log.Warn("reply message", "channel", m.ChannelID, "err", err)
	}
}

func (r *Router) sendDM(userID, content string) error {
	ch, err := r.rest.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = r.rest.ChannelMessageSend(ch.ID, content)
	return err
}

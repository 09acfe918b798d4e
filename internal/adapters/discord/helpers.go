package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// slashParams: las opciones del slash command van 1:1 a Params.
func slashParams(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	params := make(map[string]string, len(opts))
	for _, o := range opts {
		if o == nil || o.Value == nil {
			continue
		}
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			params[o.Name] = strings.TrimSpace(o.StringValue())
		default:
			params[o.Name] = fmt.Sprint(o.Value)
		}
	}
	return params
}

// userID de una interacción: Member en guild, User en DM.
func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

// Discord corta en 2000 caracteres.
func truncate(msg string) string {
	const limit = 2000
	r := []rune(msg)
	if len(r) <= limit {
		return msg
	}
	return string(r[:limit-1]) + "…"
}

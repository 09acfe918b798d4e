package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

// applicationCommands arma los slash commands a partir del catálogo. Todo parámetro es string.
func applicationCommands(descs []command.Descriptor) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(descs))
	for _, d := range descs {
		dm := d.Global
		ac := &discordgo.ApplicationCommand{
			Name:                     d.Name,
			Description:              d.Description,
			DMPermission:             &dm,
			DefaultMemberPermissions: defaultMemberPermissions(d.RequiredPermissions),
		}
		if ac.Description == "" {
			ac.Description = d.Name
		}
		for _, p := range d.Params {
			desc := p.Description
			if desc == "" {
				desc = p.Name
			}
			ac.Options = append(ac.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        p.Name,
				Description: desc,
				Required:    p.Required,
			})
		}
		out = append(out, ac)
	}
	return out
}

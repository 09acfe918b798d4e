package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/guild-music-bot/internal/app/command"
)

var permissionBits = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionAdministrator, command.PermAdministrator},
	{discordgo.PermissionManageServer, command.PermManageGuild},
	{discordgo.PermissionManageMessages, command.PermManageMessages},
	{discordgo.PermissionVoiceConnect, command.PermConnect},
	{discordgo.PermissionVoiceSpeak, command.PermSpeak},
}

// permissionNames traduce el bitset de Discord a los nombres que entiende el dispatcher.
func permissionNames(bits int64) []string {
	var out []string
	for _, p := range permissionBits {
		if bits&p.bit != 0 {
			out = append(out, p.name)
		}
	}
	return out
}

// defaultMemberPermissions oculta el comando a quien no tenga los permisos (el dispatcher igual los chequea).
func defaultMemberPermissions(names []string) *int64 {
	if len(names) == 0 {
		return nil
	}
	var bits int64
	for _, n := range names {
		for _, p := range permissionBits {
			if p.name == n {
				bits |= p.bit
			}
		}
	}
	return &bits
}

package command

import (
	"fmt"
	"strings"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

type Source string

const (
	SourceSlash  Source = "slash"
	SourcePrefix Source = "prefix"
)

// Invocation es la forma normalizada de un comando, venga de un slash o de un mensaje con prefijo.
type Invocation struct {
	ID          string
	CommandName string
	GuildID     string // vacío en DMs
	UserID      string
	ChannelID   string // canal donde se responde
	// canal de voz del usuario al momento de invocar (si está en uno)
	VoiceChannelID string
	Permissions    []string
	Params         map[string]string
	Args           []string
	Source         Source
}

func (inv *Invocation) Param(name string) string {
	return strings.TrimSpace(inv.Params[name])
}

// RequireParam devuelve ErrInvalidParameters si falta.
func (inv *Invocation) RequireParam(name string) (string, error) {
	v := inv.Param(name)
	if v == "" {
		return "", fmt.Errorf("missing %q: %w", name, domain.ErrInvalidParameters)
	}
	return v, nil
}

func (inv *Invocation) hasPermission(p string) bool {
	for _, have := range inv.Permissions {
		if have == p || have == PermAdministrator {
			return true
		}
	}
	return false
}

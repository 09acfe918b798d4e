package command

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func Ping() Command {
	return Command{
		Descriptor: Descriptor{
			Name:        "ping",
			Description: "Responde pong",
			Cooldown:    5 * time.Second,
			Global:      true,
		},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			return Success{Message: "🏓 Pong!", Ephemeral: true}, nil
		},
	}
}

func helpCommand(c *Catalog) Command {
	return Command{
		Descriptor: Descriptor{
			Name:        "help",
			Description: "Lista los comandos disponibles",
			Global:      true,
		},
		Handler: func(ctx context.Context, inv *Invocation) (Result, error) {
			var b strings.Builder
			b.WriteString("📖 **Comandos**\n")
			for _, d := range c.Descriptors() {
				fmt.Fprintf(&b, "• `%s`: %s", d.Usage("/"), d.Description)
				if d.Cooldown > 0 {
					fmt.Fprintf(&b, " *(cooldown %s)*", d.Cooldown)
				}
				b.WriteString("\n")
			}
			return Success{Message: b.String(), Ephemeral: true}, nil
		},
	}
}

package command

import (
	"fmt"
	"math"
	"time"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

// Result es cerrado: sólo Success, Failure, Cooldown y Unauthorized lo implementan.
type Result interface {
	result()
}

type Success struct {
	Message   string
	Ephemeral bool
}

// Failure siempre es privado.
type Failure struct {
	Message string
	Cause   error
}

type Cooldown struct {
	Command   string
	Remaining time.Duration
}

type Unauthorized struct {
	Message string
}

func (Success) result()      {}
func (Failure) result()      {}
func (Cooldown) result()     {}
func (Unauthorized) result() {}

// RemainingSeconds redondea hacia arriba: 0.2s restantes se muestran como 1s.
func (c Cooldown) RemainingSeconds() int {
	return int(math.Ceil(c.Remaining.Seconds()))
}

// Reply es lo que el transporte tiene que mandar.
type Reply struct {
	Content   string
	Ephemeral bool
}

func Render(r Result) Reply {
	switch v := r.(type) {
	case Success:
		msg := v.Message
		if msg == "" {
			msg = "✅ Listo."
		}
		return Reply{Content: msg, Ephemeral: v.Ephemeral}
	case Failure:
		return Reply{Content: "⚠️ " + v.Message, Ephemeral: true}
	case Cooldown:
		return Reply{
			Content:   fmt.Sprintf("⏳ Esperá %ds antes de usar `%s` otra vez.", v.RemainingSeconds(), v.Command),
			Ephemeral: true,
		}
	case Unauthorized:
		return Reply{Content: "🔒 " + v.Message, Ephemeral: true}
	}
	panic(fmt.Sprintf("command: unknown result %T", r))
}

func outcome(r Result) string {
	switch r.(type) {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Cooldown:
		return "cooldown"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Err traduce un Result al sentinel de domain. Success devuelve nil.
func Err(r Result) error {
	switch v := r.(type) {
	case Failure:
		if v.Cause != nil {
			return v.Cause
		}
		return domain.ErrHandlerFault
	case Cooldown:
		return domain.ErrCooldownActive
	case Unauthorized:
		return domain.ErrUnauthorizedGuild
	}
	return nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jose-valero/guild-music-bot/internal/domain"
)

// Gate decide si un guild puede usar comandos. Nunca devuelve error: ante fallo, false.
type Gate interface {
	IsGuildAuthorized(ctx context.Context, guildID string) bool
}

type Options struct {
	Timeout       time.Duration
	AccessContact string
	SelfHostURL   string
	Now           func() time.Time
}

type Dispatcher struct {
	catalog   *Catalog
	gate      Gate
	cooldowns *Cooldowns
	log       *slog.Logger
	opts      Options
}

func NewDispatcher(catalog *Catalog, gate Gate, log *slog.Logger, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 12 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		catalog:   catalog,
		gate:      gate,
		cooldowns: NewCooldowns(opts.Now),
		log:       log.With("component", "dispatch"),
		opts:      opts,
	}
}

func (d *Dispatcher) Catalog() *Catalog { return d.catalog }

// Dispatch corre el pipeline completo. Nunca hace panic ni devuelve nil.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) Result {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	start := time.Now()
	log := d.log.With("inv", inv.ID, "cmd", inv.CommandName, "guild", inv.GuildID, "user", inv.UserID, "src", inv.Source)

	res := d.run(ctx, &inv, log)

	dur := time.Since(start)
	commandsTotal.WithLabelValues(metricName(d.catalog, inv.CommandName), outcome(res)).Inc()
	commandDuration.WithLabelValues(metricName(d.catalog, inv.CommandName)).Observe(dur.Seconds())
	switch err := Err(res); {
	case err == nil:
		log.Info("command done", "outcome", outcome(res), "dur", dur)
	case errors.Is(err, domain.ErrHandlerFault), errors.Is(err, domain.ErrStoreUnavailable):
		log.Warn("command failed", "outcome", outcome(res), "dur", dur, "err", err)
	default:
		log.Info("command rejected", "outcome", outcome(res), "dur", dur, "err", err)
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, inv *Invocation, log *slog.Logger) Result {
	// 1) catálogo
	cmd, ok := d.catalog.Lookup(inv.CommandName)
	if !ok {
		return Failure{Message: "unknown command", Cause: domain.ErrUnknownCommand}
	}

	// 2) allowlist
	if !cmd.Global {
		if inv.GuildID == "" {
			return Unauthorized{Message: "Este comando sólo funciona dentro de un servidor."}
		}
		if !d.gate.IsGuildAuthorized(ctx, inv.GuildID) {
			return Unauthorized{Message: d.unauthorizedMessage()}
		}
	}
	for _, p := range cmd.RequiredPermissions {
		if !inv.hasPermission(p) {
			return Unauthorized{Message: fmt.Sprintf("Necesitás el permiso **%s** para usar `%s`.", p, cmd.Name)}
		}
	}

	// 3) cooldown
	if cmd.Cooldown > 0 {
		remaining, ok := d.cooldowns.Reserve(cmd.Name, inv.UserID, cmd.Cooldown)
		if !ok {
			return Cooldown{Command: cmd.Name, Remaining: remaining}
		}
	}

	// 4) handler
	if inv.Params == nil {
		inv.Params = map[string]string{}
	}
	res := d.execute(ctx, cmd, inv, log)

	if cmd.Cooldown > 0 {
		if _, ok := res.(Success); ok {
			d.cooldowns.Commit(cmd.Name, inv.UserID, cmd.Cooldown)
		} else {
			d.cooldowns.Release(cmd.Name, inv.UserID)
		}
	}
	return res
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command, inv *Invocation, log *slog.Logger) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in command", "panic", rec)
			res = Failure{
				Message: "Ocurrió un error inesperado procesando el comando.",
				Cause:   fmt.Errorf("%w: %v", domain.ErrHandlerFault, rec),
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	defer step(log, "handler")()
	res, err := cmd.Handler(ctx, inv)
	if err != nil {
		return failureFor(cmd.Descriptor, err)
	}
	if res == nil {
		return Failure{
			Message: "Ocurrió un error inesperado procesando el comando.",
			Cause:   fmt.Errorf("%w: handler returned no result", domain.ErrHandlerFault),
		}
	}
	return res
}

func failureFor(d Descriptor, err error) Failure {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		return Failure{Message: "Parámetros inválidos. Uso: `" + d.Usage("/") + "`", Cause: err}
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return Failure{Message: "La cola no está disponible en este momento, probá de nuevo en un rato.", Cause: err}
	default:
		return Failure{
			Message: "Ocurrió un error inesperado procesando el comando.",
			Cause:   fmt.Errorf("%w: %w", domain.ErrHandlerFault, err),
		}
	}
}

func (d *Dispatcher) unauthorizedMessage() string {
	var b strings.Builder
	b.WriteString("Este servidor no está autorizado para usar el bot.")
	if d.opts.AccessContact != "" {
		b.WriteString(" Pedí acceso a " + d.opts.AccessContact + ".")
	}
	if d.opts.SelfHostURL != "" {
		b.WriteString(" También podés hostear tu propia copia: " + d.opts.SelfHostURL)
	}
	return b.String()
}

func step(log *slog.Logger, label string) func() {
	start := time.Now()
	return func() { log.Debug("trace", "step", label, "dur", time.Since(start)) }
}

package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Permisos que un Descriptor puede exigir. El transporte traduce los bits de Discord a estos nombres.
const (
	PermAdministrator  = "ADMINISTRATOR"
	PermManageGuild    = "MANAGE_GUILD"
	PermManageMessages = "MANAGE_MESSAGES"
	PermConnect        = "CONNECT"
	PermSpeak          = "SPEAK"
)

type Param struct {
	Name        string
	Description string
	Required    bool
}

type Descriptor struct {
	Name                string
	Description         string
	Cooldown            time.Duration
	RequiredPermissions []string
	// Global: el comando no pasa por la allowlist (ping, help).
	Global bool
	Params []Param
}

func (d Descriptor) Usage(prefix string) string {
	u := prefix + d.Name
	for _, p := range d.Params {
		if p.Required {
			u += " <" + p.Name + ">"
		} else {
			u += " [" + p.Name + "]"
		}
	}
	return u
}

type Handler func(ctx context.Context, inv *Invocation) (Result, error)

type Command struct {
	Descriptor
	Handler Handler
}

var reName = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Catalog es inmutable una vez creado.
type Catalog struct {
	byName map[string]Command
	names  []string
}

// NewCatalog registra los comandos más el help incorporado.
func NewCatalog(cmds ...Command) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Command, len(cmds)+1)}
	add := func(cmd Command) error {
		if !reName.MatchString(cmd.Name) {
			return fmt.Errorf("command name %q invalid", cmd.Name)
		}
		if cmd.Handler == nil {
			return fmt.Errorf("command %q without handler", cmd.Name)
		}
		if cmd.Cooldown < 0 {
			return fmt.Errorf("command %q: negative cooldown", cmd.Name)
		}
		if _, dup := c.byName[cmd.Name]; dup {
			return fmt.Errorf("command %q registered twice", cmd.Name)
		}
		cmd.RequiredPermissions = append([]string(nil), cmd.RequiredPermissions...)
		cmd.Params = append([]Param(nil), cmd.Params...)
		c.byName[cmd.Name] = cmd
		c.names = append(c.names, cmd.Name)
		return nil
	}

	var errs []error
	for _, cmd := range cmds {
		if err := add(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	if _, ok := c.byName["help"]; !ok {
		if err := add(helpCommand(c)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(c.names)
	return c, nil
}

func (c *Catalog) Lookup(name string) (Command, bool) {
	cmd, ok := c.byName[name]
	return cmd, ok
}

// Descriptors en orden alfabético; copia, para que nadie toque el catálogo.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.names))
	for _, n := range c.names {
		d := c.byName[n].Descriptor
		d.RequiredPermissions = append([]string(nil), d.RequiredPermissions...)
		d.Params = append([]Param(nil), d.Params...)
		out = append(out, d)
	}
	return out
}

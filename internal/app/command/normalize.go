package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParsePrefix reconoce "<trigger><comando> args...". El nombre tiene que venir pegado al trigger
// y ser exactamente un comando conocido (sin plegar mayúsculas); si no, ok=false y el mensaje se ignora.
func ParsePrefix(c *Catalog, trigger rune, content string) (name string, args []string, ok bool) {
	r, size := utf8.DecodeRuneInString(content)
	if r == utf8.RuneError || r != trigger {
		return "", nil, false
	}
	rest := content[size:]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	name = rest[:end]
	if name == "" {
		return "", nil, false
	}
	if _, known := c.Lookup(name); !known {
		return "", nil, false
	}
	return name, strings.Fields(rest[end:]), true
}

// BindArgs mapea los args posicionales a los params declarados. El último param se queda con el resto.
func BindArgs(d Descriptor, args []string) map[string]string {
	params := make(map[string]string, len(d.Params))
	for i, p := range d.Params {
		if i >= len(args) {
			break
		}
		if i == len(d.Params)-1 {
			params[p.Name] = strings.Join(args[i:], " ")
			break
		}
		params[p.Name] = args[i]
	}
	return params
}

package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrUnauthorizedGuild = errors.New("guild not authorized")
	ErrCooldownActive    = errors.New("cooldown active")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrHandlerFault      = errors.New("handler fault")
)

// ErrAudioUnavailable: el servidor de audio no respondió o rechazó la operación.
var ErrAudioUnavailable = errors.New("audio server unavailable")

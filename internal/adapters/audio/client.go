package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type connectRequest struct {
	ChannelID string `json:"channel_id"`
}

type playRequest struct {
	Track    string `json:"track"`
	Position int64  `json:"position,omitempty"`
}

func guildPath(guildID, suffix string) string {
	return fmt.Sprintf("/v1/guilds/%s/%s", url.PathEscape(guildID), suffix)
}

// Connect une al servidor de audio al canal de voz del guild.
func (c *Client) Connect(ctx context.Context, guildID, channelID string) error {
	return c.doJSON(ctx, http.MethodPost, guildPath(guildID, "connect"), connectRequest{ChannelID: channelID}, nil)
}

// Disconnect es idempotente: si no estaba conectado, no es error.
func (c *Client) Disconnect(ctx context.Context, guildID string) error {
	err := c.doJSON(ctx, http.MethodDelete, guildPath(guildID, "connect"), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Play reemplaza lo que esté sonando por track. El servidor devuelve position en los eventos.
func (c *Client) Play(ctx context.Context, guildID, trackRef string, position int64) error {
	return c.doJSON(ctx, http.MethodPost, guildPath(guildID, "play"), playRequest{Track: trackRef, Position: position}, nil)
}

func (c *Client) Stop(ctx context.Context, guildID string) error {
	err := c.doJSON(ctx, http.MethodPost, guildPath(guildID, "stop"), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

package discord

// voiceChannelOf devuelve el canal de voz del usuario según el cache de estado ("" si no está en voz).
func (r *Router) voiceChannelOf(guildID, userID string) string {
	if guildID == "" || userID == "" || r.state == nil {
		return ""
	}
	vs, err := r.state.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

// channelPermissions para comandos por prefijo (en slash vienen en el Member).
func (r *Router) channelPermissions(guildID, userID, channelID string) []string {
	if guildID == "" || r.state == nil {
		return nil
	}
	bits, err := r.state.UserChannelPermissions(userID, channelID)
	if err != nil {
		r.log.Debug("channel permissions", "guild", guildID, "user", userID, "err", err)
		return nil
	}
	return permissionNames(bits)
}

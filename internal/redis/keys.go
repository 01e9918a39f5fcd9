package redis

import "strings"

const keyNamespace = "jukebot"

// Key builds a key under the bot's namespace: Key("settings", "42") is
// "jukebot:settings:42".
func Key(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}

// SettingsKey is the hash holding one guild's playback preferences.
func SettingsKey(guildID string) string {
	return Key("settings", guildID)
}

// ResolveKey is where the track for a normalised query is cached.
func ResolveKey(query string) string {
	return Key("resolve", query)
}

package protocol

import "strings"

const (
	PrivateChannelPrefix  = "private-"
	PresenceChannelPrefix = "presence-"
)

func IsPresenceChannel(name string) bool {
	return strings.HasPrefix(name, PresenceChannelPrefix)
}

func IsPrivateChannel(name string) bool {
	return strings.HasPrefix(name, PrivateChannelPrefix)
}

// RequiresAuth 私有频道和 presence 频道需要 auth 字段
func RequiresAuth(name string) bool {
	return IsPrivateChannel(name) || IsPresenceChannel(name)
}

package protocol

import "strings"

type Route int

const (
	RouteClient Route = iota
	RouteControl
)

func (r Route) String() string {
	if r == RouteControl {
		return "control"
	}
	return "client"
}

// IsControlEvent reports whether the event name carries the reserved pusher: prefix.
// The match is case-sensitive and the name is not trimmed.
func IsControlEvent(event string) bool {
	return strings.HasPrefix(event, ControlPrefix)
}

func RouteOf(event string) Route {
	if IsControlEvent(event) {
		return RouteControl
	}
	return RouteClient
}

func IsClientEvent(event string) bool {
	return strings.HasPrefix(event, ClientPrefix)
}

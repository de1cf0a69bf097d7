package state

import tele "gopkg.in/telebot.v4"

// fsmHandlers maps a conversation step to the handler that consumes the
// next message while a user stands in it. Populated at startup, read-only
// afterwards.
var fsmHandlers = map[State]tele.HandlerFunc{}

// RegisterHandler binds a conversation step to its message handler.
// Registering nil is a no-op.
func RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	fsmHandlers[st] = h
}

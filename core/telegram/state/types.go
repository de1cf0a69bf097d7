package state

import tele "gopkg.in/telebot.v4"

// State names a step in a multi-message dialog.
type State string

// StateIdle means no dialog is in progress with the user.
const StateIdle State = "idle"

// Session holds a user's dialog step and any scratch values collected so far.
type Session struct {
	State    State
	TempData map[string]interface{}
}

// Manager owns sessions and their transitions.
type Manager interface {
	Get(userID int64) *Session
	Set(userID int64, state State)
	SetTemp(userID int64, key string, value interface{})
	ClearTemp(userID int64, key string)
	GetTemp(userID int64, key string) (interface{}, bool)
	GetTempInt64(userID int64, key string) (int64, bool)
	Clear(userID int64)

	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	ClearState(userID int64)

	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

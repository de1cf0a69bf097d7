package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// SerializePerSender returns a middleware that processes updates from the
// same sender strictly in arrival order while letting different senders run
// concurrently. Conversation state transitions and balance mutations rely on
// a sender's second update never being routed against state from before the
// first update's handler completed.
func SerializePerSender() tele.MiddlewareFunc {
	var (
		mu    sync.Mutex
		locks = make(map[int64]*sync.Mutex)
	)
	lockFor := func(userID int64) *sync.Mutex {
		mu.Lock()
		defer mu.Unlock()
		l, ok := locks[userID]
		if !ok {
			l = &sync.Mutex{}
			locks[userID] = l
		}
		return l
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			l := lockFor(user.ID)
			l.Lock()
			defer l.Unlock()
			return next(c)
		}
	}
}

package router

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/vkotov/clipcoin/core/telegram"
	"github.com/vkotov/clipcoin/core/telegram/commands"
)

type fakeFSM struct {
	active  bool
	handled int
}

func (f *fakeFSM) InProgress(int64) bool { return f.active }
func (f *fakeFSM) ManagerHandler(tele.Context) error {
	f.handled++
	return nil
}

type fakeGate struct {
	ok  bool
	err error
}

func (g *fakeGate) IsEntitled(tele.Context) (bool, error) { return g.ok, g.err }

type fakeContext struct {
	tele.Context
	sender *tele.User
	text   string
	store  map[string]interface{}
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		text:   text,
		store:  make(map[string]interface{}),
	}
}

func (c *fakeContext) Sender() *tele.User            { return c.sender }
func (c *fakeContext) Chat() *tele.Chat              { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Update() tele.Update           { return tele.Update{ID: 1} }
func (c *fakeContext) Text() string                  { return c.text }
func (c *fakeContext) Get(key string) interface{}    { return c.store[key] }
func (c *fakeContext) Set(key string, v interface{}) { c.store[key] = v }
func (c *fakeContext) Send(interface{}, ...interface{}) error {
	return nil
}

type callCounter struct {
	calls int
}

func (cc *callCounter) handler(tele.Context) error {
	cc.calls++
	return nil
}

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestTextRoutingOpenConversationWins(t *testing.T) {
	fsm := &fakeFSM{active: true}
	reg := tg.NewRegistry()
	button := &callCounter{}
	reg.RegisterButton("🎬 Get video", commands.Command{Handler: button.handler})

	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{}))
	if err := h(newFakeContext(7, "🎬 Get video")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fsm.handled != 1 {
		t.Fatalf("fsm handled = %d, expected 1", fsm.handled)
	}
	if button.calls != 0 {
		t.Fatal("button must not fire while a conversation is open")
	}
}

func TestTextRoutingGateRejects(t *testing.T) {
	reg := tg.NewRegistry()
	button := &callCounter{}
	reject := &callCounter{}
	reg.RegisterButton("🎬 Get video", commands.Command{Handler: button.handler})

	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{
		Gate:         &fakeGate{ok: false},
		OnGateReject: reject.handler,
	}))
	if err := h(newFakeContext(7, "🎬 Get video")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if reject.calls != 1 || button.calls != 0 {
		t.Fatalf("reject=%d button=%d, expected 1/0", reject.calls, button.calls)
	}
}

func TestTextRoutingGateErrorUsesErrorHandler(t *testing.T) {
	reg := tg.NewRegistry()
	onErr := &callCounter{}

	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{
		Gate:        &fakeGate{err: errors.New("db down")},
		OnGateError: onErr.handler,
	}))
	if err := h(newFakeContext(7, "anything")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if onErr.calls != 1 {
		t.Fatalf("error handler calls = %d, expected 1", onErr.calls)
	}
}

func TestTextRoutingButtonMatch(t *testing.T) {
	reg := tg.NewRegistry()
	button := &callCounter{}
	reg.RegisterButton("🎬 Get video", commands.Command{Handler: button.handler})

	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{
		Gate: &fakeGate{ok: true},
	}))
	if err := h(newFakeContext(7, "🎬 Get video")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if button.calls != 1 {
		t.Fatalf("button calls = %d, expected 1", button.calls)
	}
}

func TestTextRoutingAdminButtonMatchTime(t *testing.T) {
	reg := tg.NewRegistry()
	panel := &callCounter{}
	reg.RegisterButton("⚙️ Admin panel", commands.Command{Handler: panel.handler, AdminOnly: true})

	admins := map[int64]bool{1: true}
	opts := TextOptions{
		IsAdmin: func(c tele.Context) bool { return admins[c.Sender().ID] },
	}
	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, opts))

	if err := h(newFakeContext(2, "⚙️ Admin panel")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if panel.calls != 0 {
		t.Fatal("admin button must not match for non-admin")
	}

	if err := h(newFakeContext(1, "⚙️ Admin panel")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if panel.calls != 1 {
		t.Fatalf("panel calls = %d, expected 1", panel.calls)
	}
}

func TestTextRoutingCommandAlias(t *testing.T) {
	reg := tg.NewRegistry()
	cmd := &callCounter{}
	reg.RegisterCommand("/help", commands.Command{Handler: cmd.handler, Description: "Help"})

	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{}))
	if err := h(newFakeContext(7, "/help")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if cmd.calls != 1 {
		t.Fatalf("command calls = %d, expected 1", cmd.calls)
	}
}

func TestTextRoutingUnknownText(t *testing.T) {
	reg := tg.NewRegistry()
	unknown := &callCounter{}

	h := textHandler(t, TextRoutes(&fakeFSM{}, reg, TextOptions{UnknownText: unknown.handler}))
	if err := h(newFakeContext(7, "gibberish")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if unknown.calls != 1 {
		t.Fatalf("unknown calls = %d, expected 1", unknown.calls)
	}
}

func TestVideoRoutingOutsideConversation(t *testing.T) {
	fsm := &fakeFSM{}
	unknown := &callCounter{}
	routes := TextRoutes(fsm, tg.NewRegistry(), TextOptions{UnknownVideo: unknown.handler})

	var videoRoute tele.HandlerFunc
	for _, r := range routes {
		if r.Endpoint == tele.OnVideo {
			videoRoute = r.Handler
		}
	}
	if videoRoute == nil {
		t.Fatal("no OnVideo route")
	}

	if err := videoRoute(newFakeContext(7, "")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if unknown.calls != 1 {
		t.Fatalf("unknown video calls = %d, expected 1", unknown.calls)
	}

	fsm.active = true
	if err := videoRoute(newFakeContext(7, "")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fsm.handled != 1 {
		t.Fatalf("fsm handled = %d, expected 1", fsm.handled)
	}
}

package flows

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/service"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
	"github.com/vkotov/clipcoin/core/telegram/state"
)

const StateVideoWait state.State = "video_wait"

// IntakeFlow lets an admin append a video to the pool: the single step waits
// for a video message and records its file handle.
type IntakeFlow struct {
	fsm    state.Manager
	videos *service.VideoService
}

func NewIntakeFlow(fsm state.Manager, videos *service.VideoService) *IntakeFlow {
	return &IntakeFlow{fsm: fsm, videos: videos}
}

// Register installs the step handler into the process-wide FSM table.
func (f *IntakeFlow) Register() {
	state.RegisterHandler(StateVideoWait, f.stepVideo)
}

// Start opens the conversation.
func (f *IntakeFlow) Start(c tele.Context) error {
	f.fsm.SetState(c.Sender().ID, StateVideoWait)
	return helpers.SendText(c, "📤 Send the video:")
}

func (f *IntakeFlow) stepVideo(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Video == nil {
		// Text or any other payload: stay on this step.
		return helpers.SendText(c, "❌ That is not a video. Send a video file:")
	}

	ctx := helpers.BuildContext(c)
	total, err := f.videos.Add(ctx, msg.Video.FileID)
	if err != nil {
		return helpers.SendText(c, "⚠️ Something went wrong. Send the video again:")
	}

	f.fsm.Clear(c.Sender().ID)
	return helpers.SendText(c, fmt.Sprintf("✅ Video added!\n🎬 Videos in the pool: %d", total))
}

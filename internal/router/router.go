package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/command"
	"github.com/austinbrady/Assist-sub001/internal/engine"
	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
)

// MessageRouter routes inbound platform messages into the chat engine,
// intercepting slash commands first.
type MessageRouter struct {
	engine   *engine.Engine
	gw       *gateway.Gateway
	commands *command.Registry
	logger   *zap.Logger
}

// New creates a new MessageRouter.
func New(e *engine.Engine, gw *gateway.Gateway,
	commands *command.Registry, logger *zap.Logger) *MessageRouter {
	return &MessageRouter{
		engine:   e,
		gw:       gw,
		commands: commands,
		logger:   logger,
	}
}

// Handle routes an inbound message. Signature matches gateway.MessageHandler.
func (mr *MessageRouter) Handle(msg *gateway.InboundMessage) {
	ctx := context.Background()
	mr.logger.Info("routing message",
		zap.String("platform", msg.Platform),
		zap.String("channel", msg.ChannelID),
		zap.String("user", msg.UserName),
	)

	username := msg.UserName
	if username == "" {
		username = msg.UserID
	}
	if username == "" {
		mr.sendReply(ctx, msg, "I couldn't tell who you are — no username on the message.")
		return
	}

	// Intercept slash commands before any chat routing.
	if strings.HasPrefix(msg.Content, "/") {
		cc := &command.CommandContext{
			Platform:  msg.Platform,
			ChannelID: msg.ChannelID,
			UserID:    msg.UserID,
			UserName:  username,
			Engine:    mr.engine,
			Status:    mr.gw,
		}
		result, err := mr.commands.Dispatch(ctx, msg.Content, cc)
		if err != nil {
			mr.logger.Error("command dispatch error", zap.Error(err))
			mr.sendReply(ctx, msg, "Command error: "+err.Error())
			return
		}
		mr.sendReply(ctx, msg, result.Content)
		return
	}

	// Platform conversations map 1:1 onto channels, so the chat history
	// follows the channel the user writes in.
	result, err := mr.engine.Chat(ctx, &engine.ChatInput{
		Username:       username,
		ConversationID: conversationID(msg),
		Message:        msg.Content,
	})
	if err != nil {
		mr.logger.Error("chat failed", zap.String("user", username), zap.Error(err))
		mr.sendReply(ctx, msg, "Something went wrong on my side. Try again in a moment.")
		return
	}

	reply := result.Reply
	if len(result.Suggestions) > 0 {
		reply += "\n\n" + formatSuggestions(result.Suggestions)
	}
	mr.sendReply(ctx, msg, reply)
}

// conversationID derives a stable per-channel conversation key.
func conversationID(msg *gateway.InboundMessage) string {
	return fmt.Sprintf("%s-%s", msg.Platform, msg.ChannelID)
}

func formatSuggestions(suggestions []pattern.Suggestion) string {
	var b strings.Builder
	b.WriteString("While we're talking, a few things I noticed:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "> %s — %s\n", s.Title, s.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// sendReply sends a text reply back to the originating platform/channel.
func (mr *MessageRouter) sendReply(ctx context.Context, orig *gateway.InboundMessage, text string) {
	err := mr.gw.Send(ctx, &gateway.OutboundMessage{
		Platform:  orig.Platform,
		ChannelID: orig.ChannelID,
		Content:   text,
		ReplyTo:   orig.ReplyTo,
	})
	if err != nil {
		mr.logger.Error("send reply failed", zap.Error(err))
	}
}

package chat

import (
	"context"
	"fmt"

	"github.com/hupe1980/deepresearch/logging"
)

// ShimOptions configures a Shim.
type ShimOptions struct {
	Author  string
	Welcome string
	Logger  logging.Logger
}

// Shim implements the two chat hooks on top of a Responder.
type Shim struct {
	responder Responder
	author    string
	welcome   string
	logger    logging.Logger
}

// NewShim creates a Shim forwarding user messages to responder.
func NewShim(responder Responder, optFns ...func(o *ShimOptions)) *Shim {
	opts := ShimOptions{
		Author:  DefaultAuthor,
		Welcome: WelcomeMessage,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Shim{
		responder: responder,
		author:    opts.Author,
		welcome:   opts.Welcome,
		logger:    opts.Logger,
	}
}

// OnChatStart sends exactly one welcome message.
func (s *Shim) OnChatStart(ctx context.Context, sessionID string, out Sender) error {
	s.logger.Debug("chat.session.start", "session_id", sessionID)

	if err := out.Send(ctx, Message{Author: s.author, Content: s.welcome}); err != nil {
		return fmt.Errorf("failed to send welcome message: %w", err)
	}

	return nil
}

// OnMessage forwards msg.Content to the responder and sends its reply as one
// message. Responder errors are returned unchanged and nothing is sent.
func (s *Shim) OnMessage(ctx context.Context, sessionID string, msg Message, out Sender) error {
	s.logger.Debug("chat.message.received", "session_id", sessionID, "length", len(msg.Content))

	reply, err := s.responder.Respond(ctx, sessionID, msg.Content)
	if err != nil {
		s.logger.Warn("chat.message.error", "session_id", sessionID, "error", err.Error())
		return err
	}

	if err := out.Send(ctx, Message{Author: s.author, Content: reply}); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	return nil
}

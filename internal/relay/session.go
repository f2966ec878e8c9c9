package relay

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWriterPoll bounds how long a session writer waits on an empty
// outbox before re-checking whether the session is still alive.
const DefaultWriterPoll = 100 * time.Millisecond

// Authenticator resolves a transport credential to an identity.
// Implemented outside the relay (JWT validation against the user store).
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// IdentityDirectory answers whether an identity names a known principal.
type IdentityDirectory interface {
	IdentityExists(ctx context.Context, id Identity) (bool, error)
}

// Stream is one bidirectional message stream as seen by the relay.
// Recv blocks until a message arrives, the stream ends (io.EOF), or ctx
// is cancelled.
type Stream interface {
	Recv(ctx context.Context) (Message, error)
	Send(ctx context.Context, msg Message) error
}

// errHandoverUnavailable ends the reader loop when a handover names an
// unknown or disconnected agent. Quirk carried over from the original
// relay: the user gets no reply and the session dies.
var errHandoverUnavailable = errors.New("handover target unavailable")

// Service accepts authenticated streams and routes messages between
// them. It owns the connection registry for its lifetime.
type Service struct {
	registry *Registry
	auth     Authenticator
	dir      IdentityDirectory
	poll     time.Duration
	log      *zerolog.Logger
}

// NewService constructs a relay service. poll <= 0 selects
// DefaultWriterPoll.
func NewService(auth Authenticator, dir IdentityDirectory, poll time.Duration, logger *zerolog.Logger) *Service {
	if poll <= 0 {
		poll = DefaultWriterPoll
	}
	return &Service{
		registry: NewRegistry(),
		auth:     auth,
		dir:      dir,
		poll:     poll,
		log:      logger,
	}
}

// Registry exposes the live connection set, mainly for tests and
// introspection.
func (s *Service) Registry() *Registry {
	return s.registry
}

// HandleStream authenticates the stream, registers a connection for it
// and pumps messages until the stream ends. Teardown is symmetric: when
// either the reader or the writer finishes, the other is cancelled and
// the connection is deregistered before returning.
//
// Authentication failures are returned before any registry state is
// created.
func (s *Service) HandleStream(ctx context.Context, credential string, stream Stream) error {
	identity, err := s.auth.Authenticate(ctx, credential)
	if err != nil {
		return err
	}

	conn := NewConn(identity)
	if err := s.registry.Register(conn); err != nil {
		return err
	}
	defer s.registry.Deregister(conn)

	s.log.Info().Str("conn_id", conn.ID).Int64("identity", int64(identity)).Msg("session registered")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(ctx, conn, stream)
	}()
	go func() {
		errCh <- s.writeLoop(ctx, conn, stream)
	}()

	err = <-errCh
	cancel() // stop the other loop
	<-errCh

	s.log.Info().Str("conn_id", conn.ID).Int64("identity", int64(identity)).Msg("session closed")

	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, errHandoverUnavailable) {
		return nil
	}
	return err
}

// readLoop consumes the inbound stream to completion, validating and
// routing each message. Any return path leads back to HandleStream's
// deferred deregistration.
func (s *Service) readLoop(ctx context.Context, conn *Conn, stream Stream) error {
	for {
		msg, err := stream.Recv(ctx)
		if err != nil {
			return err
		}

		// The bound identity is authoritative; a mismatched sender
		// field is a spoof attempt and the message is dropped without
		// telling the client.
		if msg.Sender != conn.Identity {
			s.log.Warn().
				Str("conn_id", conn.ID).
				Int64("identity", int64(conn.Identity)).
				Int64("claimed_sender", int64(msg.Sender)).
				Msg("sender mismatch, message dropped")
			continue
		}

		if msg.Receiver == BotIdentity {
			if err := s.dispatchBot(ctx, conn, msg.Text); err != nil {
				return err
			}
			continue
		}

		s.route(ctx, conn, msg)
	}
}

// route delivers a human-to-human message, or drops it silently when
// the receiver is unknown or not connected.
func (s *Service) route(ctx context.Context, conn *Conn, msg Message) {
	exists, err := s.dir.IdentityExists(ctx, msg.Receiver)
	if err != nil {
		s.log.Error().Err(err).Int64("receiver", int64(msg.Receiver)).Msg("identity lookup failed, message dropped")
		return
	}
	if !exists {
		s.log.Warn().Int64("receiver", int64(msg.Receiver)).Msg("unknown receiver, message dropped")
		return
	}

	delivered := s.registry.Deliver(msg.Receiver, Message{
		Sender:   conn.Identity,
		Receiver: msg.Receiver,
		Text:     msg.Text,
	})
	if !delivered {
		s.log.Debug().Int64("receiver", int64(msg.Receiver)).Msg("receiver not connected, message dropped")
	}
}

// dispatchBot classifies one bot-addressed message and acts on the
// outcome. Replies go onto this connection's own outbox; a handover
// forwards the original text to the agent and then acknowledges the
// sender. A handover naming an unknown or disconnected agent produces
// no output and ends the session.
func (s *Service) dispatchBot(ctx context.Context, conn *Conn, text string) error {
	outcome := ClassifyBotInput(text)

	switch outcome.Kind {
	case BotReply:
		conn.Outbox.Push(Message{Sender: BotIdentity, Receiver: conn.Identity, Text: outcome.Reply})
		return nil

	case BotHandover:
		exists, err := s.dir.IdentityExists(ctx, outcome.Target)
		if err != nil {
			s.log.Error().Err(err).Int64("target", int64(outcome.Target)).Msg("handover target lookup failed")
			return errHandoverUnavailable
		}
		if !exists {
			s.log.Warn().Int64("target", int64(outcome.Target)).Msg("handover target unknown, closing session")
			return errHandoverUnavailable
		}

		forwarded := s.registry.Deliver(outcome.Target, Message{
			Sender:   conn.Identity,
			Receiver: outcome.Target,
			Text:     text,
		})
		if !forwarded {
			s.log.Warn().Int64("target", int64(outcome.Target)).Msg("handover target not connected, closing session")
			return errHandoverUnavailable
		}

		conn.Outbox.Push(Message{Sender: BotIdentity, Receiver: conn.Identity, Text: HandoverAck(outcome.Target)})
		return nil
	}

	return nil
}

// writeLoop drains the connection's outbox to the stream in FIFO
// order. The bounded poll is what lets it notice cancellation without a
// dedicated signal: every empty poll re-checks the session context.
func (s *Service) writeLoop(ctx context.Context, conn *Conn, stream Stream) error {
	for {
		msg, ok := conn.Outbox.PopWait(s.poll)
		if !ok {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if err := stream.Send(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("write to stream failed")
			return err
		}
	}
}

package relay

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStream is an in-memory Stream backed by channels.
type fakeStream struct {
	in  chan Message
	out chan Message
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		in:  make(chan Message, 16),
		out: make(chan Message, 16),
	}
}

func (s *fakeStream) Recv(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-s.in:
		if !ok {
			return Message{}, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (s *fakeStream) Send(ctx context.Context, msg Message) error {
	select {
	case s.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send feeds an inbound message as if the client had written it.
func (s *fakeStream) send(msg Message) {
	s.in <- msg
}

// disconnect ends the inbound stream, like a client closing.
func (s *fakeStream) disconnect() {
	close(s.in)
}

// mustReceive waits for the next message written to the stream.
func (s *fakeStream) mustReceive(t *testing.T) Message {
	t.Helper()

	select {
	case msg := <-s.out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("expected outbound message, got none")
		return Message{}
	}
}

// mustReceiveNothing asserts no message arrives within the window.
func (s *fakeStream) mustReceiveNothing(t *testing.T, window time.Duration) {
	t.Helper()

	select {
	case msg := <-s.out:
		t.Fatalf("expected no outbound message, got %+v", msg)
	case <-time.After(window):
	}
}

// staticAuth maps credentials to identities.
type staticAuth map[string]Identity

func (a staticAuth) Authenticate(_ context.Context, credential string) (Identity, error) {
	id, ok := a[credential]
	if !ok {
		return 0, errors.New("invalid credentials")
	}
	return id, nil
}

// staticDirectory is a fixed set of known identities.
type staticDirectory map[Identity]bool

func (d staticDirectory) IdentityExists(_ context.Context, id Identity) (bool, error) {
	return d[id], nil
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// newTestService builds a relay service with a fast writer poll.
func newTestService(auth staticAuth, dir staticDirectory) *Service {
	return NewService(auth, dir, 10*time.Millisecond, nopLogger())
}

// startSession runs HandleStream in the background and returns a channel
// carrying its result.
func startSession(ctx context.Context, svc *Service, credential string, stream *fakeStream) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- svc.HandleStream(ctx, credential, stream)
	}()
	return done
}

// waitRegistered polls until the registry holds want connections.
func waitRegistered(t *testing.T, svc *Service, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.Registry().Len() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d registered connections, have %d", want, svc.Registry().Len())
}

// waitDone waits for a session result.
func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not finish in time")
		return nil
	}
}

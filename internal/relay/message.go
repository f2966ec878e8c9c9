package relay

// Identity is an integer principal identifier.
type Identity int64

// BotIdentity is the reserved identity of the embedded support bot.
// It is never a registrable principal.
const BotIdentity Identity = 0

// Message is one chat message in flight. It is immutable once
// constructed; ownership moves to the recipient's outbox on delivery.
type Message struct {
	Sender   Identity
	Receiver Identity
	Text     string
}

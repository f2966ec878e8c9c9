package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// Canned bot responses.
const (
	botAccountHelp = "You chose Account Issues.\nPlease visit: https://example.com/account-help"
	botPaymentHelp = "You chose Payments & Refunds.\nPlease visit: https://example.com/payment-help"
	botTechHelp    = "You chose Technical Support.\nPlease visit: https://example.com/tech-help"

	botHandoverUsage = "Usage: /handover <receiver_id>"

	botMenu = "Hi! I am the support bot. Reply with:\n" +
		"1 - Account Issues\n" +
		"2 - Payments & Refunds\n" +
		"3 - Technical Support\n" +
		"Or type /handover <receiver_id> to reach a human agent."
)

// BotOutcomeKind describes what the bot wants done with a message.
type BotOutcomeKind int

const (
	// BotReply sends a canned message back to the sender only.
	BotReply BotOutcomeKind = iota
	// BotHandover forwards the original text to a human agent, as if
	// the sender had messaged them directly.
	BotHandover
)

// BotOutcome is the result of classifying one bot-addressed message.
type BotOutcome struct {
	Kind  BotOutcomeKind
	Reply string
	// Target is the requested human agent for BotHandover. Whether the
	// target exists and is connected is resolved by the caller.
	Target Identity
}

// HandoverAck is the acknowledgement sent to the user after a
// successful handover to the given agent.
func HandoverAck(target Identity) string {
	return fmt.Sprintf("Connecting you to human agent %d...", target)
}

// ClassifyBotInput maps one message addressed to the bot to an outcome.
// It is a pure function of the trimmed, lowercased text; the bot keeps
// no state across messages, so identical input always classifies the
// same way.
func ClassifyBotInput(text string) BotOutcome {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch normalized {
	case "1", "account", "account issues":
		return BotOutcome{Kind: BotReply, Reply: botAccountHelp}
	case "2", "payment", "payments", "refund":
		return BotOutcome{Kind: BotReply, Reply: botPaymentHelp}
	case "3", "technical", "tech support":
		return BotOutcome{Kind: BotReply, Reply: botTechHelp}
	}

	if strings.HasPrefix(normalized, "/handover") {
		return classifyHandover(normalized)
	}

	return BotOutcome{Kind: BotReply, Reply: botMenu}
}

func classifyHandover(normalized string) BotOutcome {
	fields := strings.Fields(normalized)
	if len(fields) != 2 {
		return BotOutcome{Kind: BotReply, Reply: botHandoverUsage}
	}

	target, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || target <= 0 {
		return BotOutcome{Kind: BotReply, Reply: botHandoverUsage}
	}

	return BotOutcome{Kind: BotHandover, Target: Identity(target)}
}

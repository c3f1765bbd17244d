package types

// ConversationState represents where a subscriber is in the onboarding flow
type ConversationState string

const (
	ConversationStateIdle        ConversationState = "IDLE"
	ConversationStateAwaitDay    ConversationState = "AWAIT_DAY"
	ConversationStateAwaitAmount ConversationState = "AWAIT_AMOUNT"
	ConversationStateAwaitTaxID  ConversationState = "AWAIT_TAX_ID"
)

func (s ConversationState) String() string {
	return string(s)
}

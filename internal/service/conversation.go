package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/domain/subscriber"
	"github.com/recurpix/recurpix/internal/logger"
	"github.com/recurpix/recurpix/internal/types"
)

// StepOutcome tags the result of feeding one input to the conversation
// state machine
type StepOutcome int

const (
	// StepAccepted means the input advanced the flow and Reply prompts
	// for the next field
	StepAccepted StepOutcome = iota
	// StepRejected means the input was malformed; the state is unchanged
	// and Reply re-prompts for the same field
	StepRejected
	// StepCompleted means onboarding finished and Profile is populated
	StepCompleted
	// StepIgnored means no onboarding flow is in progress for this chat
	StepIgnored
)

// StepResult is the tagged result of one conversation transition
type StepResult struct {
	Outcome StepOutcome
	Reply   string
	Profile *subscriber.Subscriber
}

type session struct {
	state       types.ConversationState
	displayName string
	day         int
	amount      decimal.Decimal
}

// ConversationService drives the per-subscriber onboarding flow that
// collects billing day, amount and, when the gateway requires one, a
// CPF/CNPJ. All transitions are local; persistence and charge issuance
// stay with the orchestrator.
type ConversationService struct {
	mu       sync.Mutex
	sessions map[int64]*session
	cfg      *config.Configuration
	logger   *logger.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(cfg *config.Configuration, log *logger.Logger) *ConversationService {
	return &ConversationService{
		sessions: make(map[int64]*session),
		cfg:      cfg,
		logger:   log,
	}
}

// Start begins (or restarts) onboarding for a chat, discarding any
// partial input, and returns the first prompt
func (c *ConversationService) Start(chatID int64, displayName string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[chatID] = &session{
		state:       types.ConversationStateAwaitDay,
		displayName: displayName,
	}
	return msgPromptDay
}

// Cancel unconditionally returns the chat to idle and discards partial
// input. Returns false if no flow was in progress.
func (c *ConversationService) Cancel(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[chatID]; !ok {
		return false
	}
	delete(c.sessions, chatID)
	return true
}

// State reports the current conversation state for a chat
func (c *ConversationService) State(chatID int64) types.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[chatID]
	if !ok {
		return types.ConversationStateIdle
	}
	return s.state
}

// HandleInput feeds one free-text message to the state machine
func (c *ConversationService) HandleInput(chatID int64, text string) StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[chatID]
	if !ok {
		return StepResult{Outcome: StepIgnored}
	}

	input := strings.TrimSpace(text)

	switch s.state {
	case types.ConversationStateAwaitDay:
		return c.handleDay(s, input)
	case types.ConversationStateAwaitAmount:
		return c.handleAmount(chatID, s, input)
	case types.ConversationStateAwaitTaxID:
		return c.handleTaxID(chatID, s, input)
	default:
		return StepResult{Outcome: StepIgnored}
	}
}

func (c *ConversationService) handleDay(s *session, input string) StepResult {
	day, err := strconv.Atoi(input)
	if err != nil || day < subscriber.MinBillingDay || day > subscriber.MaxBillingDay {
		return StepResult{Outcome: StepRejected, Reply: msgInvalidDay}
	}

	s.day = day
	s.state = types.ConversationStateAwaitAmount
	return StepResult{
		Outcome: StepAccepted,
		Reply:   fmt.Sprintf(msgPromptAmount, c.maxAmount().String()),
	}
}

func (c *ConversationService) handleAmount(chatID int64, s *session, input string) StepResult {
	// Brazilian users type decimal commas; accept both separators.
	normalized := strings.ReplaceAll(input, ",", ".")
	amount, err := decimal.NewFromString(normalized)
	if err != nil || amount.IsZero() || amount.IsNegative() || amount.GreaterThan(c.maxAmount()) {
		return StepResult{
			Outcome: StepRejected,
			Reply:   fmt.Sprintf(msgInvalidAmount, c.maxAmount().String()),
		}
	}

	s.amount = amount
	if c.cfg.Gateway.RequireTaxID {
		s.state = types.ConversationStateAwaitTaxID
		return StepResult{Outcome: StepAccepted, Reply: msgPromptTaxID}
	}
	return c.finalize(chatID, s, nil)
}

func (c *ConversationService) handleTaxID(chatID int64, s *session, input string) StepResult {
	taxID, err := types.NormalizeTaxID(input)
	if err != nil {
		return StepResult{Outcome: StepRejected, Reply: msgInvalidTaxID}
	}
	return c.finalize(chatID, s, &taxID)
}

// finalize assembles the profile and closes the session. The caller's
// lock is held.
func (c *ConversationService) finalize(chatID int64, s *session, taxID *string) StepResult {
	sub := subscriber.New(chatID, s.displayName)
	sub.BillingDay = s.day
	sub.Amount = s.amount
	sub.TaxID = taxID
	sub.UpdatedAt = time.Now().UTC()

	delete(c.sessions, chatID)

	c.logger.Infow("onboarding completed",
		"chat_id", chatID,
		"billing_day", sub.BillingDay,
		"amount", sub.Amount.String())

	return StepResult{
		Outcome: StepCompleted,
		Reply:   fmt.Sprintf(msgConfigured, sub.BillingDay, sub.Amount.StringFixed(2)),
		Profile: sub,
	}
}

func (c *ConversationService) maxAmount() decimal.Decimal {
	return decimal.NewFromInt(c.cfg.Billing.MaxAmount)
}

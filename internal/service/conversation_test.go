package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/testutil"
	"github.com/recurpix/recurpix/internal/types"
)

type ConversationServiceSuite struct {
	suite.Suite
	cfg          *config.Configuration
	conversation *ConversationService
}

func TestConversationService(t *testing.T) {
	suite.Run(t, new(ConversationServiceSuite))
}

func (s *ConversationServiceSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.conversation = NewConversationService(s.cfg, testutil.NewTestLogger())
}

func (s *ConversationServiceSuite) TestStartResetsPartialInput() {
	chatID := int64(100)

	s.conversation.Start(chatID, "Ana")
	result := s.conversation.HandleInput(chatID, "15")
	s.Equal(StepAccepted, result.Outcome)
	s.Equal(types.ConversationStateAwaitAmount, s.conversation.State(chatID))

	// Restarting discards the collected day and prompts again.
	reply := s.conversation.Start(chatID, "Ana")
	s.Equal(msgPromptDay, reply)
	s.Equal(types.ConversationStateAwaitDay, s.conversation.State(chatID))
}

func (s *ConversationServiceSuite) TestBillingDayValidation() {
	testCases := []struct {
		name     string
		input    string
		accepted bool
	}{
		{name: "first_day", input: "1", accepted: true},
		{name: "last_day", input: "31", accepted: true},
		{name: "mid_month", input: "15", accepted: true},
		{name: "zero", input: "0", accepted: false},
		{name: "negative", input: "-3", accepted: false},
		{name: "thirty_two", input: "32", accepted: false},
		{name: "huge", input: "999", accepted: false},
		{name: "non_numeric", input: "amanhã", accepted: false},
		{name: "decimal", input: "1.5", accepted: false},
		{name: "empty", input: "", accepted: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			chatID := int64(200)
			s.conversation.Start(chatID, "Ana")

			result := s.conversation.HandleInput(chatID, tc.input)
			if tc.accepted {
				s.Equal(StepAccepted, result.Outcome)
				s.Equal(types.ConversationStateAwaitAmount, s.conversation.State(chatID))
			} else {
				s.Equal(StepRejected, result.Outcome)
				s.Equal(msgInvalidDay, result.Reply)
				// Rejection does not mutate state.
				s.Equal(types.ConversationStateAwaitDay, s.conversation.State(chatID))
			}
		})
	}
}

func (s *ConversationServiceSuite) TestAmountValidation() {
	testCases := []struct {
		name     string
		input    string
		accepted bool
	}{
		{name: "integer", input: "100", accepted: true},
		{name: "two_decimals", input: "99.90", accepted: true},
		{name: "brazilian_comma", input: "149,50", accepted: true},
		{name: "policy_max", input: "3000", accepted: true},
		{name: "zero", input: "0", accepted: false},
		{name: "negative", input: "-10", accepted: false},
		{name: "above_max", input: "3000.01", accepted: false},
		{name: "non_numeric", input: "cem reais", accepted: false},
		{name: "empty", input: "", accepted: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			chatID := int64(300)
			s.conversation.Start(chatID, "Ana")
			s.conversation.HandleInput(chatID, "10")

			result := s.conversation.HandleInput(chatID, tc.input)
			if tc.accepted {
				// Tax id not required: accepting the amount finalizes.
				s.Equal(StepCompleted, result.Outcome)
				s.NotNil(result.Profile)
			} else {
				s.Equal(StepRejected, result.Outcome)
				s.Equal(types.ConversationStateAwaitAmount, s.conversation.State(chatID))
			}
		})
	}
}

func (s *ConversationServiceSuite) TestTaxIDCollection() {
	s.cfg.Gateway.RequireTaxID = true

	testCases := []struct {
		name     string
		input    string
		accepted bool
		expected string
	}{
		{name: "cpf", input: "12345678901", accepted: true, expected: "12345678901"},
		{name: "cpf_formatted", input: "123.456.789-01", accepted: true, expected: "12345678901"},
		{name: "cnpj", input: "12345678000190", accepted: true, expected: "12345678000190"},
		{name: "cnpj_formatted", input: "12.345.678/0001-90", accepted: true, expected: "12345678000190"},
		{name: "too_short", input: "123456", accepted: false},
		{name: "twelve_digits", input: "123456789012", accepted: false},
		{name: "letters", input: "abcdefghijk", accepted: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			chatID := int64(400)
			s.conversation.Start(chatID, "Ana")
			s.conversation.HandleInput(chatID, "5")

			result := s.conversation.HandleInput(chatID, "200")
			s.Equal(StepAccepted, result.Outcome)
			s.Equal(types.ConversationStateAwaitTaxID, s.conversation.State(chatID))

			result = s.conversation.HandleInput(chatID, tc.input)
			if tc.accepted {
				s.Equal(StepCompleted, result.Outcome)
				s.Require().NotNil(result.Profile)
				s.Require().NotNil(result.Profile.TaxID)
				s.Equal(tc.expected, *result.Profile.TaxID)
			} else {
				s.Equal(StepRejected, result.Outcome)
				s.Equal(types.ConversationStateAwaitTaxID, s.conversation.State(chatID))
			}
		})
	}
}

func (s *ConversationServiceSuite) TestCompletedProfile() {
	chatID := int64(500)

	s.conversation.Start(chatID, "Bruno")
	s.conversation.HandleInput(chatID, "15")
	result := s.conversation.HandleInput(chatID, "100.00")

	s.Equal(StepCompleted, result.Outcome)
	s.Require().NotNil(result.Profile)
	s.Equal(chatID, result.Profile.ChatID)
	s.Equal("Bruno", result.Profile.DisplayName)
	s.Equal(15, result.Profile.BillingDay)
	s.Equal("100.00", result.Profile.Amount.StringFixed(2))
	s.Nil(result.Profile.TaxID)
	s.True(result.Profile.Active)
	s.Equal(types.ConversationStateIdle, s.conversation.State(chatID))
}

func (s *ConversationServiceSuite) TestCancelDiscardsPartialInput() {
	chatID := int64(600)

	s.conversation.Start(chatID, "Ana")
	s.conversation.HandleInput(chatID, "20")

	s.True(s.conversation.Cancel(chatID))
	s.Equal(types.ConversationStateIdle, s.conversation.State(chatID))

	// Nothing left to cancel.
	s.False(s.conversation.Cancel(chatID))

	// Free text after cancel is ignored.
	result := s.conversation.HandleInput(chatID, "100")
	s.Equal(StepIgnored, result.Outcome)
}

func (s *ConversationServiceSuite) TestInputWithoutSessionIsIgnored() {
	result := s.conversation.HandleInput(700, "15")
	s.Equal(StepIgnored, result.Outcome)
}

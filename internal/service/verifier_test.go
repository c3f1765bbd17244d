package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/testutil"
)

type VerifierSuite struct {
	suite.Suite
	ctx      context.Context
	gateway  *testutil.FakeGateway
	verifier PaymentVerifier
}

func TestVerifier(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = testutil.NewFakeGateway()
	s.verifier = NewPaymentVerifier(s.gateway, testutil.NewTestLogger())
}

func (s *VerifierSuite) TestPendingIsNotSettled() {
	s.gateway.SetStatus("gw-1", "pending")

	settled, err := s.verifier.Check(s.ctx, "gw-1")
	s.NoError(err)
	s.False(settled)
}

func (s *VerifierSuite) TestSettledStatus() {
	s.gateway.SetStatus("gw-1", "depix_sent")

	settled, err := s.verifier.Check(s.ctx, "gw-1")
	s.NoError(err)
	s.True(settled)
}

func (s *VerifierSuite) TestSettledResultIsMemoized() {
	s.gateway.Settle("gw-1")

	for i := 0; i < 3; i++ {
		settled, err := s.verifier.Check(s.ctx, "gw-1")
		s.NoError(err)
		s.True(settled)
	}
	// Only the first check reached the gateway.
	s.Equal(1, s.gateway.StatusCallCount())
}

func (s *VerifierSuite) TestPendingResultIsNotMemoized() {
	s.gateway.SetStatus("gw-1", "pending")

	for i := 0; i < 3; i++ {
		settled, err := s.verifier.Check(s.ctx, "gw-1")
		s.NoError(err)
		s.False(settled)
	}
	s.Equal(3, s.gateway.StatusCallCount())
}

func (s *VerifierSuite) TestGatewayErrorPropagates() {
	s.gateway.StatusErr = ierr.NewError("gateway unavailable").Mark(ierr.ErrGatewayTransport)

	settled, err := s.verifier.Check(s.ctx, "gw-1")
	s.Error(err)
	s.False(settled)
	s.True(ierr.IsGatewayTransport(err))
}

package testutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/recurpix/recurpix/internal/integration/depix"
)

// FakeGateway is an in-memory implementation of depix.Client for tests.
// Each CreateCharge mints a new sequential charge id; settlement status
// is controlled per charge id through SetStatus.
type FakeGateway struct {
	mu sync.Mutex

	// CreateErr, when set, is returned by CreateCharge
	CreateErr error
	// StatusErr, when set, is returned by GetStatus
	StatusErr error

	seq            int
	statuses       map[string]string
	CreateRequests []*depix.CreateChargeRequest
	StatusCalls    []string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		statuses: make(map[string]string),
	}
}

func (g *FakeGateway) CreateCharge(ctx context.Context, req *depix.CreateChargeRequest) (*depix.CreateChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return nil, g.CreateErr
	}

	g.seq++
	chargeID := fmt.Sprintf("gw-charge-%d", g.seq)
	g.statuses[chargeID] = "pending"
	g.CreateRequests = append(g.CreateRequests, req)

	return &depix.CreateChargeResponse{
		ChargeID:          chargeID,
		PaymentCode:       fmt.Sprintf("00020126pix-code-%d", g.seq),
		QRImageBase64:     base64.StdEncoding.EncodeToString([]byte("fake-qr-png")),
		MerchantReference: fmt.Sprintf("txn-%d", g.seq),
	}, nil
}

func (g *FakeGateway) GetStatus(ctx context.Context, chargeID string) (*depix.StatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.StatusCalls = append(g.StatusCalls, chargeID)

	if g.StatusErr != nil {
		return nil, g.StatusErr
	}

	status, ok := g.statuses[chargeID]
	if !ok {
		return &depix.StatusResponse{Status: "unknown"}, nil
	}
	return &depix.StatusResponse{Status: status}, nil
}

// SetStatus overrides the status reported for a charge id
func (g *FakeGateway) SetStatus(chargeID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[chargeID] = status
}

// Settle marks a charge id as settled
func (g *FakeGateway) Settle(chargeID string) {
	g.SetStatus(chargeID, depix.StatusSettled)
}

// LastChargeID returns the most recently minted charge id
func (g *FakeGateway) LastChargeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seq == 0 {
		return ""
	}
	return fmt.Sprintf("gw-charge-%d", g.seq)
}

// CreateCount returns how many charges were created
func (g *FakeGateway) CreateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.CreateRequests)
}

// StatusCallCount returns how many status lookups were made
func (g *FakeGateway) StatusCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.StatusCalls)
}

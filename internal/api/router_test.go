package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/recurpix/recurpix/internal/domain/subscriber"
	"github.com/recurpix/recurpix/internal/testutil"
)

type RouterSuite struct {
	suite.Suite
	store  *testutil.InMemorySubscriberStore
	server *httptest.Server
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.store = testutil.NewInMemorySubscriberStore()
	s.server = httptest.NewServer(NewRouter(s.store, testutil.NewTestLogger()))
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) getJSON(path string, out any) int {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func (s *RouterSuite) TestHealth() {
	sub := subscriber.New(42, "Ana")
	sub.BillingDay = 10
	sub.Amount = decimal.NewFromInt(100)
	s.Require().NoError(s.store.Save(context.Background(), sub))

	var body struct {
		Status      string `json:"status"`
		Subscribers int    `json:"subscribers"`
	}
	code := s.getJSON("/health", &body)

	s.Equal(http.StatusOK, code)
	s.Equal("ok", body.Status)
	s.Equal(1, body.Subscribers)
}

func (s *RouterSuite) TestListSubscribers() {
	sub := subscriber.New(42, "Ana")
	sub.BillingDay = 10
	sub.Amount = decimal.RequireFromString("149.90")
	s.Require().NoError(s.store.Save(context.Background(), sub))

	var body struct {
		Subscribers []subscriberResponse `json:"subscribers"`
	}
	code := s.getJSON("/v1/subscribers", &body)

	s.Equal(http.StatusOK, code)
	s.Require().Len(body.Subscribers, 1)
	got := body.Subscribers[0]
	s.Equal(sub.ID, got.ID)
	s.Equal(int64(42), got.ChatID)
	s.Equal("149.90", got.Amount)
	s.True(got.Active)
	s.NotEmpty(got.NextBilling)
}

func (s *RouterSuite) TestListSubscribersEmpty() {
	var body struct {
		Subscribers []subscriberResponse `json:"subscribers"`
	}
	code := s.getJSON("/v1/subscribers", &body)

	s.Equal(http.StatusOK, code)
	s.Empty(body.Subscribers)
}

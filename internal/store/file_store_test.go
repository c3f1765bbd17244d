package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/domain/subscriber"
	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/testutil"
)

type FileStoreSuite struct {
	suite.Suite
	ctx  context.Context
	cfg  *config.Configuration
	path string
}

func TestFileStore(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "subscribers.json")
	s.cfg = config.GetDefaultConfig()
	s.cfg.Store.Path = s.path
}

func (s *FileStoreSuite) open() subscriber.Repository {
	repo, err := NewFileStore(s.cfg, testutil.NewTestLogger())
	s.Require().NoError(err)
	return repo
}

func (s *FileStoreSuite) sample(chatID int64) *subscriber.Subscriber {
	sub := subscriber.New(chatID, "Ana")
	sub.BillingDay = 10
	sub.Amount = decimal.RequireFromString("149.90")
	return sub
}

func (s *FileStoreSuite) TestMissingFileStartsEmpty() {
	repo := s.open()

	subs, err := repo.List(s.ctx)
	s.NoError(err)
	s.Empty(subs)
}

func (s *FileStoreSuite) TestSaveSurvivesReopen() {
	repo := s.open()
	taxID := "52998224725"
	sub := s.sample(7)
	sub.TaxID = &taxID
	s.Require().NoError(repo.Save(s.ctx, sub))

	reopened := s.open()
	got, err := reopened.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(sub.ID, got.ID)
	s.Equal(10, got.BillingDay)
	s.Equal("149.90", got.Amount.StringFixed(2))
	s.Require().NotNil(got.TaxID)
	s.Equal(taxID, *got.TaxID)
	s.True(got.Active)
}

func (s *FileStoreSuite) TestGetUnknownChat() {
	repo := s.open()

	_, err := repo.Get(s.ctx, 404)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *FileStoreSuite) TestSaveOverwritesExisting() {
	repo := s.open()
	sub := s.sample(7)
	s.Require().NoError(repo.Save(s.ctx, sub))

	sub.Amount = decimal.NewFromInt(200)
	sub.BillingDay = 28
	s.Require().NoError(repo.Save(s.ctx, sub))

	subs, err := repo.List(s.ctx)
	s.Require().NoError(err)
	s.Len(subs, 1)
	s.Equal("200.00", subs[0].Amount.StringFixed(2))
	s.Equal(28, subs[0].BillingDay)
}

func (s *FileStoreSuite) TestDeactivate() {
	repo := s.open()
	s.Require().NoError(repo.Save(s.ctx, s.sample(7)))
	s.Require().NoError(repo.Save(s.ctx, s.sample(8)))

	s.Require().NoError(repo.Deactivate(s.ctx, 7))

	active, err := repo.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Len(active, 1)
	s.Equal(int64(8), active[0].ChatID)

	// Deactivation is persisted, not just in memory.
	reopened := s.open()
	got, err := reopened.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.False(got.Active)
}

func (s *FileStoreSuite) TestDeactivateUnknownChat() {
	repo := s.open()

	err := repo.Deactivate(s.ctx, 404)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *FileStoreSuite) TestCorruptFileStartsEmpty() {
	s.Require().NoError(os.WriteFile(s.path, []byte("not json{{"), 0o644))

	repo := s.open()
	subs, err := repo.List(s.ctx)
	s.NoError(err)
	s.Empty(subs)

	// The store stays usable and the next save rewrites the file.
	s.Require().NoError(repo.Save(s.ctx, s.sample(7)))
	reopened := s.open()
	got, err := reopened.Get(s.ctx, 7)
	s.NoError(err)
	s.Equal(int64(7), got.ChatID)
}

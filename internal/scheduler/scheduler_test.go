package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/recurpix/recurpix/internal/testutil"
)

type SchedulerSuite struct {
	suite.Suite
	sched *Scheduler
}

func TestScheduler(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.sched = New(testutil.NewTestLogger())
}

func (s *SchedulerSuite) TearDownTest() {
	s.sched.Stop()
}

func (s *SchedulerSuite) TestArmAndDisarm() {
	s.False(s.sched.Armed(1))

	s.sched.Arm(1, time.Hour, func(context.Context) {})
	s.True(s.sched.Armed(1))
	s.False(s.sched.Armed(2))

	s.sched.Disarm(1)
	s.False(s.sched.Armed(1))
}

func (s *SchedulerSuite) TestDisarmUnknownKeyIsNoop() {
	s.sched.Disarm(99)
	s.False(s.sched.Armed(99))
}

func (s *SchedulerSuite) TestTaskFiresOnInterval() {
	var fired atomic.Int32
	s.sched.Arm(1, 5*time.Millisecond, func(context.Context) { fired.Add(1) })

	s.Eventually(func() bool { return fired.Load() >= 2 },
		time.Second, time.Millisecond)
}

func (s *SchedulerSuite) TestRearmReplacesExistingTimer() {
	var first, second atomic.Int32
	s.sched.Arm(1, 5*time.Millisecond, func(context.Context) { first.Add(1) })
	s.sched.Arm(1, 5*time.Millisecond, func(context.Context) { second.Add(1) })

	s.Eventually(func() bool { return second.Load() >= 2 },
		time.Second, time.Millisecond)

	// Only one timer exists per key; after replacement the first task
	// never fires again.
	settled := first.Load()
	time.Sleep(30 * time.Millisecond)
	s.Equal(settled, first.Load())
}

func (s *SchedulerSuite) TestDisarmStopsFiring() {
	var fired atomic.Int32
	s.sched.Arm(1, 5*time.Millisecond, func(context.Context) { fired.Add(1) })

	s.Eventually(func() bool { return fired.Load() >= 1 },
		time.Second, time.Millisecond)

	s.sched.Disarm(1)
	settled := fired.Load()
	time.Sleep(30 * time.Millisecond)
	s.LessOrEqual(fired.Load(), settled+1)
}

func (s *SchedulerSuite) TestStopDisarmsEverything() {
	s.sched.Arm(1, time.Hour, func(context.Context) {})
	s.sched.Arm(2, time.Hour, func(context.Context) {})

	s.sched.Stop()
	s.False(s.sched.Armed(1))
	s.False(s.sched.Armed(2))
}

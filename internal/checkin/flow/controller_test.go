package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"housepass/internal/checkin"
	"housepass/internal/checkin/flow"
	"housepass/internal/checkin/flow/mocks"
	"housepass/internal/ticketing/models"
	"housepass/pkg/apierrors"
)

type ControllerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService

	// captured auto-reset timer
	resetDelay time.Duration
	resetFn    func()
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.resetDelay = 0
	s.resetFn = nil
}

func (s *ControllerSuite) newController(opts ...flow.Option) *flow.Controller {
	opts = append(opts, flow.WithAfterFunc(func(d time.Duration, f func()) *time.Timer {
		s.resetDelay = d
		s.resetFn = f
		return time.NewTimer(time.Hour)
	}))
	c := flow.NewController(s.service, opts...)
	s.T().Cleanup(c.Close)
	return c
}

func (s *ControllerSuite) TestVerifyNormalizesInput() {
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-ABC123").
		Return(&models.Order{OrderNumber: "HP-ABC123"}, nil)

	c := s.newController()
	s.Require().NoError(c.Verify(context.Background(), "  hp-abc123  "))
	s.Equal(flow.PhaseVerified, c.Phase())
	s.Equal("HP-ABC123", c.Snapshot().Input)
}

func (s *ControllerSuite) TestVerifyEmptyInputIsNoOp() {
	c := s.newController()
	s.Require().NoError(c.Verify(context.Background(), "   "))
	s.Equal(flow.PhaseIdle, c.Phase())
}

func (s *ControllerSuite) TestVerifyAlreadyCheckedOrder() {
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-XYZ789").
		Return(&models.Order{OrderNumber: "HP-XYZ789", CheckedIn: true}, nil)

	c := s.newController()
	s.Require().NoError(c.Verify(context.Background(), "hp-xyz789"))
	s.Equal(flow.PhaseAlreadyChecked, c.Phase())
}

func (s *ControllerSuite) TestVerifyFailureCarriesBackendMessage() {
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-MISSING").
		Return(nil, apierrors.New(apierrors.CodeRequest, "Order not found"))

	c := s.newController()
	s.Require().Error(c.Verify(context.Background(), "hp-missing"))
	snapshot := c.Snapshot()
	s.Equal(flow.PhaseError, snapshot.Phase)
	s.Equal("Order not found", snapshot.ErrMessage)
}

func (s *ControllerSuite) TestConfirmOutsideVerifiedIsRejected() {
	c := s.newController()
	s.ErrorIs(c.Confirm(context.Background()), flow.ErrNotVerified)
	s.Equal(flow.PhaseIdle, c.Phase())
}

func (s *ControllerSuite) TestConfirmRejectedFromAlreadyChecked() {
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-XYZ789").
		Return(&models.Order{CheckedIn: true}, nil)

	c := s.newController()
	s.Require().NoError(c.Verify(context.Background(), "hp-xyz789"))
	s.ErrorIs(c.Confirm(context.Background()), flow.ErrNotVerified)
	s.Equal(flow.PhaseAlreadyChecked, c.Phase())
}

func (s *ControllerSuite) TestConfirmSuccessSchedulesAutoReset() {
	recentFetched := make(chan struct{})
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-ABC123").
		Return(&models.Order{OrderNumber: "HP-ABC123"}, nil)
	s.service.EXPECT().
		Process(gomock.Any(), "HP-ABC123").
		Return(&models.Order{OrderNumber: "HP-ABC123", CheckedIn: true}, nil)
	s.service.EXPECT().
		Recent(gomock.Any()).
		DoAndReturn(func(ctx context.Context) ([]checkin.Record, error) {
			defer close(recentFetched)
			return []checkin.Record{{OrderNumber: "HP-ABC123"}}, nil
		})

	c := s.newController()
	ctx := context.Background()
	s.Require().NoError(c.Verify(ctx, "hp-abc123"))
	s.Require().NoError(c.Confirm(ctx))
	s.Equal(flow.PhaseSuccess, c.Phase())
	s.Equal(3*time.Second, s.resetDelay)

	select {
	case <-recentFetched:
	case <-time.After(2 * time.Second):
		s.Fail("recent check-ins were not refreshed")
	}
	s.Eventually(func() bool { return len(c.Recent()) == 1 }, time.Second, 10*time.Millisecond)

	s.resetFn()
	s.Equal(flow.PhaseIdle, c.Phase())
	s.Empty(c.Snapshot().Input)
}

func (s *ControllerSuite) TestStaleAutoResetDoesNotClobberNewAttempt() {
	recentFetched := make(chan struct{})
	gomock.InOrder(
		s.service.EXPECT().Verify(gomock.Any(), "HP-AAA111").Return(&models.Order{}, nil),
		s.service.EXPECT().Process(gomock.Any(), "HP-AAA111").Return(&models.Order{}, nil),
	)
	s.service.EXPECT().Recent(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]checkin.Record, error) {
		defer close(recentFetched)
		return nil, nil
	})
	s.service.EXPECT().Verify(gomock.Any(), "HP-BBB222").Return(&models.Order{}, nil)

	c := s.newController()
	ctx := context.Background()
	s.Require().NoError(c.Verify(ctx, "hp-aaa111"))
	s.Require().NoError(c.Confirm(ctx))
	<-recentFetched
	staleReset := s.resetFn

	s.Require().NoError(c.Verify(ctx, "hp-bbb222"))
	staleReset()
	s.Equal(flow.PhaseVerified, c.Phase(), "a fired stale timer must not reset a new attempt")
}

func (s *ControllerSuite) TestConfirmFailureSurfacesMessage() {
	s.service.EXPECT().Verify(gomock.Any(), "HP-ABC123").Return(&models.Order{}, nil)
	s.service.EXPECT().
		Process(gomock.Any(), "HP-ABC123").
		Return(nil, apierrors.New(apierrors.CodeRequest, "Order is refunded"))

	c := s.newController()
	ctx := context.Background()
	s.Require().NoError(c.Verify(ctx, "hp-abc123"))
	s.Require().Error(c.Confirm(ctx))
	snapshot := c.Snapshot()
	s.Equal(flow.PhaseError, snapshot.Phase)
	s.Equal("Order is refunded", snapshot.ErrMessage)
}

func (s *ControllerSuite) TestResetFromAnyPhase() {
	s.service.EXPECT().
		Verify(gomock.Any(), "HP-MISSING").
		Return(nil, apierrors.New(apierrors.CodeRequest, "Order not found"))

	c := s.newController()
	s.Require().Error(c.Verify(context.Background(), "hp-missing"))
	c.Reset()
	snapshot := c.Snapshot()
	s.Equal(flow.PhaseIdle, snapshot.Phase)
	s.Empty(snapshot.Input)
	s.Empty(snapshot.ErrMessage)
	s.Nil(snapshot.Order)
}

func (s *ControllerSuite) TestScanModeVerifiesCodesOnlyWhenIdle() {
	codes := make(chan string)
	verified := make(chan string, 2)
	feed := &fakeFeed{codes: codes, errs: make(chan error)}

	s.service.EXPECT().
		Verify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n string) (*models.Order, error) {
			verified <- n
			return &models.Order{OrderNumber: n}, nil
		})

	c := s.newController(flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
		return feed, nil
	}))
	s.Require().NoError(c.SetMode(context.Background(), flow.ModeScan))
	s.Equal(flow.ModeScan, c.Mode())

	codes <- "hp-abc123"
	s.Equal("HP-ABC123", <-verified)
	s.Equal(flow.PhaseVerified, c.Phase())

	// Station is mid-attempt; the next code is dropped.
	codes <- "hp-next"
	s.Never(func() bool { return len(verified) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}

func (s *ControllerSuite) TestSwitchingModeReleasesFeedAndResets() {
	feed := &fakeFeed{codes: make(chan string), errs: make(chan error)}
	s.service.EXPECT().Verify(gomock.Any(), "HP-ABC123").Return(&models.Order{}, nil)

	c := s.newController(flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
		return feed, nil
	}))
	ctx := context.Background()
	s.Require().NoError(c.SetMode(ctx, flow.ModeScan))
	s.Require().NoError(c.Verify(ctx, "hp-abc123"))

	s.Require().NoError(c.SetMode(ctx, flow.ModeManual))
	s.True(feed.closed.Load(), "leaving scan mode must release the feed")
	s.Equal(flow.PhaseIdle, c.Phase())
	s.Equal(flow.ModeManual, c.Mode())
}

func (s *ControllerSuite) TestScannerAcquisitionFailureNeverTouchesPhase() {
	c := s.newController(flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
		return nil, apierrors.New(apierrors.CodeScannerUnavailable, "Scanner unavailable. Use manual entry.")
	}))

	err := c.SetMode(context.Background(), flow.ModeScan)
	s.Require().Error(err)
	s.True(apierrors.HasCode(err, apierrors.CodeScannerUnavailable))
	s.Equal(flow.PhaseIdle, c.Phase())
	s.Equal(flow.ModeManual, c.Mode())

	select {
	case scanErr := <-c.ScannerErrs():
		s.True(apierrors.HasCode(scanErr, apierrors.CodeScannerUnavailable))
	default:
		s.Fail("expected an error on the scanner channel")
	}
}

func (s *ControllerSuite) TestScannerStreamFailureSurfacesOnChannel() {
	feed := &fakeFeed{codes: make(chan string), errs: make(chan error, 1)}
	c := s.newController(flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
		return feed, nil
	}))
	s.Require().NoError(c.SetMode(context.Background(), flow.ModeScan))

	feed.errs <- apierrors.New(apierrors.CodeScannerUnavailable, "Scanner unavailable. Use manual entry.")

	select {
	case err := <-c.ScannerErrs():
		s.True(apierrors.HasCode(err, apierrors.CodeScannerUnavailable))
	case <-time.After(time.Second):
		s.Fail("stream failure never surfaced")
	}
	s.Equal(flow.PhaseIdle, c.Phase())
}

func (s *ControllerSuite) TestCloseReleasesFeed() {
	feed := &fakeFeed{codes: make(chan string), errs: make(chan error)}
	c := flow.NewController(s.service, flow.WithScannerOpener(func(ctx context.Context) (flow.ScannerFeed, error) {
		return feed, nil
	}))
	s.Require().NoError(c.SetMode(context.Background(), flow.ModeScan))
	c.Close()
	s.True(feed.closed.Load())
}

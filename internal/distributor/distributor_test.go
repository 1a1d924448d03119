package distributor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"crawling_observer/internal/distributor/mocks"
	"crawling_observer/internal/domain"
)

type DistributorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	logs      *mocks.MockLogStore
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher
	recorder  *mocks.MockRecorder

	stored      [][]domain.Row
	handlerErr  error
	distributor *Distributor
	logger      *slog.Logger
}

func (s *DistributorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.logs = mocks.NewMockLogStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.recorder = mocks.NewMockRecorder(s.ctrl)

	s.stored = nil
	s.handlerErr = nil

	registry := NewRegistry(HandlerFunc(domain.TagMacro, func(_ context.Context, _ string, rows []domain.Row) error {
		if s.handlerErr != nil {
			return s.handlerErr
		}
		s.stored = append(s.stored, rows)
		return nil
	}))

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.recorder.EXPECT().ObserveBatch(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	s.distributor = New(s.logs, s.txManager, registry, s.publisher, s.recorder, s.logger, Config{Workers: 2})
	s.distributor.now = func() time.Time {
		return time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	}
}

func (s *DistributorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDistributorTestSuite(t *testing.T) {
	suite.Run(t, new(DistributorTestSuite))
}

func (s *DistributorTestSuite) expectTransaction() {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *DistributorTestSuite) TestDistributeOne_Stored() {
	ctx := context.Background()
	b := payloadBatch(domain.TagMacro, macroRow())
	id := identityOf(s.T(), b)

	s.logs.EXPECT().Exists(ctx, id).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.CrawlingLogRecord) error {
			s.Equal(id, rec.Identity)
			s.Equal("macro", rec.CrawlingType)
			s.Equal(200, rec.StatusCode)
			s.True(rec.ObservedAt.Equal(time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)))
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.RecordStored) error {
			s.Equal(id, event.Identity)
			s.Equal(domain.TagMacro, event.Tag)
			s.Equal(1, event.Rows)
			s.False(event.Failed)
			return nil
		},
	)

	outcome, err := s.distributor.DistributeOne(ctx, b)

	s.NoError(err)
	s.Equal(domain.OutcomeStored, outcome)
	s.Require().Len(s.stored, 1)
	s.Equal("23500.1", s.stored[0][0]["index_value"])
}

func (s *DistributorTestSuite) TestDistributeOne_AlreadyExists() {
	ctx := context.Background()
	b := payloadBatch(domain.TagMacro, macroRow())

	s.logs.EXPECT().Exists(ctx, identityOf(s.T(), b)).Return(true, nil)

	outcome, err := s.distributor.DistributeOne(ctx, b)

	s.NoError(err)
	s.Equal(domain.OutcomeDuplicate, outcome)
	s.Empty(s.stored)
}

func (s *DistributorTestSuite) TestDistributeOne_UniqueConflictIsDuplicate() {
	ctx := context.Background()
	b := payloadBatch(domain.TagMacro, macroRow())

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).
		Return(domain.E(domain.KindStorageConflict, "insert crawling log", errors.New("duplicate key")))

	outcome, err := s.distributor.DistributeOne(ctx, b)

	s.NoError(err)
	s.Equal(domain.OutcomeDuplicate, outcome)
	s.Empty(s.stored)
}

func (s *DistributorTestSuite) TestDistributeOne_FailLog() {
	ctx := context.Background()
	b := domain.Batch{
		Tag:     "unregistered_is_fine_for_failures",
		Log:     domain.CrawlLog{CrawlingType: "news", StatusCode: 500},
		FailLog: &domain.FailLog{ErrMessage: "parse error"},
	}

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	s.logs.EXPECT().InsertFailure(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.FailureRecord) error {
			s.Equal("parse error", rec.ErrMessage)
			s.Len(rec.Identity, 64)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	outcome, err := s.distributor.DistributeOne(ctx, b)

	s.NoError(err)
	s.Equal(domain.OutcomeFailureRecorded, outcome)
	s.Empty(s.stored)
}

func (s *DistributorTestSuite) TestDistributeOne_HandlerFailureRollsBack() {
	ctx := context.Background()
	s.handlerErr = errors.New("column index_value does not exist")

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := s.distributor.DistributeOne(ctx, payloadBatch(domain.TagMacro, macroRow()))

	s.ErrorIs(err, domain.ErrHandlerFailure)
	s.Contains(err.Error(), "handle macro")
	s.Equal(domain.OutcomeError, outcome)
}

func (s *DistributorTestSuite) TestDistributeOne_UnregisteredTag() {
	ctx := context.Background()

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, nil)

	outcome, err := s.distributor.DistributeOne(ctx, payloadBatch("crypto", domain.Row{"coin": "btc"}))

	s.ErrorIs(err, domain.ErrConfiguration)
	s.Equal(domain.OutcomeError, outcome)
}

func (s *DistributorTestSuite) TestDistributeOne_ExistsError() {
	ctx := context.Background()

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, errors.New("connection refused"))

	outcome, err := s.distributor.DistributeOne(ctx, payloadBatch(domain.TagMacro, macroRow()))

	s.Error(err)
	s.Contains(err.Error(), "check identity")
	s.Equal(domain.OutcomeError, outcome)
}

func (s *DistributorTestSuite) TestDistributeOne_PublishErrorIgnored() {
	ctx := context.Background()

	s.logs.EXPECT().Exists(ctx, gomock.Any()).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("channel closed"))

	outcome, err := s.distributor.DistributeOne(ctx, payloadBatch(domain.TagMacro, macroRow()))

	s.NoError(err)
	s.Equal(domain.OutcomeStored, outcome)
}

func (s *DistributorTestSuite) TestDistributeOne_Rejected() {
	ctx := context.Background()

	tests := []struct {
		name  string
		batch domain.Batch
	}{
		{"no payload and no fail log", domain.Batch{Tag: domain.TagMacro, Log: domain.CrawlLog{CrawlingType: "macro"}}},
		{"both payload and fail log", domain.Batch{
			Tag:     domain.TagMacro,
			Log:     domain.CrawlLog{CrawlingType: "macro"},
			Payload: []domain.Row{macroRow()},
			FailLog: &domain.FailLog{ErrMessage: "boom"},
		}},
		{"missing crawling type", domain.Batch{Tag: domain.TagMacro, Payload: []domain.Row{macroRow()}}},
		{"missing tag", domain.Batch{Log: domain.CrawlLog{CrawlingType: "macro"}, Payload: []domain.Row{macroRow()}}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			outcome, err := s.distributor.DistributeOne(ctx, tt.batch)
			s.ErrorIs(err, domain.ErrValidation)
			s.Equal(domain.OutcomeRejected, outcome)
		})
	}
}

func (s *DistributorTestSuite) TestDistribute_CountsOutcomes() {
	ctx := context.Background()
	stored := payloadBatch(domain.TagMacro, macroRow())
	seen := payloadBatch(domain.TagMacro, domain.Row{"index_name": "CPI"})
	unknown := payloadBatch("crypto", domain.Row{"coin": "btc"})
	invalid := domain.Batch{Tag: domain.TagMacro}

	s.logs.EXPECT().Exists(ctx, identityOf(s.T(), stored)).Return(false, nil)
	s.logs.EXPECT().Exists(ctx, identityOf(s.T(), seen)).Return(true, nil)
	s.logs.EXPECT().Exists(ctx, identityOf(s.T(), unknown)).Return(false, nil)
	s.expectTransaction()
	s.logs.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.distributor.Distribute(ctx, stored, seen, unknown, invalid)

	s.ErrorIs(err, domain.ErrConfiguration)
	s.Equal(4, stats.Received)
	s.Equal(1, stats.Stored)
	s.Equal(1, stats.Duplicates)
	s.Equal(1, stats.Rejected)
	s.Equal(1, stats.Errors)
}

package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bank-core-ledger/internal/config"
	"github.com/bank-core-ledger/internal/domain/outbox"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// MockRecordPublisher for testing
type MockRecordPublisher struct {
	mock.Mock
}

func (m *MockRecordPublisher) PublishRecord(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func pollerConfig() *config.OutboxConfig {
	return &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	logger := slog.Default()
	ctx := context.Background()

	t.Run("publishes each pending message", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockRecordPublisher{}
		poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, logger)

		first, _ := stagedMessage(t)
		second, _ := stagedMessage(t)
		second.ID = 8

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{first, second}, nil)
		mockPublisher.On("PublishRecord", mock.Anything, first).Return(nil)
		mockPublisher.On("PublishRecord", mock.Anything, second).Return(nil)

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("no pending messages is a no-op", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockRecordPublisher{}
		poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, logger)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockPublisher.AssertNotCalled(t, "PublishRecord", mock.Anything, mock.Anything)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockRecordPublisher{}
		poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, logger)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("pg down"))

		err := poller.processPendingMessages(ctx)
		assert.Error(t, err)
	})

	t.Run("publish failure increments attempts", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockRecordPublisher{}
		poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, logger)

		msg, _ := stagedMessage(t)
		msg.Attempts = 0

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil)
		mockPublisher.On("PublishRecord", mock.Anything, msg).Return(errors.New("mongo down"))
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, msg.ID).Return(nil)

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockOutboxRepo.AssertCalled(t, "IncrementAttempts", mock.Anything, msg.ID)
		mockOutboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("final failed attempt marks the message FAILED_TO_PUBLISH", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockRecordPublisher{}
		poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, logger)

		msg, _ := stagedMessage(t)
		msg.Attempts = 2 // Third attempt is the last

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil)
		mockPublisher.On("PublishRecord", mock.Anything, msg).Return(errors.New("mongo down"))
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, msg.ID).Return(nil)
		mockOutboxRepo.On("UpdateStatus", mock.Anything, msg.ID, shared.OutboxStatusFailedToPublish).Return(nil)

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
	})
}

func TestPoller_StartStopsOnContextCancel(t *testing.T) {
	mockOutboxRepo := &MockOutboxRepo{}
	mockPublisher := &MockRecordPublisher{}
	poller := NewPoller(pollerConfig(), mockOutboxRepo, mockPublisher, slog.Default())

	mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}

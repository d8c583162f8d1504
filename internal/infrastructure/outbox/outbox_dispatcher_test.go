package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockOutboxRepo) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	args := m.Called(ctx, maxRetry, batchSize)
	msgs, _ := args.Get(0).([]domain.OutboxMessage)
	return msgs, args.Error(1)
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg domain.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func pending(eventType, payload string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            uuid.New(),
		Type:          eventType,
		PayloadJSON:   payload,
		OccurredAtUtc: time.Now().UTC().Unix(),
	}
}

func TestDispatcher_PublishesAndMarksProcessed(t *testing.T) {
	ctx := context.Background()
	msg := pending("PackageConfirmed", `{"packageId":1}`)

	repo := &mockOutboxRepo{}
	repo.On("GetPendingBatch", ctx, 5, 10).Return([]domain.OutboxMessage{msg}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(m domain.OutboxMessage) bool {
		return m.ID == msg.ID && m.ProcessedAtUtc != nil && m.RetryCount == 0
	})).Return(nil).Once()

	var published []string
	publish := func(_ context.Context, env *primitives.IntegrationEventEnvelope) error {
		published = append(published, env.Type)
		assert.JSONEq(t, msg.PayloadJSON, env.PayloadJSON)
		return nil
	}

	n, err := NewDispatcher(repo, publish, 5, 10).DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"PackageConfirmed"}, published)
	repo.AssertExpectations(t)
}

func TestDispatcher_FailedPublishIncrementsRetry(t *testing.T) {
	ctx := context.Background()
	msg := pending("CatalogStockAdjusted", `{"productId":2}`)
	msg.RetryCount = 2

	repo := &mockOutboxRepo{}
	repo.On("GetPendingBatch", ctx, 5, 10).Return([]domain.OutboxMessage{msg}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(m domain.OutboxMessage) bool {
		return m.ID == msg.ID && m.ProcessedAtUtc == nil && m.RetryCount == 3
	})).Return(nil).Once()

	publish := func(context.Context, *primitives.IntegrationEventEnvelope) error {
		return errors.New("broker down")
	}

	n, err := NewDispatcher(repo, publish, 5, 10).DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertExpectations(t)
}

func TestDispatcher_InvalidPayloadIsNeverPublished(t *testing.T) {
	ctx := context.Background()
	msg := pending("PackageDeleted", `{broken`)

	repo := &mockOutboxRepo{}
	repo.On("GetPendingBatch", ctx, 5, 10).Return([]domain.OutboxMessage{msg}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(m domain.OutboxMessage) bool {
		return m.RetryCount == 1 && m.ProcessedAtUtc == nil
	})).Return(nil).Once()

	publish := func(context.Context, *primitives.IntegrationEventEnvelope) error {
		t.Fatal("publish must not be called")
		return nil
	}

	n, err := NewDispatcher(repo, publish, 5, 10).DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertExpectations(t)
}

func TestDispatcher_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := &mockOutboxRepo{}
	repo.On("GetPendingBatch", ctx, 5, 10).Return(nil, errors.New("db gone"))

	_, err := NewDispatcher(repo, nil, 5, 10).DispatchOnce(ctx)
	assert.EqualError(t, err, "db gone")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestJobScheduler_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	s := NewJobScheduler("test", func(context.Context) (int, error) {
		runs.Add(1)
		return 1, nil
	}, 1)
	s.interval = 10 * time.Millisecond
	s.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

func seedProduct(t *testing.T, s *Store, name string, qty int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, qty, "")
	require.NoError(t, err)
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		return st.Products().Insert(ctx, p)
	}))
	return p
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "Tornillo", 5)
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		ok, err := st.Products().DecrementIfAvailable(ctx, p.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)

		pkg := domain.NewDraftPackage(time.Now().UTC())
		pkg.AddLine(p, 1)
		require.NoError(t, st.Packages().Insert(ctx, pkg))
		require.NoError(t, st.Outbox().Insert(ctx, domain.OutboxMessage{Type: "PackageConfirmed", PayloadJSON: "{}"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		got, err := st.Products().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)

		refs, err := st.Packages().IDsContainingProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, refs)
		return nil
	}))

	pending, err := s.Outbox().GetPendingBatch(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWithinTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context, domain.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestProductRepo_DecrementAndReferences(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "Tuerca", 3)

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		ok, err := st.Products().DecrementIfAvailable(ctx, p.ID, 4)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = st.Products().DecrementIfAvailable(ctx, p.ID, 3)
		require.NoError(t, err)
		assert.True(t, ok)

		pkg := domain.NewDraftPackage(time.Now().UTC())
		pkg.AddLine(p, 1)
		require.NoError(t, st.Packages().Insert(ctx, pkg))

		assert.ErrorIs(t, st.Products().Delete(ctx, p.ID), domain.ErrReferenced)

		deleted, err := st.Packages().Delete(ctx, pkg.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		return st.Products().Delete(ctx, p.ID)
	}))
}

func TestPackageRepo_SaveConfirmationOnlyFromDraft(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "Clavo", 10)
	now := time.Now().UTC()

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		pkg := domain.NewDraftPackage(now)
		pkg.AddLine(p, 2)
		require.NoError(t, st.Packages().Insert(ctx, pkg))

		require.NoError(t, pkg.Confirm("Centro", now))
		require.NoError(t, st.Packages().SaveConfirmation(ctx, pkg))
		assert.ErrorIs(t, st.Packages().SaveConfirmation(ctx, pkg), domain.ErrInvalidTransition)

		got, err := st.Packages().Get(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PackageConfirmed, got.Status)
		assert.Equal(t, "Centro", got.Branch)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, "Clavo", got.Lines[0].ProductName)
		return nil
	}))
}

func TestPackageRepo_DraftIDsCreatedBefore(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "Clavo", 10)
	old := time.Now().UTC().Add(-2 * time.Hour)

	var oldID int64
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		stale := domain.NewDraftPackage(old)
		stale.AddLine(p, 1)
		require.NoError(t, st.Packages().Insert(ctx, stale))
		oldID = stale.ID

		fresh := domain.NewDraftPackage(time.Now().UTC())
		fresh.AddLine(p, 1)
		return st.Packages().Insert(ctx, fresh)
	}))

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st domain.Store) error {
		ids, err := st.Packages().DraftIDsCreatedBefore(ctx, time.Now().UTC().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []int64{oldID}, ids)
		return nil
	}))
}

func TestOutbox_PendingInInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	out := s.Outbox()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		msg := domain.OutboxMessage{ID: uuid.New(), Type: "PackageDeleted", PayloadJSON: "{}"}
		require.NoError(t, out.Insert(ctx, msg))
		ids = append(ids, msg.ID)
	}

	batch, err := out.GetPendingBatch(ctx, 5, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, ids[0], batch[0].ID)
	assert.Equal(t, ids[1], batch[1].ID)

	now := time.Now().UTC().Unix()
	batch[0].ProcessedAtUtc = &now
	batch[1].RetryCount = 5
	require.NoError(t, out.Save(ctx, batch[0]))
	require.NoError(t, out.Save(ctx, batch[1]))

	rest, err := out.GetPendingBatch(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[2], rest[0].ID)
}

func TestEmployeeRepository_UniqueUsername(t *testing.T) {
	r := NewEmployeeRepository()
	ctx := context.Background()

	e := &domain.Employee{Username: "ana", Role: domain.RoleUser, Active: true}
	require.NoError(t, r.Insert(ctx, e))
	assert.Equal(t, int64(1), e.ID)

	err := r.Insert(ctx, &domain.Employee{Username: "ana"})
	assert.True(t, domain.IsValidation(err))

	got, err := r.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	require.NoError(t, r.Delete(ctx, e.ID))
	_, err = r.Get(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

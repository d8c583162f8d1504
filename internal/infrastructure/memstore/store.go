// Package memstore keeps the whole service state in memory. Transactions are
// serialised: WithinTx works on a copy and swaps it in only when fn succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type state struct {
	products   map[int64]domain.Product
	packages   map[int64]domain.Package
	outbox     map[uuid.UUID]domain.OutboxMessage
	outboxSeq  []uuid.UUID
	nextProdID int64
	nextPkgID  int64
	nextLineID int64
}

func newState() *state {
	return &state{
		products: map[int64]domain.Product{},
		packages: map[int64]domain.Package{},
		outbox:   map[uuid.UUID]domain.OutboxMessage{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:   make(map[int64]domain.Product, len(s.products)),
		packages:   make(map[int64]domain.Package, len(s.packages)),
		outbox:     make(map[uuid.UUID]domain.OutboxMessage, len(s.outbox)),
		outboxSeq:  append([]uuid.UUID(nil), s.outboxSeq...),
		nextProdID: s.nextProdID,
		nextPkgID:  s.nextPkgID,
		nextLineID: s.nextLineID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.packages {
		v.Lines = append([]domain.LineItem(nil), v.Lines...)
		c.packages[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Outbox returns a repository that commits every call on its own.
func (s *Store) Outbox() domain.OutboxRepository {
	return &autoCommitOutbox{store: s}
}

type txStore struct {
	st *state
}

func (t *txStore) Products() domain.ProductRepository { return &productRepo{st: t.st} }
func (t *txStore) Packages() domain.PackageRepository { return &packageRepo{st: t.st} }
func (t *txStore) Outbox() domain.OutboxRepository    { return &outboxRepo{st: t.st} }

// ---------- products ----------

type productRepo struct {
	st *state
}

func copyProduct(p domain.Product) *domain.Product {
	if p.Barcode != nil {
		b := *p.Barcode
		p.Barcode = &b
	}
	return &p
}

func (r *productRepo) Get(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *productRepo) GetMany(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	out := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.st.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

func (r *productRepo) LockMany(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	return r.GetMany(ctx, ids)
}

func (r *productRepo) GetByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	for _, p := range r.st.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			return copyProduct(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *productRepo) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		out = append(out, *copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *productRepo) Insert(_ context.Context, p *domain.Product) error {
	if p.Barcode != nil && r.barcodeTaken(*p.Barcode, 0) {
		return domain.NewValidationError("barcode", "el valor ya está registrado")
	}
	if p.Quantity < 0 {
		return domain.ErrStockConflict
	}
	r.st.nextProdID++
	p.ID = r.st.nextProdID
	now := time.Now().UTC()
	if p.CreatedAtUtc.IsZero() {
		p.CreatedAtUtc = now
	}
	if p.UpdatedAtUtc.IsZero() {
		p.UpdatedAtUtc = now
	}
	r.st.products[p.ID] = *copyProduct(*p)
	return nil
}

func (r *productRepo) Update(_ context.Context, p *domain.Product) error {
	current, ok := r.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Barcode != nil && r.barcodeTaken(*p.Barcode, p.ID) {
		return domain.NewValidationError("barcode", "el valor ya está registrado")
	}
	if p.Quantity < 0 {
		return domain.ErrStockConflict
	}
	next := *copyProduct(*p)
	if next.Image == nil {
		next.Image = current.Image
	}
	r.st.products[p.ID] = next
	return nil
}

func (r *productRepo) barcodeTaken(barcode string, selfID int64) bool {
	for id, p := range r.st.products {
		if id != selfID && p.Barcode != nil && *p.Barcode == barcode {
			return true
		}
	}
	return false
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.st.products[id]; !ok {
		return domain.ErrNotFound
	}
	used, _ := r.HasPackageReferences(ctx, id)
	if used {
		return domain.ErrReferenced
	}
	delete(r.st.products, id)
	return nil
}

func (r *productRepo) DecrementIfAvailable(_ context.Context, id int64, amount int) (bool, error) {
	p, ok := r.st.products[id]
	if !ok || p.Quantity < amount {
		return false, nil
	}
	p.Quantity -= amount
	p.UpdatedAtUtc = time.Now().UTC()
	r.st.products[id] = p
	return true, nil
}

func (r *productRepo) HasPackageReferences(_ context.Context, id int64) (bool, error) {
	for _, pkg := range r.st.packages {
		for _, l := range pkg.Lines {
			if l.ProductID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// ---------- packages ----------

type packageRepo struct {
	st *state
}

func (r *packageRepo) copyPackage(p domain.Package) *domain.Package {
	p.Lines = append([]domain.LineItem(nil), p.Lines...)
	for i := range p.Lines {
		if prod, ok := r.st.products[p.Lines[i].ProductID]; ok {
			p.Lines[i].ProductName = prod.Name
		}
	}
	if p.ConfirmedAtUtc != nil {
		t := *p.ConfirmedAtUtc
		p.ConfirmedAtUtc = &t
	}
	return &p
}

func (r *packageRepo) Get(_ context.Context, id int64) (*domain.Package, error) {
	p, ok := r.st.packages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.copyPackage(p), nil
}

func (r *packageRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Package, error) {
	return r.Get(ctx, id)
}

func (r *packageRepo) Insert(_ context.Context, p *domain.Package) error {
	for _, l := range p.Lines {
		if _, ok := r.st.products[l.ProductID]; !ok {
			return domain.ErrReferenced
		}
		if l.Quantity <= 0 {
			return domain.ErrStockConflict
		}
	}
	r.st.nextPkgID++
	p.ID = r.st.nextPkgID
	for i := range p.Lines {
		r.st.nextLineID++
		p.Lines[i].ID = r.st.nextLineID
		p.Lines[i].PackageID = p.ID
	}
	r.st.packages[p.ID] = *r.copyPackage(*p)
	return nil
}

func (r *packageRepo) SaveConfirmation(_ context.Context, p *domain.Package) error {
	current, ok := r.st.packages[p.ID]
	if !ok || current.Status != domain.PackageDraft {
		return domain.ErrInvalidTransition
	}
	current.Branch = p.Branch
	current.Status = p.Status
	current.ConfirmedAtUtc = p.ConfirmedAtUtc
	r.st.packages[p.ID] = current
	return nil
}

func (r *packageRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.st.packages[id]; !ok {
		return false, nil
	}
	delete(r.st.packages, id)
	return true, nil
}

func (r *packageRepo) ListConfirmed(_ context.Context) ([]domain.Package, error) {
	var out []domain.Package
	for _, p := range r.st.packages {
		if p.Status == domain.PackageConfirmed {
			out = append(out, *r.copyPackage(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAtUtc.Equal(out[j].CreatedAtUtc) {
			return out[i].CreatedAtUtc.After(out[j].CreatedAtUtc)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *packageRepo) IDsContainingProduct(_ context.Context, productID int64) ([]int64, error) {
	var ids []int64
	for id, p := range r.st.packages {
		for _, l := range p.Lines {
			if l.ProductID == productID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *packageRepo) DraftIDsCreatedBefore(_ context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	for id, p := range r.st.packages {
		if p.Status == domain.PackageDraft && p.CreatedAtUtc.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---------- outbox ----------

type outboxRepo struct {
	st *state
}

func (r *outboxRepo) Insert(_ context.Context, msg domain.OutboxMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.OccurredAtUtc == 0 {
		msg.OccurredAtUtc = time.Now().UTC().Unix()
	}
	if _, dup := r.st.outbox[msg.ID]; !dup {
		r.st.outboxSeq = append(r.st.outboxSeq, msg.ID)
	}
	r.st.outbox[msg.ID] = msg
	return nil
}

func (r *outboxRepo) GetPendingBatch(_ context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	for _, id := range r.st.outboxSeq {
		if len(out) >= batchSize {
			break
		}
		msg := r.st.outbox[id]
		if msg.ProcessedAtUtc == nil && msg.RetryCount < maxRetry {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *outboxRepo) Save(_ context.Context, msg domain.OutboxMessage) error {
	if _, ok := r.st.outbox[msg.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.outbox[msg.ID] = msg
	return nil
}

type autoCommitOutbox struct {
	store *Store
}

func (o *autoCommitOutbox) Insert(ctx context.Context, msg domain.OutboxMessage) error {
	return o.store.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		return st.Outbox().Insert(ctx, msg)
	})
}

func (o *autoCommitOutbox) GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	err := o.store.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		var err error
		out, err = st.Outbox().GetPendingBatch(ctx, maxRetry, batchSize)
		return err
	})
	return out, err
}

func (o *autoCommitOutbox) Save(ctx context.Context, msg domain.OutboxMessage) error {
	return o.store.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		return st.Outbox().Save(ctx, msg)
	})
}

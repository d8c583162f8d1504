package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

func TestProductService_CreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.products.Create(f.ctx, userActor, ProductInput{Name: "A", Quantity: intPtr(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.products.Create(f.ctx, bossActor, ProductInput{Name: "", Quantity: intPtr(1)})
	assert.True(t, domain.IsValidation(err))

	_, err = f.products.Create(f.ctx, bossActor, ProductInput{Name: "A", Quantity: intPtr(-1)})
	assert.True(t, domain.IsValidation(err))
}

func TestProductService_BarcodeIsUnique(t *testing.T) {
	f := newFixture(t)

	_, err := f.products.Create(f.ctx, adminActor, ProductInput{Name: "A", Quantity: intPtr(1), Barcode: strPtr("750")})
	require.NoError(t, err)
	b, err := f.products.Create(f.ctx, adminActor, ProductInput{Name: "B", Quantity: intPtr(1)})
	require.NoError(t, err)

	_, err = f.products.Create(f.ctx, adminActor, ProductInput{Name: "C", Quantity: intPtr(1), Barcode: strPtr("750")})
	assert.True(t, domain.IsValidation(err))

	_, err = f.products.Update(f.ctx, adminActor, b.ID, ProductInput{Name: "B", Quantity: intPtr(1), Barcode: strPtr("750")})
	assert.True(t, domain.IsValidation(err))
}

func TestProductService_UpdateEmitsAdjustmentOnlyOnQuantityChange(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", 10)
	baseline := len(f.pendingEvents(t))

	_, err := f.products.Update(f.ctx, adminActor, a.ID, ProductInput{Name: "A renamed", Quantity: intPtr(10)})
	require.NoError(t, err)
	assert.Len(t, f.pendingEvents(t), baseline)

	updated, err := f.products.Update(f.ctx, adminActor, a.ID, ProductInput{Name: "A renamed", Quantity: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, "A renamed", updated.Name)
	assert.Len(t, f.pendingEvents(t), baseline+1)
}

func TestProductService_DeleteRefusesWhileReferenced(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "Tornillo", 10)
	unused := f.addProduct(t, "Tuerca", 1)

	d1, err := f.packages.Generate(f.ctx, userActor, []SelectionItem{{ProductID: a.ID, Quantity: 1}})
	require.NoError(t, err)
	d2, err := f.packages.Generate(f.ctx, userActor, []SelectionItem{{ProductID: a.ID, Quantity: 2}})
	require.NoError(t, err)

	err = f.products.Delete(f.ctx, adminActor, a.ID)
	var inUse *domain.ProductInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, "Tornillo", inUse.ProductName)
	assert.Equal(t, []int64{d1.ID, d2.ID}, inUse.PackageIDs)

	assert.ErrorIs(t, f.products.Delete(f.ctx, userActor, unused.ID), domain.ErrForbidden)
	require.NoError(t, f.products.Delete(f.ctx, adminActor, unused.ID))
	_, err = f.products.Get(f.ctx, unused.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductCreatedHandler_UpsertsByBarcode(t *testing.T) {
	f := newFixture(t)
	h := NewProductCreatedHandler(f.products)

	publish := func(sku string, qty int) {
		t.Helper()
		payload := fmt.Sprintf(`{"sku":%q,"name":"Martillo","stockQuantity":%d,"createdAtUtc":%q,"isActive":true}`,
			sku, qty, time.Now().UTC().Format(time.RFC3339))
		env := primitives.NewIntegrationEventEnvelope("ProductCreated", payload)
		require.NoError(t, h.Handle(context.Background(), &env))
	}

	publish("SKU-1", 12)
	products, err := f.products.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 12, products[0].Quantity)
	require.NotNil(t, products[0].Barcode)
	assert.Equal(t, "SKU-1", *products[0].Barcode)

	publish("SKU-1", 20)
	products, err = f.products.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 20, products[0].Quantity)
}

func TestProductCreatedHandler_IgnoresForeignAndBrokenEvents(t *testing.T) {
	f := newFixture(t)
	h := NewProductCreatedHandler(f.products)
	ctx := context.Background()

	other := primitives.NewIntegrationEventEnvelope("ProductDeleted", `{"sku":"X"}`)
	assert.NoError(t, h.Handle(ctx, &other))

	broken := primitives.NewIntegrationEventEnvelope("ProductCreated", `{not json`)
	assert.NoError(t, h.Handle(ctx, &broken))

	noSku := primitives.NewIntegrationEventEnvelope("ProductCreated", `{"name":"X","stockQuantity":1,"isActive":true}`)
	assert.NoError(t, h.Handle(ctx, &noSku))

	negative := primitives.NewIntegrationEventEnvelope("ProductCreated", `{"sku":"N","name":"X","stockQuantity":-4,"isActive":true}`)
	assert.NoError(t, h.Handle(ctx, &negative))

	products, err := f.products.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductService_UpdateRequiresQuantityAndKeepsBarcode(t *testing.T) {
	f := newFixture(t)
	p, err := f.products.Create(f.ctx, adminActor, ProductInput{Name: "Harina", Quantity: intPtr(40), Barcode: strPtr("750100")})
	require.NoError(t, err)

	_, err = f.products.Update(f.ctx, adminActor, p.ID, ProductInput{Name: "Harina fina"})
	require.True(t, domain.IsValidation(err))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cantidad", verr.Field)

	got, err := f.products.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harina", got.Name)
	assert.Equal(t, 40, got.Quantity)

	got, err = f.products.Update(f.ctx, adminActor, p.ID, ProductInput{Name: "Harina fina", Quantity: intPtr(40)})
	require.NoError(t, err)
	require.NotNil(t, got.Barcode)
	assert.Equal(t, "750100", *got.Barcode)

	got, err = f.products.Update(f.ctx, adminActor, p.ID, ProductInput{Name: "Harina fina", Quantity: intPtr(40), Barcode: strPtr(" ")})
	require.NoError(t, err)
	assert.Nil(t, got.Barcode)

	_, err = f.products.Create(f.ctx, adminActor, ProductInput{Name: "Sal"})
	assert.True(t, domain.IsValidation(err))
}

func TestProductService_Image(t *testing.T) {
	f := newFixture(t)
	plain := f.addProduct(t, "Sal", 1)

	_, err := f.products.Image(f.ctx, plain.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.products.Image(f.ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	img := []byte{0xff, 0xd8, 0xff, 0xe0}
	p, err := f.products.Create(f.ctx, adminActor, ProductInput{Name: "Harina", Quantity: intPtr(1), Image: img})
	require.NoError(t, err)

	// editar sin imagen conserva la actual
	_, err = f.products.Update(f.ctx, adminActor, p.ID, ProductInput{Name: "Harina", Quantity: intPtr(2)})
	require.NoError(t, err)
	got, err := f.products.Image(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, img, got)

	_, err = f.products.Update(f.ctx, adminActor, plain.ID, ProductInput{Name: "Sal", Quantity: intPtr(1), Image: img})
	require.NoError(t, err)
	got, err = f.products.Image(f.ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

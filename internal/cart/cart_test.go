package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	tee = Product{ID: 1, Name: "MISKRE Tee", Price: 29.99, SellerID: 7}
	hat = Product{ID: 2, Name: "MISKRE Cap", Price: 19.99, SellerID: 7}
)

func newTestManager() *Manager {
	return NewManager("fighter1", NewMemoryStorage())
}

func TestManager_AddItem(t *testing.T) {
	m := newTestManager()

	m.AddItem(tee, "M", 1)
	m.AddItem(hat, "", 2)

	items := m.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, 3, m.ItemCount())
}

func TestManager_AddItemMergesSameProductAndSize(t *testing.T) {
	m := newTestManager()

	m.AddItem(tee, "M", 1)
	m.AddItem(tee, "M", 2)

	items := m.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestManager_AddItemDifferentSizesStaySeparate(t *testing.T) {
	m := newTestManager()

	m.AddItem(tee, "M", 1)
	m.AddItem(tee, "L", 1)

	assert.Len(t, m.Items(), 2)
}

func TestManager_AddItemClampsQuantity(t *testing.T) {
	m := newTestManager()

	m.AddItem(tee, "M", 0)
	m.AddItem(hat, "", -3)

	assert.Equal(t, 2, m.ItemCount())
}

func TestManager_UpdateQuantity(t *testing.T) {
	m := newTestManager()
	m.AddItem(tee, "M", 1)

	m.UpdateQuantity(tee.ID, "M", 5)
	assert.Equal(t, 5, m.Items()[0].Quantity)

	// Zero or negative removes the line
	m.UpdateQuantity(tee.ID, "M", 0)
	assert.Empty(t, m.Items())
}

func TestManager_UpdateQuantityMissingEntryIsNoop(t *testing.T) {
	m := newTestManager()
	m.AddItem(tee, "M", 1)

	m.UpdateQuantity(99, "M", 3)
	assert.Equal(t, 1, m.Items()[0].Quantity)
}

func TestManager_RemoveItem(t *testing.T) {
	m := newTestManager()
	m.AddItem(tee, "M", 1)
	m.AddItem(tee, "L", 1)

	m.RemoveItem(tee.ID, "M")

	items := m.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, "L", items[0].Size)
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager()
	m.AddItem(tee, "M", 2)

	m.Clear()
	assert.Empty(t, m.Items())
	assert.Equal(t, 0, m.ItemCount())
}

func TestManager_Total(t *testing.T) {
	m := newTestManager()
	m.AddItem(tee, "M", 2)
	m.AddItem(hat, "", 1)

	assert.InDelta(t, 79.97, m.Total(), 0.001)
}

func TestManager_SubscribersNotifiedOnMutation(t *testing.T) {
	m := newTestManager()

	calls := 0
	m.Subscribe(func() { calls++ })

	m.AddItem(tee, "M", 1)
	m.UpdateQuantity(tee.ID, "M", 2)
	m.RemoveItem(tee.ID, "M")
	m.Clear()

	assert.Equal(t, 4, calls)
}

func TestManager_CartsAreScopedBySubdomain(t *testing.T) {
	storage := NewMemoryStorage()
	m1 := NewManager("fighter1", storage)
	m2 := NewManager("fighter2", storage)

	m1.AddItem(tee, "M", 1)

	assert.Len(t, m1.Items(), 1)
	assert.Empty(t, m2.Items())
}

func TestManager_CorruptStorageTreatedAsEmpty(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Save("cart_fighter1", []byte("{not json"))

	m := NewManager("fighter1", storage)
	assert.Empty(t, m.Items())
	assert.Equal(t, 0, m.ItemCount())

	// Adding still works after a corrupt payload
	m.AddItem(tee, "M", 1)
	assert.Len(t, m.Items(), 1)
}

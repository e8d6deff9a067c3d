package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestTakeItems(t *testing.T) {
	t.Run("plain stacks are consumed first", func(t *testing.T) {
		p := &Player{Inventory: []InventoryItem{
			{ItemID: "sword", Quantity: 1, Durability: intPtr(40)},
			{ItemID: "sword", Quantity: 2},
			{ItemID: "potion", Quantity: 5},
		}}

		taken, err := p.TakeItems("sword", 2)

		require.NoError(t, err)
		assert.Equal(t, []InventoryItem{{ItemID: "sword", Quantity: 2}}, taken)
		assert.Equal(t, 1, p.CountItem("sword"))
		assert.Equal(t, 5, p.CountItem("potion"))
	})

	t.Run("spills into durable stacks", func(t *testing.T) {
		p := &Player{Inventory: []InventoryItem{
			{ItemID: "sword", Quantity: 1},
			{ItemID: "sword", Quantity: 1, Durability: intPtr(40)},
		}}

		taken, err := p.TakeItems("sword", 2)

		require.NoError(t, err)
		require.Len(t, taken, 2)
		assert.Nil(t, taken[0].Durability)
		require.NotNil(t, taken[1].Durability)
		assert.Equal(t, 40, *taken[1].Durability)
		assert.Empty(t, p.Inventory)
	})

	t.Run("unequips an item that is gone", func(t *testing.T) {
		p := &Player{
			Inventory:     []InventoryItem{{ItemID: "sword", Quantity: 1}},
			EquippedItems: map[string]string{SlotWeapon: "sword", SlotArmor: "plate"},
		}

		_, err := p.TakeItems("sword", 1)

		require.NoError(t, err)
		assert.Equal(t, "", p.EquippedItems[SlotWeapon])
		assert.Equal(t, "plate", p.EquippedItems[SlotArmor])
	})

	t.Run("insufficient quantity leaves inventory untouched", func(t *testing.T) {
		p := &Player{Inventory: []InventoryItem{{ItemID: "sword", Quantity: 1}}}

		_, err := p.TakeItems("sword", 2)

		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
		assert.Equal(t, 1, p.CountItem("sword"))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		p := &Player{}
		_, err := p.TakeItems("sword", 0)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestGiveItems(t *testing.T) {
	p := &Player{Inventory: []InventoryItem{{ItemID: "potion", Quantity: 1}}}
	durability := intPtr(10)

	p.GiveItems(
		InventoryItem{ItemID: "potion", Quantity: 2},
		InventoryItem{ItemID: "sword", Quantity: 1, Durability: durability},
		InventoryItem{ItemID: "ghost", Quantity: 0},
	)
	*durability = 99

	require.Len(t, p.Inventory, 2)
	assert.Equal(t, 3, p.CountItem("potion"), "plain stacks merge")
	require.NotNil(t, p.Inventory[1].Durability)
	assert.Equal(t, 10, *p.Inventory[1].Durability, "durability is copied, not shared")
	assert.Equal(t, 0, p.CountItem("ghost"))
}

func TestTakeGiveRoundTrip(t *testing.T) {
	p := &Player{Inventory: []InventoryItem{
		{ItemID: "sword", Quantity: 1, Durability: intPtr(70)},
		{ItemID: "sword", Quantity: 3},
	}}

	taken, err := p.TakeItems("sword", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, TotalQuantity(taken))

	p.GiveItems(taken...)
	assert.Equal(t, 4, p.CountItem("sword"))

	require.NoError(t, p.RemoveExact(taken...))
	assert.Equal(t, 0, p.CountItem("sword"))
}

func TestDebitCredit(t *testing.T) {
	p := &Player{Currency: 100}

	require.NoError(t, p.Debit(60))
	assert.Equal(t, 40, p.Currency)

	assert.ErrorIs(t, p.Debit(41), ErrInsufficientFunds)
	assert.Equal(t, 40, p.Currency, "a failed debit changes nothing")

	assert.ErrorIs(t, p.Debit(-1), ErrInvalidInput)

	p.Credit(10)
	assert.Equal(t, 50, p.Currency)
}

func TestRemoveExact_MatchesDurability(t *testing.T) {
	t.Run("leaves a pre-owned plain copy alone", func(t *testing.T) {
		p := &Player{Inventory: []InventoryItem{{ItemID: "sword", Quantity: 1}}}
		received := []InventoryItem{{ItemID: "sword", Quantity: 1, Durability: intPtr(10)}}
		p.GiveItems(received...)

		require.NoError(t, p.RemoveExact(received...))

		require.Len(t, p.Inventory, 1)
		assert.Nil(t, p.Inventory[0].Durability)
		assert.Equal(t, 1, p.Inventory[0].Quantity)
	})

	t.Run("leaves a pre-owned worn copy alone", func(t *testing.T) {
		p := &Player{Inventory: []InventoryItem{{ItemID: "sword", Quantity: 1, Durability: intPtr(90)}}}
		received := []InventoryItem{{ItemID: "sword", Quantity: 2}}
		p.GiveItems(received...)

		require.NoError(t, p.RemoveExact(received...))

		require.Len(t, p.Inventory, 1)
		require.NotNil(t, p.Inventory[0].Durability)
		assert.Equal(t, 90, *p.Inventory[0].Durability)
	})

	t.Run("no exact match changes nothing", func(t *testing.T) {
		p := &Player{
			Inventory: []InventoryItem{
				{ItemID: "sword", Quantity: 1},
				{ItemID: "shield", Quantity: 1, Durability: intPtr(50)},
			},
			EquippedItems: map[string]string{SlotWeapon: "sword"},
		}

		err := p.RemoveExact(
			InventoryItem{ItemID: "sword", Quantity: 1},
			InventoryItem{ItemID: "shield", Quantity: 1, Durability: intPtr(49)},
		)

		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		assert.Len(t, p.Inventory, 2)
		assert.Equal(t, "sword", p.EquippedItems[SlotWeapon])
	})

	t.Run("unequips what is fully removed", func(t *testing.T) {
		p := &Player{
			Inventory:     []InventoryItem{{ItemID: "plate", Quantity: 1, Durability: intPtr(30)}},
			EquippedItems: map[string]string{SlotArmor: "plate"},
		}

		require.NoError(t, p.RemoveExact(InventoryItem{ItemID: "plate", Quantity: 1, Durability: intPtr(30)}))

		assert.Empty(t, p.Inventory)
		assert.Equal(t, "", p.EquippedItems[SlotArmor])
	})
}

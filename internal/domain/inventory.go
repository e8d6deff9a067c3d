package domain

// CountItem returns the total quantity of itemID across all stacks
func (p *Player) CountItem(itemID string) int {
	total := 0
	for _, it := range p.Inventory {
		if it.ItemID == itemID {
			total += it.Quantity
		}
	}
	return total
}

// TakeItems removes quantity of itemID from the inventory and returns the exact
// stacks removed, so they can be given back or transferred unchanged.
// Plain stacks are consumed before stacks carrying durability.
func (p *Player) TakeItems(itemID string, quantity int) ([]InventoryItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidInput
	}
	if p.CountItem(itemID) < quantity {
		return nil, ErrInsufficientQuantity
	}

	var taken []InventoryItem
	remaining := quantity
	for _, plain := range []bool{true, false} {
		kept := p.Inventory[:0:0]
		for _, it := range p.Inventory {
			if remaining == 0 || it.ItemID != itemID || (it.Durability == nil) != plain {
				kept = append(kept, it)
				continue
			}
			n := it.Quantity
			if n > remaining {
				n = remaining
			}
			taken = append(taken, InventoryItem{ItemID: it.ItemID, Quantity: n, Durability: copyInt(it.Durability)})
			remaining -= n
			if it.Quantity > n {
				it.Quantity -= n
				kept = append(kept, it)
			}
		}
		p.Inventory = kept
	}

	if p.CountItem(itemID) == 0 {
		p.unequip(itemID)
	}
	return taken, nil
}

// GiveItems adds stacks to the inventory. Plain stacks merge with an existing
// plain stack of the same item; stacks with durability are appended as-is.
func (p *Player) GiveItems(items ...InventoryItem) {
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		merged := false
		if item.Durability == nil {
			for i := range p.Inventory {
				if p.Inventory[i].ItemID == item.ItemID && p.Inventory[i].Durability == nil {
					p.Inventory[i].Quantity += item.Quantity
					merged = true
					break
				}
			}
		}
		if !merged {
			p.Inventory = append(p.Inventory, InventoryItem{
				ItemID:     item.ItemID,
				Quantity:   item.Quantity,
				Durability: copyInt(item.Durability),
			})
		}
	}
}

// RemoveExact takes back stacks previously handed out by GiveItems.
// Each stack matches only inventory of the same item and durability (nil
// matches only plain stacks). Nothing changes unless every stack is found.
// Used by compensating actions.
func (p *Player) RemoveExact(items ...InventoryItem) error {
	inv := make([]InventoryItem, len(p.Inventory))
	copy(inv, p.Inventory)

	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidInput
		}
		remaining := item.Quantity
		for i := range inv {
			if remaining == 0 {
				break
			}
			if inv[i].ItemID != item.ItemID || !sameDurability(inv[i].Durability, item.Durability) {
				continue
			}
			n := inv[i].Quantity
			if n > remaining {
				n = remaining
			}
			inv[i].Quantity -= n
			remaining -= n
		}
		if remaining > 0 {
			return ErrInsufficientQuantity
		}
	}

	kept := inv[:0]
	for _, it := range inv {
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	p.Inventory = kept

	for _, item := range items {
		if p.CountItem(item.ItemID) == 0 {
			p.unequip(item.ItemID)
		}
	}
	return nil
}

func sameDurability(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Debit subtracts amount from currency, failing rather than going negative
func (p *Player) Debit(amount int) error {
	if amount < 0 {
		return ErrInvalidInput
	}
	if p.Currency < amount {
		return ErrInsufficientFunds
	}
	p.Currency -= amount
	return nil
}

// Credit adds amount to currency
func (p *Player) Credit(amount int) {
	p.Currency += amount
}

func (p *Player) unequip(itemID string) {
	for slot, equipped := range p.EquippedItems {
		if equipped == itemID {
			p.EquippedItems[slot] = ""
		}
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// TotalQuantity sums the quantities of stacks
func TotalQuantity(items []InventoryItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

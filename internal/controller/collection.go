package controller

import (
	"context"

	"inventoryrecord/pkg/domain"
)

// Entries returns a copy of the collection.
func (c *Controller) Entries() []domain.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns the collection member with id.
func (c *Controller) Entry(id string) (domain.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := domain.FindEntry(c.entries, id)
	return e.Clone(), ok
}

// Create persists fields as a new entry and appends it to the collection
// without changing navigation.
func (c *Controller) Create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	c.op.Lock()
	defer c.op.Unlock()
	return c.create(context.WithoutCancel(ctx), fields)
}

// Update fully replaces the fields of id. A Detail view showing id is
// refreshed in place.
func (c *Controller) Update(ctx context.Context, id string, fields domain.EntryFormData) (domain.Entry, error) {
	c.op.Lock()
	defer c.op.Unlock()
	return c.replace(context.WithoutCancel(ctx), id, fields)
}

// Delete removes id. A Detail view showing id returns to the list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.op.Lock()
	defer c.op.Unlock()
	return c.remove(context.WithoutCancel(ctx), id)
}

// Package controller owns the in-memory entry collection and the
// navigation state of the single user, and routes view intents to the store.
package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"inventoryrecord/pkg/domain"
)

// Request is one posted intent. ID selects an entry for view, edit and
// delete from the list; Fields carries form input for submit and update.
type Request struct {
	Intent Intent
	ID     string
	Fields domain.EntryFormData
}

// State is a read-only copy of everything a view renders. Draft holds
// rejected form input so the form can be shown again.
type State struct {
	Navigation Navigation
	Entries    []domain.Entry
	Draft      domain.EntryFormData
	Error      string
	Loaded     bool
	Variant    domain.StoreVariant
}

// Controller serializes intents from one user against a store. The
// collection changes only after the store confirms a mutation, and reads
// see the pre-mutation state while a store call is in flight.
type Controller struct {
	// op serializes intents and store calls. Fields below are written only
	// while op is held, and always under mu, which is never held across a
	// store call.
	op       sync.Mutex
	mu       sync.RWMutex
	store    domain.EntryStore
	logger   *slog.Logger
	entries  []domain.Entry
	nav      Navigation
	selected string
	draft    domain.EntryFormData
	lastErr  error
	loaded   bool
	synced   bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a controller in the List state with an empty collection.
func New(store domain.EntryStore, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		nav:    listNav(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the collection from the store. On failure the collection is
// left empty and the error is recorded for display.
func (c *Controller) Load(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	return c.load(ctx)
}

func (c *Controller) load(ctx context.Context) error {
	entries, err := c.store.List(context.WithoutCancel(ctx))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	if err != nil {
		c.entries = nil
		c.synced = false
		c.fail("load entries", err)
		return err
	}
	c.entries = entries
	c.synced = true
	c.lastErr = nil
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries := make([]domain.Entry, len(c.entries))
	for i, e := range c.entries {
		entries[i] = e.Clone()
	}
	st := State{
		Navigation: c.nav,
		Entries:    entries,
		Draft:      c.draft.Clone(),
		Loaded:     c.loaded,
		Variant:    c.store.Variant(),
	}
	st.Navigation.Entry = c.nav.Entry.Clone()
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	return st
}

// Selected returns the id of the most recently viewed or updated entry.
func (c *Controller) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// DismissError clears the recorded error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

// Dispatch applies req to the current state. Intents not accepted in the
// current view return ErrInvalidTransition and change nothing. Store
// failures are recorded for display and returned; state and navigation are
// left as they were.
func (c *Controller) Dispatch(ctx context.Context, req Request) error {
	c.op.Lock()
	defer c.op.Unlock()
	if !allowed(c.nav, req.Intent) {
		return invalid(c.nav, req.Intent)
	}
	ctx = context.WithoutCancel(ctx)

	switch req.Intent {
	case IntentAdd:
		c.goTo(Navigation{View: ViewForm})
	case IntentView, IntentEdit:
		if c.nav.View == ViewDetail {
			c.goTo(detailNav(c.nav.Entry, true))
			return nil
		}
		entry, ok := domain.FindEntry(c.entries, req.ID)
		if !ok {
			err := domain.NotFoundError{ID: req.ID}
			c.record("open entry", err, nil)
			return err
		}
		c.mu.Lock()
		c.selected = entry.ID
		c.navigate(detailNav(entry, req.Intent == IntentEdit))
		c.mu.Unlock()
	case IntentSubmit:
		return c.submit(ctx, req.Fields)
	case IntentUpdate:
		return c.update(ctx, req.Fields)
	case IntentDelete:
		id := req.ID
		if c.nav.View == ViewDetail {
			id = c.nav.Entry.ID
		}
		if err := c.remove(ctx, id); err != nil {
			c.record("delete entry", err, nil)
			return err
		}
		c.goTo(listNav())
	case IntentCancel:
		if c.nav.View == ViewDetail && c.nav.Editing {
			c.goTo(detailNav(c.nav.Entry, false))
			return nil
		}
		c.goTo(listNav())
	case IntentBack:
		c.goTo(listNav())
	case IntentReload:
		return c.load(ctx)
	}
	return nil
}

func (c *Controller) submit(ctx context.Context, fields domain.EntryFormData) error {
	if _, err := c.create(ctx, fields); err != nil {
		c.record("create entry", err, fields.Clone())
		return err
	}
	c.goTo(listNav())
	return nil
}

func (c *Controller) update(ctx context.Context, fields domain.EntryFormData) error {
	current := c.nav.Entry
	merged := current.Fields.Merge(fields)
	if _, err := c.replace(ctx, current.ID, merged); err != nil {
		c.record("update entry", err, merged)
		return err
	}
	c.mu.Lock()
	c.selected = current.ID
	c.navigate(listNav())
	c.mu.Unlock()
	return nil
}

// navigate moves to nav and clears any draft and recorded error. c.mu must
// be held.
func (c *Controller) navigate(nav Navigation) {
	c.nav = nav
	c.draft = nil
	c.lastErr = nil
}

func (c *Controller) goTo(nav Navigation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigate(nav)
}

// fail records err for display. c.mu must be held.
func (c *Controller) fail(action string, err error) {
	c.lastErr = err
	level := slog.LevelError
	if errors.Is(err, domain.ErrValidationFailed) || errors.Is(err, domain.ErrNotFound) {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, action+" failed", slog.Any("err", err))
}

// record is fail under c.mu, optionally keeping draft for the form.
func (c *Controller) record(action string, err error, draft domain.EntryFormData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if draft != nil {
		c.draft = draft
	}
	c.fail(action, err)
}

func (c *Controller) create(ctx context.Context, fields domain.EntryFormData) (domain.Entry, error) {
	created, err := c.store.Create(ctx, fields)
	if err != nil {
		return domain.Entry{}, err
	}
	c.commit(ctx, func() {
		c.entries = append(c.entries, created)
	})
	return created.Clone(), nil
}

func (c *Controller) replace(ctx context.Context, id string, fields domain.EntryFormData) (domain.Entry, error) {
	if err := c.store.Update(ctx, id, fields); err != nil {
		return domain.Entry{}, err
	}
	updated := domain.NewEntry(id, fields)
	c.commit(ctx, func() {
		for i := range c.entries {
			if c.entries[i].ID == id {
				c.entries[i] = updated
				return
			}
		}
		c.entries = append(c.entries, updated)
	})
	c.mu.Lock()
	if c.nav.View == ViewDetail && c.nav.Entry.ID == id {
		c.nav.Entry = updated.Clone()
	}
	c.mu.Unlock()
	return updated.Clone(), nil
}

func (c *Controller) remove(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.commit(ctx, func() {
		kept := make([]domain.Entry, 0, len(c.entries))
		for _, e := range c.entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		c.entries = kept
	})
	c.mu.Lock()
	if c.selected == id {
		c.selected = ""
	}
	if c.nav.View == ViewDetail && c.nav.Entry.ID == id {
		c.navigate(listNav())
	}
	c.mu.Unlock()
	return nil
}

// commit applies a confirmed mutation to the collection. A collection that
// has not been loaded from the store is re-read instead, so a snapshot never
// overwrites entries this controller has not seen. Write-through runs only
// while the collection matches the store.
func (c *Controller) commit(ctx context.Context, apply func()) {
	if !c.synced {
		entries, err := c.store.List(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			apply()
			c.logger.Warn("resync after mutation failed", slog.Any("err", err))
			return
		}
		c.entries = entries
		c.synced = true
		return
	}
	c.mu.Lock()
	apply()
	c.mu.Unlock()
	c.persist(ctx)
}

// persist writes the collection through to snapshot stores. The mutation
// already succeeded, so a failure is recorded without rolling back. Only the
// op holder writes c.entries, so it is read here without c.mu.
func (c *Controller) persist(ctx context.Context) {
	snap, ok := c.store.(domain.Snapshotter)
	if !ok {
		return
	}
	if err := snap.Persist(ctx, c.entries); err != nil {
		c.record("persist entries", err, nil)
	}
}

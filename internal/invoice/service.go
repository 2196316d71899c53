package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/invoicer/internal/ident"
)

// Service holds the one working invoice. Reads return independent copies;
// each mutation is built on a copy, persisted, and only then committed, so a
// failed save or a rejected value leaves the draft untouched.
type Service struct {
	drafts  DraftRepository
	clients ClientLookup
	newID   func() string
	newCode func() string
	now     func() time.Time

	mu       sync.Mutex
	invoice  Invoice
	hydrated bool
	subs     map[int]func(Invoice)
	nextSub  int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithReferenceGenerator(newCode func() string) Option {
	return func(s *Service) { s.newCode = newCode }
}

// NewService starts from the blank template. clients may be nil, in which
// case client links never resolve.
func NewService(drafts DraftRepository, clients ClientLookup, opts ...Option) *Service {
	s := &Service{
		drafts:  drafts,
		clients: clients,
		newID:   ident.NewID,
		newCode: ident.NewReferenceCode,
		now:     time.Now,
		subs:    make(map[int]func(Invoice)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.invoice = Blank(s.newID(), s.now())

	return s
}

// Hydrate loads the persisted draft once. Later calls are no-ops, as are
// calls after the first mutation. A missing draft keeps the blank template; a
// failed load is reported and not retried.
func (s *Service) Hydrate(ctx context.Context) error {
	s.mu.Lock()

	if s.hydrated {
		s.mu.Unlock()
		return nil
	}

	s.hydrated = true

	inv, err := s.drafts.LoadDraft(ctx)
	if err != nil {
		s.mu.Unlock()

		if errors.Is(err, ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading draft: %w", err)
	}

	if inv.ID == "" {
		inv.ID = s.newID()
	}

	s.invoice = inv
	subs := s.subscribers()
	s.mu.Unlock()

	s.notify(subs, inv)

	return nil
}

// Hydrated reports whether Hydrate has run.
func (s *Service) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated
}

// Active returns a copy of the working invoice with its stored values.
func (s *Service) Active() Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.invoice.Clone()
}

// Resolved returns the working invoice as every surface shows it: bill-to
// fields come from the linked client while the link resolves.
func (s *Service) Resolved() Invoice {
	return s.resolve(s.Active())
}

func (s *Service) resolve(inv Invoice) Invoice {
	if !inv.Linked() || s.clients == nil {
		return inv
	}

	c, ok := s.clients.Lookup(*inv.ClientID)
	if !ok {
		return inv
	}

	inv.BillToCompany = c.FullName
	inv.BillToAddress = c.Address
	inv.BillToZip = c.Zip

	return inv
}

// BillTo is the effective bill-to block.
type BillTo struct {
	Company  string  `json:"company"`
	Address  string  `json:"address"`
	Zip      string  `json:"zip"`
	ClientID *string `json:"clientId,omitempty"`
	// Linked is true only while ClientID resolves.
	Linked bool `json:"linked"`
}

func (s *Service) BillTo() BillTo {
	return s.billTo(s.Active())
}

func (s *Service) billTo(stored Invoice) BillTo {
	resolved := s.resolve(stored)

	linked := stored.Linked() && s.clients != nil
	if linked {
		_, linked = s.clients.Lookup(*stored.ClientID)
	}

	return BillTo{
		Company:  resolved.BillToCompany,
		Address:  resolved.BillToAddress,
		Zip:      resolved.BillToZip,
		ClientID: stored.ClientID,
		Linked:   linked,
	}
}

// State is one consistent read of the working invoice.
type State struct {
	Invoice Invoice
	BillTo  BillTo
	Totals  Totals
}

// State derives the bill-to block and totals from a single copy, so a
// concurrent edit can never split them.
func (s *Service) State() State {
	stored := s.Active()

	return State{
		Invoice: stored,
		BillTo:  s.billTo(stored),
		Totals:  Compute(stored),
	}
}

func (s *Service) Totals() Totals {
	return Compute(s.Active())
}

// Validate checks the invoice as it would be exported.
func (s *Service) Validate() error {
	return Validate(s.Resolved())
}

// UpdateField sets a scalar field from its textual form. Bill-to fields drop
// the client link.
func (s *Service) UpdateField(ctx context.Context, f Field, value string) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		if err := inv.set(f, value); err != nil {
			return err
		}

		if f.IsBillTo() {
			inv.ClientID = nil
		}

		return nil
	})
}

// SetBillToField switches to manual bill-to entry and sets f.
func (s *Service) SetBillToField(ctx context.Context, f Field, value string) error {
	if !f.IsBillTo() {
		return fmt.Errorf("%w: %q", ErrNotBillToField, f)
	}

	return s.UpdateField(ctx, f, value)
}

func (s *Service) UpdateItem(ctx context.Context, index int, f ItemField, value string) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		if index < 0 || index >= len(inv.Items) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}

		return inv.Items[index].set(f, value)
	})
}

func (s *Service) AddItem(ctx context.Context) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		inv.Items = append(inv.Items, NewItem())
		return nil
	})
}

// RemoveItem may leave the invoice with no items; Validate catches that.
func (s *Service) RemoveItem(ctx context.Context, index int) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		if index < 0 || index >= len(inv.Items) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}

		inv.Items = append(inv.Items[:index], inv.Items[index+1:]...)

		return nil
	})
}

// Replace swaps in a whole invoice. An empty id gets a fresh one.
func (s *Service) Replace(ctx context.Context, next Invoice) error {
	next = next.Clone()
	if next.ID == "" {
		next.ID = s.newID()
	}

	return s.mutate(ctx, func(inv *Invoice) error {
		*inv = next
		return nil
	})
}

// Clear resets to the blank template under a fresh id.
func (s *Service) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		*inv = Blank(s.newID(), s.now())
		return nil
	})
}

// SelectClient links the client and copies its values into the stored
// bill-to fields so they survive the client's removal.
func (s *Service) SelectClient(ctx context.Context, clientID string) error {
	if s.clients == nil {
		return fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
	}

	c, ok := s.clients.Lookup(clientID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
	}

	return s.mutate(ctx, func(inv *Invoice) error {
		inv.ClientID = new(c.ID)
		inv.BillToCompany = c.FullName
		inv.BillToAddress = c.Address
		inv.BillToZip = c.Zip

		return nil
	})
}

// ClearClient drops the link and keeps the stored bill-to values.
func (s *Service) ClearClient(ctx context.Context) error {
	return s.mutate(ctx, func(inv *Invoice) error {
		inv.ClientID = nil
		return nil
	})
}

// ApplyPatch validates p and merges it.
func (s *Service) ApplyPatch(ctx context.Context, p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	return s.mutate(ctx, func(inv *Invoice) error {
		inv.Merge(p)
		return nil
	})
}

// RegenerateNumber replaces the invoice number with a fresh reference code.
func (s *Service) RegenerateNumber(ctx context.Context) (string, error) {
	code := s.newCode()

	err := s.mutate(ctx, func(inv *Invoice) error {
		inv.InvoiceNumber = code
		return nil
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Subscribe registers fn to receive a copy of the invoice after every
// committed change. fn runs outside the service lock.
func (s *Service) Subscribe(fn func(Invoice)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs, id)
	}
}

func (s *Service) mutate(ctx context.Context, fn func(inv *Invoice) error) error {
	s.mu.Lock()

	next := s.invoice.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.drafts.SaveDraft(ctx, next); err != nil {
		s.mu.Unlock()
		slog.Error("failed to persist draft", "invoice_id", next.ID, "error", err)

		return fmt.Errorf("saving draft: %w", err)
	}

	s.invoice = next
	s.hydrated = true
	subs := s.subscribers()
	s.mu.Unlock()

	s.notify(subs, next)

	return nil
}

// subscribers must be called with mu held.
func (s *Service) subscribers() []func(Invoice) {
	out := make([]func(Invoice), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}

	return out
}

func (s *Service) notify(subs []func(Invoice), inv Invoice) {
	for _, fn := range subs {
		fn(inv.Clone())
	}
}

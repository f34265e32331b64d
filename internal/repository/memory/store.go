// Package memory is an in-process repository.Store.
// It backs local development (STORE_DRIVER=memory) and scenario tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
)

type docRow struct {
	doc model.Document
	seq int64
}

type reqRow struct {
	req model.ChangeRequest
	seq int64
}

type state struct {
	seq   int64
	users map[string]string
	docs  map[string]docRow
	reqs  map[string]reqRow
}

func (st *state) clone() *state {
	out := &state{
		seq:   st.seq,
		users: make(map[string]string, len(st.users)),
		docs:  make(map[string]docRow, len(st.docs)),
		reqs:  make(map[string]reqRow, len(st.reqs)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.docs {
		out.docs[k] = v
	}
	for k, v := range st.reqs {
		out.reqs[k] = reqRow{req: cloneRequest(v.req), seq: v.seq}
	}
	return out
}

// Store keeps every collection behind one mutex. Transactions run on a
// copy of the state that replaces the original only on commit.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		st: &state{
			users: map[string]string{},
			docs:  map[string]docRow{},
			reqs:  map[string]reqRow{},
		},
	}
}

var _ repository.Store = (*Store)(nil)

// PutUser registers a display name used to denormalize listings.
func (s *Store) PutUser(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[id] = name
}

func (s *Store) Documents() repository.DocumentRepository {
	return documents{view{s: s}}
}

func (s *Store) Requests() repository.ChangeRequestRepository {
	return requests{view{s: s}}
}

func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// WithinTx serializes fn against every other store access.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(txView{view{s: s, tx: work}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type view struct {
	s  *Store
	tx *state
}

func (v view) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.st)
}

type txView struct{ v view }

func (t txView) Documents() repository.DocumentRepository     { return documents{t.v} }
func (t txView) Requests() repository.ChangeRequestRepository { return requests{t.v} }

type documents struct{ view }

func (r documents) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	var out model.Document
	err := r.do(ctx, func(st *state) error {
		if _, ok := st.docs[doc.ID]; ok {
			return repository.ErrDuplicate
		}
		st.seq++
		st.docs[doc.ID] = docRow{doc: *doc, seq: st.seq}
		out = withOwnerName(st, *doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r documents) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var out model.Document
	err := r.do(ctx, func(st *state) error {
		row, ok := st.docs[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = withOwnerName(st, row.doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindForUpdate needs no extra locking: transactions already hold the store mutex.
func (r documents) FindForUpdate(ctx context.Context, id string) (*model.Document, error) {
	return r.FindByID(ctx, id)
}

func (r documents) Update(ctx context.Context, id string, ch repository.DocumentChanges) (*model.Document, error) {
	var out model.Document
	err := r.do(ctx, func(st *state) error {
		row, ok := st.docs[id]
		if !ok {
			return repository.ErrNotFound
		}
		if ch.Locator != nil {
			row.doc.Locator = *ch.Locator
		}
		if ch.Period != nil {
			row.doc.Period = *ch.Period
		}
		if ch.Valid != nil {
			row.doc.Valid = *ch.Valid
		}
		row.doc.UpdatedAt = ch.UpdatedAt
		st.docs[id] = row
		out = withOwnerName(st, row.doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r documents) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	var res repository.PageResult[model.Document]
	err := r.do(ctx, func(st *state) error {
		rows := make([]docRow, 0, len(st.docs))
		for _, row := range st.docs {
			if matchDocument(row.doc, f) {
				rows = append(rows, row)
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			return newer(rows[i].doc.CreatedAt, rows[i].seq, rows[j].doc.CreatedAt, rows[j].seq)
		})

		res.Total = len(rows)
		res.Items = make([]model.Document, 0)
		for _, row := range window(rows, pq) {
			res.Items = append(res.Items, withOwnerName(st, row.doc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r documents) Delete(ctx context.Context, id string) error {
	return r.do(ctx, func(st *state) error {
		delete(st.docs, id)
		for rid, row := range st.reqs {
			if row.req.DocumentID == id {
				delete(st.reqs, rid)
			}
		}
		return nil
	})
}

type requests struct{ view }

func (r requests) Create(ctx context.Context, req *model.ChangeRequest) (*model.ChangeRequest, error) {
	var out model.ChangeRequest
	err := r.do(ctx, func(st *state) error {
		if _, ok := st.reqs[req.ID]; ok {
			return repository.ErrDuplicate
		}
		if req.Status == model.RequestStatusPending && hasPending(st, req.DocumentID, req.Kind) {
			return repository.ErrDuplicate
		}
		st.seq++
		st.reqs[req.ID] = reqRow{req: cloneRequest(*req), seq: st.seq}
		out = withRequesterName(st, *req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r requests) FindByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	var out model.ChangeRequest
	err := r.do(ctx, func(st *state) error {
		row, ok := st.reqs[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = withRequesterName(st, row.req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindForUpdate needs no extra locking: transactions already hold the store mutex.
func (r requests) FindForUpdate(ctx context.Context, id string) (*model.ChangeRequest, error) {
	return r.FindByID(ctx, id)
}

func (r requests) HasPending(ctx context.Context, documentID string, kind model.RequestKind) (bool, error) {
	var ok bool
	err := r.do(ctx, func(st *state) error {
		ok = hasPending(st, documentID, kind)
		return nil
	})
	return ok, err
}

func (r requests) UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (*model.ChangeRequest, error) {
	var out model.ChangeRequest
	err := r.do(ctx, func(st *state) error {
		row, ok := st.reqs[id]
		if !ok || row.req.Status != from {
			return repository.ErrNoTransition
		}
		row.req.Status = to
		row.req.UpdatedAt = at
		st.reqs[id] = row
		out = withRequesterName(st, row.req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r requests) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ChangeRequest], error) {
	var res repository.PageResult[model.ChangeRequest]
	err := r.do(ctx, func(st *state) error {
		rows := make([]reqRow, 0, len(st.reqs))
		for _, row := range st.reqs {
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			return newer(rows[i].req.CreatedAt, rows[i].seq, rows[j].req.CreatedAt, rows[j].seq)
		})

		res.Total = len(rows)
		res.Items = make([]model.ChangeRequest, 0)
		for _, row := range window(rows, pq) {
			res.Items = append(res.Items, withRequesterName(st, row.req))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func hasPending(st *state, documentID string, kind model.RequestKind) bool {
	for _, row := range st.reqs {
		if row.req.DocumentID == documentID && row.req.Kind == kind && row.req.Status == model.RequestStatusPending {
			return true
		}
	}
	return false
}

func matchDocument(d model.Document, f repository.DocumentFilter) bool {
	if f.OwnerID != "" && d.OwnerID != f.OwnerID {
		return false
	}
	if f.From != nil && d.Period.Before(*f.From) {
		return false
	}
	if f.To != nil && d.Period.After(*f.To) {
		return false
	}
	if f.Month != 0 && int(d.Period.Month()) != f.Month {
		return false
	}
	if f.Valid != nil && d.Valid != *f.Valid {
		return false
	}
	return true
}

// newer orders by creation time descending, then insertion order descending.
func newer(a time.Time, aSeq int64, b time.Time, bSeq int64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aSeq > bSeq
}

func window[T any](rows []T, pq repository.PageQuery) []T {
	if pq.Offset >= len(rows) || pq.Limit <= 0 {
		return nil
	}
	end := pq.Offset + pq.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[pq.Offset:end]
}

func withOwnerName(st *state, d model.Document) model.Document {
	d.OwnerName = st.users[d.OwnerID]
	return d
}

func withRequesterName(st *state, r model.ChangeRequest) model.ChangeRequest {
	r = cloneRequest(r)
	r.RequesterName = st.users[r.RequesterID]
	return r
}

func cloneRequest(r model.ChangeRequest) model.ChangeRequest {
	if r.NewPeriod != nil {
		p := *r.NewPeriod
		r.NewPeriod = &p
	}
	if r.NewLocator != nil {
		l := *r.NewLocator
		r.NewLocator = &l
	}
	return r
}

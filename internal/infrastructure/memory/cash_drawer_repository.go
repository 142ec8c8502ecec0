package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/repairshop-api/internal/domain"
	"github.com/jhoicas/repairshop-api/internal/domain/entity"
	"github.com/jhoicas/repairshop-api/internal/domain/money"
	"github.com/jhoicas/repairshop-api/internal/domain/repository"
)

var _ repository.CashDrawerRepository = (*CashDrawerRepo)(nil)

// CashDrawerRepo sesiones de caja en memoria.
type CashDrawerRepo struct {
	store *Store
	tx    *state
}

func (r *CashDrawerRepo) with(fn func(st *state)) { access(r.store, r.tx, fn) }

func (r *CashDrawerRepo) Create(_ context.Context, session *entity.CashDrawerSession) error {
	var err error
	r.with(func(st *state) {
		for _, s := range st.sessions {
			if s.ID == session.ID {
				err = domain.ErrDuplicate
				return
			}
			// Equivalente al índice único parcial (company_id, location) WHERE status='open'.
			if s.CompanyID == session.CompanyID && s.IsOpen() && s.SameLocation(session.LocationID) {
				err = domain.ErrDuplicate
				return
			}
		}
		st.sessions[session.ID] = *session
	})
	return err
}

func (r *CashDrawerRepo) GetByID(_ context.Context, companyID, id string) (*entity.CashDrawerSession, error) {
	var out *entity.CashDrawerSession
	r.with(func(st *state) {
		if s, ok := st.sessions[id]; ok && s.CompanyID == companyID {
			out = &s
		}
	})
	return out, nil
}

func (r *CashDrawerRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.CashDrawerSession, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *CashDrawerRepo) GetOpen(_ context.Context, companyID string, locationID *string) (*entity.CashDrawerSession, error) {
	var out *entity.CashDrawerSession
	r.with(func(st *state) {
		for _, s := range st.sessions {
			if s.CompanyID == companyID && s.IsOpen() && s.SameLocation(locationID) {
				found := s
				out = &found
				return
			}
		}
	})
	return out, nil
}

func (r *CashDrawerRepo) List(_ context.Context, companyID string, f repository.CashDrawerFilter) ([]*entity.CashDrawerSession, int, error) {
	var matched []entity.CashDrawerSession
	r.with(func(st *state) {
		for _, s := range st.sessions {
			if s.CompanyID != companyID {
				continue
			}
			if f.LocationID != nil && !s.SameLocation(f.LocationID) {
				continue
			}
			if f.From != nil && s.OpenedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && s.OpenedAt.After(*f.To) {
				continue
			}
			matched = append(matched, s)
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OpenedAt.Equal(matched[j].OpenedAt) {
			return matched[i].OpenedAt.After(matched[j].OpenedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	page := paginate(len(matched), f.Limit, f.Offset)
	out := make([]*entity.CashDrawerSession, 0, page.end-page.start)
	for i := page.start; i < page.end; i++ {
		s := matched[i]
		out = append(out, &s)
	}
	return out, len(matched), nil
}

func (r *CashDrawerRepo) CreditCash(_ context.Context, companyID, id string, amount decimal.Decimal) (*entity.CashDrawerSession, error) {
	var out *entity.CashDrawerSession
	r.with(func(st *state) {
		s, ok := st.sessions[id]
		if !ok || s.CompanyID != companyID || !s.IsOpen() {
			return
		}
		s.CashSalesTotal = money.Round(s.CashSalesTotal.Add(amount))
		st.sessions[id] = s
		out = &s
	})
	return out, nil
}

func (r *CashDrawerRepo) Close(_ context.Context, session *entity.CashDrawerSession) error {
	var err error
	r.with(func(st *state) {
		current, ok := st.sessions[session.ID]
		if !ok || current.CompanyID != session.CompanyID {
			err = domain.ErrNotFound
			return
		}
		if !current.IsOpen() {
			err = domain.Conflict("la sesión de caja %s ya está cerrada", session.ID)
			return
		}
		st.sessions[session.ID] = *session
	})
	return err
}

func (r *CashDrawerRepo) AddMovement(_ context.Context, m *entity.CashDrawerMovement) error {
	r.with(func(st *state) {
		st.movements[m.SessionID] = append(st.movements[m.SessionID], *m)
	})
	return nil
}

func (r *CashDrawerRepo) ListMovements(_ context.Context, sessionID string) ([]*entity.CashDrawerMovement, error) {
	var out []*entity.CashDrawerMovement
	r.with(func(st *state) {
		list := st.movements[sessionID]
		out = make([]*entity.CashDrawerMovement, 0, len(list))
		for _, m := range list {
			mv := m
			out = append(out, &mv)
		}
	})
	return out, nil
}

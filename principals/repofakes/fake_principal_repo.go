package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/principals"
)

var _ principals.Repo = (*FakePrincipalRepo)(nil)

type FakePrincipalRepo struct {
	byEmail map[string]*principals.Principal
	lock    sync.RWMutex

	// GetByEmailErr, when set, is returned by GetByEmail to simulate a
	// datastore failure.
	GetByEmailErr error
	// UpdateLastLoginErr, when set, is returned by UpdateLastLogin to
	// exercise the best-effort contract in tests.
	UpdateLastLoginErr error
}

func NewFakePrincipalRepo() *FakePrincipalRepo {
	return &FakePrincipalRepo{
		byEmail: make(map[string]*principals.Principal),
	}
}

func (pr *FakePrincipalRepo) Upsert(_ context.Context, principal *principals.Principal) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	if principal.ID == uuid.Nil {
		principal.ID = uuid.New()
	}
	copied := *principal
	pr.byEmail[principal.Email] = &copied
	return nil
}

func (pr *FakePrincipalRepo) Delete(_ context.Context, email string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	if _, ok := pr.byEmail[email]; !ok {
		return apperrors.ErrPrincipalNotFound
	}
	delete(pr.byEmail, email)
	return nil
}

func (pr *FakePrincipalRepo) GetByEmail(_ context.Context, email string) (*principals.Principal, error) {
	if pr.GetByEmailErr != nil {
		return nil, pr.GetByEmailErr
	}
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	p, ok := pr.byEmail[email]
	if !ok {
		return nil, apperrors.ErrPrincipalNotFound
	}
	copied := *p
	return &copied, nil
}

func (pr *FakePrincipalRepo) GetByID(_ context.Context, id uuid.UUID) (*principals.Principal, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	for _, p := range pr.byEmail {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperrors.ErrPrincipalNotFound
}

func (pr *FakePrincipalRepo) List(_ context.Context, offset, limit int) ([]*principals.Principal, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	all := make([]*principals.Principal, 0, len(pr.byEmail))
	for _, p := range pr.byEmail {
		copied := *p
		all = append(all, &copied)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (pr *FakePrincipalRepo) SetStatus(_ context.Context, email string, status principals.StatusType) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	p, ok := pr.byEmail[email]
	if !ok {
		return apperrors.ErrPrincipalNotFound
	}
	p.Status = status
	return nil
}

func (pr *FakePrincipalRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if pr.UpdateLastLoginErr != nil {
		return pr.UpdateLastLoginErr
	}
	pr.lock.Lock()
	defer pr.lock.Unlock()
	for _, p := range pr.byEmail {
		if p.ID == id {
			p.LastLogin = at
			return nil
		}
	}
	return apperrors.ErrPrincipalNotFound
}

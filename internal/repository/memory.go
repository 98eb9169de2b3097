package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"tee-studio/internal/model"
)

// MemoryStore keeps users, products and designs in process memory. It backs
// the service when DATABASE_URL is empty and the test suites.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	products []model.Product
	designs  []model.Design
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[string]model.User{}}
}

func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

func (s *MemoryStore) Products() *MemoryProductRepository {
	return &MemoryProductRepository{store: s}
}

func (s *MemoryStore) Designs() *MemoryDesignRepository {
	return &MemoryDesignRepository{store: s}
}

type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return r.store.withProductsLocked(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	return r.findBy(func(u model.User) bool { return strings.EqualFold(u.Email, strings.TrimSpace(email)) })
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	return r.findBy(func(u model.User) bool { return strings.EqualFold(u.Username, strings.TrimSpace(username)) })
}

func (r *MemoryUserRepository) findBy(match func(model.User) bool) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if match(u) {
			return r.store.withProductsLocked(u), nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) ExistsByEmailOrUsername(_ context.Context, email string, username string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.existsLocked(email, username), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[u.ID]; ok || r.store.existsLocked(u.Email, u.Username) {
		return model.ErrUserAlreadyExists
	}
	u.Products = nil
	r.store.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) SetRefreshToken(_ context.Context, userID string, token string) error {
	return r.update(userID, func(u *model.User) { u.RefreshToken = token })
}

func (r *MemoryUserRepository) ClearRefreshToken(_ context.Context, userID string) error {
	err := r.update(userID, func(u *model.User) { u.RefreshToken = "" })
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	return err
}

func (r *MemoryUserRepository) SetRole(_ context.Context, userID string, role string) error {
	return r.update(userID, func(u *model.User) { u.Role = role })
}

func (r *MemoryUserRepository) update(userID string, mutate func(u *model.User)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	mutate(&u)
	u.UpdatedAt = time.Now().UTC()
	r.store.users[userID] = u
	return nil
}

func (s *MemoryStore) existsLocked(email string, username string) bool {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) withProductsLocked(u model.User) model.User {
	ids := make([]string, 0)
	for _, p := range s.products {
		if p.UserID == u.ID {
			ids = append(ids, p.ID)
		}
	}
	u.Products = ids
	return u
}

type MemoryProductRepository struct {
	store *MemoryStore
}

func (r *MemoryProductRepository) Create(_ context.Context, p model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[p.UserID]; !ok {
		return model.ErrUserNotFound
	}
	r.store.products = append(r.store.products, p)
	return nil
}

func (r *MemoryProductRepository) ListWithOwners(_ context.Context) ([]model.ProductListing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Newest insertions first, so equal timestamps stay newest first.
	listings := make([]model.ProductListing, 0, len(r.store.products))
	for i := len(r.store.products) - 1; i >= 0; i-- {
		p := r.store.products[i]
		owner, ok := r.store.users[p.UserID]
		if !ok {
			continue
		}
		listings = append(listings, model.ProductListing{
			ID:          p.ID,
			Name:        p.Name,
			ImageURL:    p.ImageURL,
			ContentType: p.ContentType,
			Width:       p.Width,
			Height:      p.Height,
			CreatedAt:   p.CreatedAt,
			Owner: model.ProductOwner{
				ID:       owner.ID,
				Username: owner.Username,
				FullName: owner.FullName,
				Email:    owner.Email,
			},
		})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

type MemoryDesignRepository struct {
	store *MemoryStore
}

func (r *MemoryDesignRepository) Create(_ context.Context, d model.Design) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.designs = append(r.store.designs, d)
	return nil
}

func (r *MemoryDesignRepository) List(_ context.Context) ([]model.Design, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	designs := make([]model.Design, 0, len(r.store.designs))
	for i := len(r.store.designs) - 1; i >= 0; i-- {
		designs = append(designs, r.store.designs[i])
	}
	sort.SliceStable(designs, func(i, j int) bool {
		return designs[i].CreatedAt.After(designs[j].CreatedAt)
	})
	return designs, nil
}

package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront/internal/domain"
)

// In-memory repositories back the service when no POSTGRES_DSN is set and
// drive the package tests. They copy values in and out so callers never
// share mutable state with the store.

// MemoryStaffRepository is a mutex-guarded StaffRepository.
type MemoryStaffRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.StaffAccount
	email map[string]string
}

// NewMemoryStaffRepository returns an empty repository.
func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{byID: map[string]domain.StaffAccount{}, email: map[string]string{}}
}

func (r *MemoryStaffRepository) Create(_ context.Context, staff *domain.StaffAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(staff.Email)
	if _, exists := r.email[key]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	staff.ID = uuid.NewString()
	staff.Email = key
	staff.CreatedAt, staff.UpdatedAt = now, now
	r.byID[staff.ID] = copyStaff(*staff)
	r.email[key] = staff.ID
	return nil
}

func (r *MemoryStaffRepository) Update(_ context.Context, staff *domain.StaffAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[staff.ID]
	if !ok {
		return ErrNotFound
	}
	key := strings.ToLower(staff.Email)
	if owner, exists := r.email[key]; exists && owner != staff.ID {
		return ErrDuplicate
	}
	delete(r.email, strings.ToLower(current.Email))
	staff.Email = key
	staff.UpdatedAt = time.Now().UTC()
	r.byID[staff.ID] = copyStaff(*staff)
	r.email[key] = staff.ID
	return nil
}

func (r *MemoryStaffRepository) GetByID(_ context.Context, id string) (*domain.StaffAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	staff, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyStaff(staff)
	return &out, nil
}

func (r *MemoryStaffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffAccount, error) {
	r.mu.RLock()
	id, ok := r.email[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.StaffAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.StaffAccount
	for _, staff := range r.byID {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && staff.IsActive != *filter.Active {
			continue
		}
		all = append(all, copyStaff(staff))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	return page(all, limit, offset), nil
}

func copyStaff(s domain.StaffAccount) domain.StaffAccount {
	s.Permissions = append([]domain.Capability(nil), s.Permissions...)
	return s
}

// MemoryCustomerRepository is a mutex-guarded CustomerRepository.
type MemoryCustomerRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.CustomerAccount
	email map[string]string
}

// NewMemoryCustomerRepository returns an empty repository.
func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{byID: map[string]domain.CustomerAccount{}, email: map[string]string{}}
}

func (r *MemoryCustomerRepository) Create(_ context.Context, customer *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(customer.Email)
	if _, exists := r.email[key]; exists {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	customer.ID = uuid.NewString()
	customer.Email = key
	customer.CreatedAt, customer.UpdatedAt = now, now
	r.byID[customer.ID] = *customer
	r.email[key] = customer.ID
	return nil
}

func (r *MemoryCustomerRepository) Update(_ context.Context, customer *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[customer.ID]
	if !ok {
		return ErrNotFound
	}
	key := strings.ToLower(customer.Email)
	if owner, exists := r.email[key]; exists && owner != customer.ID {
		return ErrDuplicate
	}
	delete(r.email, strings.ToLower(current.Email))
	customer.Email = key
	customer.UpdatedAt = time.Now().UTC()
	r.byID[customer.ID] = *customer
	r.email[key] = customer.ID
	return nil
}

func (r *MemoryCustomerRepository) GetByID(_ context.Context, id string) (*domain.CustomerAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &customer, nil
}

func (r *MemoryCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	r.mu.RLock()
	id, ok := r.email[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// MemoryPasswordResetRepository is a mutex-guarded PasswordResetRepository.
type MemoryPasswordResetRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.ResetToken
}

// NewMemoryPasswordResetRepository returns an empty repository.
func NewMemoryPasswordResetRepository() *MemoryPasswordResetRepository {
	return &MemoryPasswordResetRepository{tokens: map[string]domain.ResetToken{}}
}

func (r *MemoryPasswordResetRepository) Create(_ context.Context, token *domain.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token.TokenHash]; exists {
		return ErrDuplicate
	}
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now().UTC()
	r.tokens[token.TokenHash] = *token
	return nil
}

func (r *MemoryPasswordResetRepository) GetByHash(_ context.Context, tokenHash string) (*domain.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &token, nil
}

func (r *MemoryPasswordResetRepository) Delete(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[tokenHash]; !ok {
		return false, nil
	}
	delete(r.tokens, tokenHash)
	return true, nil
}

func (r *MemoryPasswordResetRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for hash, token := range r.tokens {
		if !token.ExpiresAt.After(before) {
			delete(r.tokens, hash)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored tokens, expired ones included.
func (r *MemoryPasswordResetRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// MemoryMessageRepository is a mutex-guarded MessageRepository.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]domain.Message
}

// NewMemoryMessageRepository returns an empty repository.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{messages: map[string]domain.Message{}}
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	msg.ID = uuid.NewString()
	msg.CreatedAt, msg.UpdatedAt = now, now
	r.messages[msg.ID] = copyMessage(*msg)
	return nil
}

func (r *MemoryMessageRepository) GetByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyMessage(msg)
	return &out, nil
}

func (r *MemoryMessageRepository) List(_ context.Context, filter MessageFilter) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.Message
	for _, msg := range r.messages {
		if filter.Status != nil && msg.Status != *filter.Status {
			continue
		}
		msg.Replies = nil
		all = append(all, msg)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	return page(all, limit, offset), nil
}

func (r *MemoryMessageRepository) AddReply(_ context.Context, reply *domain.MessageReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[reply.MessageID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	reply.ID = uuid.NewString()
	reply.MessageID = msg.ID
	reply.StaffID = strings.Clone(reply.StaffID)
	reply.Body = strings.Clone(reply.Body)
	reply.CreatedAt = now
	msg.Replies = append(append([]domain.MessageReply(nil), msg.Replies...), *reply)
	msg.Status = domain.MessageStatusReplied
	msg.UpdatedAt = now
	r.messages[msg.ID] = msg
	return nil
}

func copyMessage(m domain.Message) domain.Message {
	m.Replies = append([]domain.MessageReply(nil), m.Replies...)
	return m
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("duplicate username")
)

// User is one operator account.
type User struct {
	// ID is a stable identifier minted when the store is built.
	ID string `json:"id"`

	// Username is the login name. Matching is case-insensitive.
	Username string `json:"username"`

	// Role is "admin" or "viewer".
	Role string `json:"role"`

	// LastLogin is the time of the most recent successful login.
	LastLogin time.Time `json:"last_login,omitempty"`

	passwordHash string
}

// UserSpec describes one account as it appears in configuration.
type UserSpec struct {
	Username     string
	PasswordHash string
	Role         string
}

// StaticStore holds the operator accounts defined in configuration.
// Accounts are fixed for the process lifetime; only LastLogin mutates.
type StaticStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewStaticStore builds a store from configured accounts.
func NewStaticStore(specs []UserSpec) (*StaticStore, error) {
	users := make(map[string]*User, len(specs))
	for _, spec := range specs {
		key := strings.ToLower(spec.Username)
		if _, exists := users[key]; exists {
			return nil, ErrDuplicateUser
		}
		role := spec.Role
		if role == "" {
			role = RoleViewer
		}
		users[key] = &User{
			ID:           uuid.NewString(),
			Username:     spec.Username,
			Role:         role,
			passwordHash: spec.PasswordHash,
		}
	}
	return &StaticStore{users: users}, nil
}

// Authenticate verifies a username/password pair and returns the user.
// Returns ErrInvalidCredentials for unknown users and wrong passwords
// alike, so callers cannot probe for valid usernames.
func (s *StaticStore) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.users[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		// Burn a comparison so missing and present users take similar time
		VerifyPassword(password, timingDummyHash)
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, user.passwordHash) {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	user.LastLogin = time.Now()
	s.mu.Unlock()

	return user.clone(), nil
}

// GetUser returns the user with the given username.
func (s *StaticStore) GetUser(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.clone(), nil
}

// Count returns the number of configured accounts.
func (s *StaticStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) clone() *User {
	c := *u
	return &c
}

// timingDummyHash is a bcrypt hash of an unguessable throwaway value,
// compared against when the username is unknown.
const timingDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

package repository

import (
	"log"
	"strings"
	"sync"

	"github.com/iliyamo/railway-reservation/internal/model"
	"github.com/iliyamo/railway-reservation/internal/utils"
)

// UserRepo stores application accounts.  Emails are unique and compared
// case-insensitively; passwords are kept only as bcrypt hashes.
type UserRepo struct {
	mu    sync.RWMutex
	path  string
	users []model.User
}

// NewUserRepo loads the user record file at path.  Corrupted lines are
// skipped with a warning.
func NewUserRepo(path string) (*UserRepo, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	r := &UserRepo{path: path}
	for _, line := range lines {
		u, err := model.ParseUser(line)
		if err != nil {
			log.Printf("user-store: skipping corrupted entry %q: %v", line, err)
			continue
		}
		r.users = append(r.users, u)
	}
	return r, nil
}

// Create registers a new account, hashing the plain password with the given
// bcrypt cost.  A taken email fails with ErrEmailExists.
func (r *UserRepo) Create(u model.User, password string, bcryptCost int) error {
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailExists
		}
	}
	next := append(append([]model.User{}, r.users...), u)
	if err := r.persist(next); err != nil {
		return err
	}
	r.users = next
	return nil
}

// FindByEmail returns the account with the given email.
func (r *UserRepo) FindByEmail(email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

// EnsureAdmin creates the ADMIN account with the given credentials if no
// account with that email exists yet.  Called once at startup from config.
func (r *UserRepo) EnsureAdmin(email, password string, bcryptCost int) error {
	if _, err := r.FindByEmail(email); err == nil {
		return nil
	}
	admin := model.User{
		Name:   "Administrator",
		Age:    30,
		Gender: "O",
		Email:  email,
		Phone:  "0000000000",
		Role:   model.RoleAdmin,
	}
	err := r.Create(admin, password, bcryptCost)
	if err == ErrEmailExists {
		return nil
	}
	return err
}

func (r *UserRepo) persist(users []model.User) error {
	lines := make([]string, len(users))
	for i, u := range users {
		lines[i] = u.CSV()
	}
	return writeLines(r.path, lines)
}

package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Account roles.  Registration always produces a CUSTOMER; the single ADMIN
// account is seeded from configuration at startup.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

var (
	// The domain part excludes commas and whitespace so a stored email can
	// never break the one-record-per-line CSV layout.
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[^\s,]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// User is an application account.  Email is the unique account key and the
// value stored on tickets as the owner; it is compared case-insensitively
// everywhere.  Only the bcrypt hash of the password is kept.  Records are
// persisted one per line as
// `name,age,gender,email,phone,passwordHash,role`.
type User struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks the registration fields.  It returns a *ValidationError
// naming the first offending field.
func (u User) Validate() error {
	if !namePattern.MatchString(u.Name) {
		return invalid("name", "must be 2-50 letters and spaces")
	}
	if u.Age < 1 || u.Age > 120 {
		return invalid("age", "must be between 1 and 120")
	}
	if u.Gender != "M" && u.Gender != "F" && u.Gender != "O" {
		return invalid("gender", "must be M, F or O")
	}
	if !ValidEmail(u.Email) {
		return invalid("email", "invalid email format")
	}
	if !phonePattern.MatchString(u.Phone) {
		return invalid("phone", "must be 10 digits")
	}
	return nil
}

// CSV renders the user as one persisted record line.
func (u User) CSV() string {
	return strings.Join([]string{
		u.Name,
		strconv.Itoa(u.Age),
		u.Gender,
		u.Email,
		u.Phone,
		u.PasswordHash,
		u.Role,
	}, ",")
}

// ParseUser decodes one persisted record line.
func ParseUser(line string) (User, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 7 {
		return User{}, fmt.Errorf("user record has %d fields, want 7", len(parts))
	}
	age, err := strconv.Atoi(parts[1])
	if err != nil {
		return User{}, fmt.Errorf("user record has bad age %q", parts[1])
	}
	return User{
		Name:         parts[0],
		Age:          age,
		Gender:       parts[2],
		Email:        parts[3],
		Phone:        parts[4],
		PasswordHash: parts[5],
		Role:         parts[6],
	}, nil
}

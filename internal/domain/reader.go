package domain

import (
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Reader is a registered library user. RegisteredAt is set once by NewReader.
type Reader struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registration_date"`
}

type ReaderChanges struct {
	Name  *string
	Email *string
	Phone *string
}

func (c ReaderChanges) IsEmpty() bool {
	return c.Name == nil && c.Email == nil && c.Phone == nil
}

func NewReader(name, email, phone string, now time.Time) (*Reader, error) {
	r := &Reader{}
	if err := r.UpdateInfo(&ReaderChanges{Name: &name, Email: &email, Phone: &phone}); err != nil {
		return nil, err
	}
	r.RegisteredAt = now
	return r, nil
}

// UpdateInfo re-validates every supplied field before assigning any of them.
// One invalid field aborts the whole update and leaves both r and c untouched;
// on success c holds the trimmed values.
func (r *Reader) UpdateInfo(c *ReaderChanges) error {
	next := *r
	norm := *c
	if c.Name != nil {
		v := strings.TrimSpace(*c.Name)
		if v == "" {
			return Invalid("name cannot be empty")
		}
		next.Name, norm.Name = v, &v
	}
	if c.Email != nil {
		v := strings.TrimSpace(*c.Email)
		if !ValidEmail(v) {
			return Invalid("invalid email format")
		}
		next.Email, norm.Email = v, &v
	}
	if c.Phone != nil {
		v := strings.TrimSpace(*c.Phone)
		if v == "" {
			return Invalid("phone cannot be empty")
		}
		next.Phone, norm.Phone = v, &v
	}
	*r, *c = next, norm
	return nil
}

func (r *Reader) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return Invalid("name cannot be empty")
	case !ValidEmail(r.Email):
		return Invalid("invalid email format")
	case strings.TrimSpace(r.Phone) == "":
		return Invalid("phone cannot be empty")
	}
	return nil
}

func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

// Package contacts stores the per-user address book. Every query is scoped
// to the owning user's ID; a contact owned by someone else is reported as
// missing.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/internal/database/models"
	"gorm.io/gorm"
)

var ErrContactNotFound = errors.New("contact not found")

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Fields are the mutable columns of a contact. Update replaces all of them.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Extra     *string
}

func (f Fields) normalized() Fields {
	out := Fields{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
		Birthday:  models.DateOnly(f.Birthday),
	}
	if f.Extra != nil && *f.Extra != "" {
		extra := *f.Extra
		out.Extra = &extra
	}
	return out
}

// columns maps every mutable field to its column so that a nil Extra clears
// the stored note.
func (f Fields) columns() map[string]interface{} {
	return map[string]interface{}{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"email":      f.Email,
		"phone":      f.Phone,
		"birthday":   f.Birthday,
		"extra":      f.Extra,
	}
}

// BirthdayOptions controls UpcomingBirthdays.
type BirthdayOptions struct {
	// WindowDays is the inclusive look-ahead from today.
	WindowDays int
	// MatchYear compares full dates, year included, instead of anniversaries.
	MatchYear bool
}

func DefaultBirthdayOptions() BirthdayOptions {
	return BirthdayOptions{WindowDays: 7}
}

type Repository struct {
	db        *gorm.DB
	birthdays BirthdayOptions
}

func NewRepository(db *gorm.DB, birthdays BirthdayOptions) *Repository {
	if birthdays.WindowDays < 0 {
		birthdays.WindowDays = 0
	}
	return &Repository{db: db, birthdays: birthdays}
}

func (r *Repository) Create(ctx context.Context, owner uuid.UUID, fields Fields) (*models.Contact, error) {
	f := fields.normalized()
	contact := models.Contact{
		UserID:    owner,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Birthday:  f.Birthday,
		Extra:     f.Extra,
	}

	if err := r.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	return &contact, nil
}

// List returns a page of the owner's contacts in insertion order.
func (r *Repository) List(ctx context.Context, owner uuid.UUID, skip, limit int) ([]models.Contact, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	contacts := []models.Contact{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at ASC, id ASC").
		Offset(skip).
		Limit(limit).
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

func (r *Repository) Get(ctx context.Context, owner, id uuid.UUID) (*models.Contact, error) {
	return r.get(r.db.WithContext(ctx), owner, id)
}

func (r *Repository) get(tx *gorm.DB, owner, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := tx.Where("id = ? AND user_id = ?", id, owner).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("loading contact: %w", err)
	}
	return &contact, nil
}

// Update replaces every mutable field of the owner's contact in a single
// statement filtered by both ID and owner.
func (r *Repository) Update(ctx context.Context, owner, id uuid.UUID, fields Fields) (*models.Contact, error) {
	var updated *models.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Contact{}).
			Where("id = ? AND user_id = ?", id, owner).
			Updates(fields.normalized().columns())
		if result.Error != nil {
			return fmt.Errorf("updating contact: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrContactNotFound
		}

		contact, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}
		updated = contact
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the owner's contact and returns it as it was.
func (r *Repository) Delete(ctx context.Context, owner, id uuid.UUID) (*models.Contact, error) {
	var deleted *models.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contact, err := r.get(tx, owner, id)
		if err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", id, owner).Delete(&models.Contact{})
		if result.Error != nil {
			return fmt.Errorf("deleting contact: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrContactNotFound
		}
		deleted = contact
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Search matches query case-insensitively as a substring of first name,
// last name or email. Wildcard characters in query match literally, and an
// empty query matches every contact.
func (r *Repository) Search(ctx context.Context, owner uuid.UUID, query string) ([]models.Contact, error) {
	contacts := []models.Contact{}

	cond, pattern := searchCondition(r.db.Dialector.Name(), query)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Where(cond, pattern, pattern, pattern).
		Order("created_at ASC, id ASC").
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("searching contacts: %w", err)
	}
	return contacts, nil
}

// searchCondition builds the name/email match for dialect. Postgres folds
// case with ILIKE, which handles non-ASCII letters; other dialects compare
// LOWER(column) against a pattern lowered in Go.
func searchCondition(dialect, query string) (string, string) {
	if dialect == "postgres" {
		return `(first_name ILIKE ? ESCAPE '\' OR last_name ILIKE ? ESCAPE '\' OR email ILIKE ? ESCAPE '\')`,
			"%" + escapeLike(query) + "%"
	}
	return `(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
		"%" + escapeLike(strings.ToLower(query)) + "%"
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls in
// [today, today+WindowDays]. By default birthdays are compared as yearly
// anniversaries, wrapping over New Year; with MatchYear the stored date is
// compared as-is.
func (r *Repository) UpcomingBirthdays(ctx context.Context, owner uuid.UUID, today time.Time) ([]models.Contact, error) {
	from := models.DateOnly(today)
	to := from.AddDate(0, 0, r.birthdays.WindowDays)

	contacts := []models.Contact{}
	if r.birthdays.MatchYear {
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND birthday >= ? AND birthday <= ?", owner, from, to).
			Order("birthday ASC, created_at ASC").
			Find(&contacts).Error; err != nil {
			return nil, fmt.Errorf("querying birthdays: %w", err)
		}
		return contacts, nil
	}

	var all []models.Contact
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at ASC, id ASC").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("querying birthdays: %w", err)
	}

	for _, c := range all {
		if !NextBirthday(c.Birthday, from).After(to) {
			contacts = append(contacts, c)
		}
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return NextBirthday(contacts[i].Birthday, from).Before(NextBirthday(contacts[j].Birthday, from))
	})
	return contacts, nil
}

// NextBirthday returns the first anniversary of birthday on or after from.
// February 29 falls on March 1 in common years.
func NextBirthday(birthday, from time.Time) time.Time {
	from = models.DateOnly(from)
	next := time.Date(from.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(from) {
		next = time.Date(from.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	return next
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

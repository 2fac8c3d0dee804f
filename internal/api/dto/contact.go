package dto

import (
	"strings"

	"github.com/hugh/go-contacts/internal/api/validation"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/database/models"
)

// ContactRequest is the body of create and full-replace update.
type ContactRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  string  `json:"birthday"`
	Extra     *string `json:"extra"`
}

// Fields validates the request and converts it to repository fields. The
// returned map is empty when the request is valid.
func (r ContactRequest) Fields() (contacts.Fields, map[string]string) {
	errors := validation.Errors{}

	firstName := validation.SanitizeString(strings.TrimSpace(r.FirstName))
	lastName := validation.SanitizeString(strings.TrimSpace(r.LastName))
	email := strings.TrimSpace(r.Email)
	phone := strings.TrimSpace(r.Phone)

	if errors.Required("first_name", firstName, "First name is required") {
		errors.Length("first_name", firstName, 50, "First name must be at most 50 characters")
	}
	if errors.Required("last_name", lastName, "Last name is required") {
		errors.Length("last_name", lastName, 50, "Last name must be at most 50 characters")
	}
	if errors.Required("email", email, "Email is required") {
		if !validation.IsValidEmail(email) {
			errors["email"] = "Invalid email format"
		} else {
			errors.Length("email", email, 100, "Email must be at most 100 characters")
		}
	}
	if errors.Required("phone", phone, "Phone is required") {
		if !validation.IsValidPhone(phone) {
			errors["phone"] = "Invalid phone number"
		} else {
			errors.Length("phone", phone, 20, "Phone must be at most 20 characters")
		}
	}

	fields := contacts.Fields{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
	}

	if errors.Required("birthday", r.Birthday, "Birthday is required") {
		if birthday, ok := validation.ParseDate(r.Birthday); ok {
			fields.Birthday = birthday
		} else {
			errors["birthday"] = "Birthday must be a date in YYYY-MM-DD format"
		}
	}

	if r.Extra != nil {
		extra := validation.SanitizeString(*r.Extra)
		if errors.Length("extra", extra, 255, "Extra must be at most 255 characters") {
			fields.Extra = &extra
		}
	}

	return fields, errors
}

type ContactResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  string  `json:"birthday"`
	Extra     *string `json:"extra"`
}

func NewContactResponse(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID.String(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  c.Birthday.Format(models.DateLayout),
		Extra:     c.Extra,
	}
}

func NewContactList(cs []models.Contact) []ContactResponse {
	out := make([]ContactResponse, len(cs))
	for i := range cs {
		out[i] = NewContactResponse(&cs[i])
	}
	return out
}

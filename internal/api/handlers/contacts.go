package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/internal/api/dto"
	"github.com/hugh/go-contacts/internal/api/middleware"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/database/models"
)

// ContactStore is the owner-scoped contact repository.
type ContactStore interface {
	Create(ctx context.Context, owner uuid.UUID, fields contacts.Fields) (*models.Contact, error)
	List(ctx context.Context, owner uuid.UUID, skip, limit int) ([]models.Contact, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*models.Contact, error)
	Update(ctx context.Context, owner, id uuid.UUID, fields contacts.Fields) (*models.Contact, error)
	Delete(ctx context.Context, owner, id uuid.UUID) (*models.Contact, error)
	Search(ctx context.Context, owner uuid.UUID, query string) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, owner uuid.UUID, today time.Time) ([]models.Contact, error)
}

var _ ContactStore = (*contacts.Repository)(nil)

type ContactHandler struct {
	store  ContactStore
	logger *slog.Logger
	now    func() time.Time
}

func NewContactHandler(store ContactStore, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the clock used to compute "today" for birthdays.
func (h *ContactHandler) WithClock(now func() time.Time) *ContactHandler {
	h.now = now
	return h
}

// Create handles POST /contacts/
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	contact, err := h.store.Create(r.Context(), owner, fields)
	if err != nil {
		h.internalError(w, "failed to create contact", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewContactResponse(contact))
}

// List handles GET /contacts/?skip=&limit=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	pagination, errors := dto.ParsePagination(r.URL.Query())
	if len(errors) > 0 {
		writeValidation(w, errors)
		return
	}

	list, err := h.store.List(r.Context(), owner, pagination.Skip, pagination.Limit)
	if err != nil {
		h.internalError(w, "failed to list contacts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactList(list))
}

// Get handles GET /contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.store.Get(r.Context(), owner, id)
	if err != nil {
		h.storeError(w, "failed to get contact", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactResponse(contact))
}

// Update handles PUT /contacts/{id}. Every field is replaced.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	contact, err := h.store.Update(r.Context(), owner, id, fields)
	if err != nil {
		h.storeError(w, "failed to update contact", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactResponse(contact))
}

// Delete handles DELETE /contacts/{id} and returns the removed contact.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.store.Delete(r.Context(), owner, id)
	if err != nil {
		h.storeError(w, "failed to delete contact", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactResponse(contact))
}

// Search handles GET /search/?query=
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	values, ok := r.URL.Query()["query"]
	if !ok {
		writeValidation(w, map[string]string{"query": "Query is required"})
		return
	}
	query := values[0]

	found, err := h.store.Search(r.Context(), owner, query)
	if err != nil {
		h.internalError(w, "failed to search contacts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactList(found))
}

// Birthdays handles GET /birthdays/
func (h *ContactHandler) Birthdays(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserID(r.Context())

	upcoming, err := h.store.UpcomingBirthdays(r.Context(), owner, models.DateOnly(h.now()))
	if err != nil {
		h.internalError(w, "failed to load birthdays", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewContactList(upcoming))
}

func (h *ContactHandler) decodeFields(w http.ResponseWriter, r *http.Request) (contacts.Fields, bool) {
	var req dto.ContactRequest
	if !decodeJSON(w, r, &req) {
		return contacts.Fields{}, false
	}

	fields, errors := req.Fields()
	if len(errors) > 0 {
		writeValidation(w, errors)
		return contacts.Fields{}, false
	}
	return fields, true
}

func (h *ContactHandler) storeError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, contacts.ErrContactNotFound) {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}
	h.internalError(w, msg, err)
}

func (h *ContactHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

package contacts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/database/models"
	"github.com/hugh/go-contacts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleFields(t *testing.T) contacts.Fields {
	return contacts.Fields{
		FirstName: "Taras",
		LastName:  "Shevchenko",
		Email:     "taras@example.com",
		Phone:     "+380441234567",
		Birthday:  testutil.Date(t, "1990-03-09"),
		Extra:     strPtr("poet"),
	}
}

func contactIDs(cs []models.Contact) []uuid.UUID {
	ids := make([]uuid.UUID, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	fields := sampleFields(t)
	created, err := repo.Create(ctx, owner.ID, fields)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, owner.ID, created.UserID)

	got, err := repo.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, fields.FirstName, got.FirstName)
	assert.Equal(t, fields.LastName, got.LastName)
	assert.Equal(t, fields.Email, got.Email)
	assert.Equal(t, fields.Phone, got.Phone)
	assert.Equal(t, "1990-03-09", got.Birthday.Format(models.DateLayout))
	require.NotNil(t, got.Extra)
	assert.Equal(t, "poet", *got.Extra)
}

func TestRepository_ContactEmailNotUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	_, err := repo.Create(ctx, owner.ID, sampleFields(t))
	require.NoError(t, err)
	_, err = repo.Create(ctx, owner.ID, sampleFields(t))
	require.NoError(t, err)
}

func TestRepository_OwnershipIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	intruder := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	contact, err := repo.Create(ctx, owner.ID, sampleFields(t))
	require.NoError(t, err)

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(ctx, intruder.ID, contact.ID)
		assert.ErrorIs(t, err, contacts.ErrContactNotFound)
		assert.Nil(t, got)
	})

	t.Run("update", func(t *testing.T) {
		fields := sampleFields(t)
		fields.FirstName = "Hijacked"
		got, err := repo.Update(ctx, intruder.ID, contact.ID, fields)
		assert.ErrorIs(t, err, contacts.ErrContactNotFound)
		assert.Nil(t, got)

		stored, err := repo.Get(ctx, owner.ID, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, "Taras", stored.FirstName)
	})

	t.Run("delete", func(t *testing.T) {
		got, err := repo.Delete(ctx, intruder.ID, contact.ID)
		assert.ErrorIs(t, err, contacts.ErrContactNotFound)
		assert.Nil(t, got)

		_, err = repo.Get(ctx, owner.ID, contact.ID)
		assert.NoError(t, err)
	})

	t.Run("list", func(t *testing.T) {
		list, err := repo.List(ctx, intruder.ID, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("search", func(t *testing.T) {
		found, err := repo.Search(ctx, intruder.ID, "taras")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("missing and foreign are indistinguishable", func(t *testing.T) {
		_, errForeign := repo.Get(ctx, intruder.ID, contact.ID)
		_, errMissing := repo.Get(ctx, intruder.ID, uuid.New())
		assert.Equal(t, errMissing, errForeign)
	})
}

func TestRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	other := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	var created []uuid.UUID
	for _, name := range []string{"Anna", "Bohdan", "Chrystia", "Dmytro"} {
		c := testutil.CreateTestContact(t, db, owner.ID, name, "Koval", name+"@example.com", "1985-01-01")
		created = append(created, c.ID)
	}
	testutil.CreateTestContact(t, db, other.ID, "Olena", "Other", "olena@example.com", "1985-01-01")

	t.Run("insertion order", func(t *testing.T) {
		list, err := repo.List(ctx, owner.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, created, contactIDs(list))
	})

	t.Run("skip and limit", func(t *testing.T) {
		list, err := repo.List(ctx, owner.ID, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, created[1:3], contactIDs(list))
	})

	t.Run("negative skip treated as zero", func(t *testing.T) {
		list, err := repo.List(ctx, owner.ID, -5, 1)
		require.NoError(t, err)
		assert.Equal(t, created[:1], contactIDs(list))
	})

	t.Run("skip past end", func(t *testing.T) {
		list, err := repo.List(ctx, owner.ID, 10, 10)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})
}

func TestRepository_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	contact, err := repo.Create(ctx, owner.ID, sampleFields(t))
	require.NoError(t, err)

	t.Run("replaces every field", func(t *testing.T) {
		updated, err := repo.Update(ctx, owner.ID, contact.ID, contacts.Fields{
			FirstName: "Lesya",
			LastName:  "Ukrainka",
			Email:     "lesya@example.com",
			Phone:     "+380442222222",
			Birthday:  testutil.Date(t, "1971-02-25"),
		})
		require.NoError(t, err)
		assert.Equal(t, contact.ID, updated.ID)
		assert.Equal(t, "Lesya", updated.FirstName)
		assert.Equal(t, "Ukrainka", updated.LastName)
		assert.Equal(t, "lesya@example.com", updated.Email)
		assert.Equal(t, "+380442222222", updated.Phone)
		assert.Equal(t, "1971-02-25", updated.Birthday.Format(models.DateLayout))
		assert.Nil(t, updated.Extra, "omitted note is cleared")
		assert.Equal(t, owner.ID, updated.UserID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Update(ctx, owner.ID, uuid.New(), sampleFields(t))
		assert.ErrorIs(t, err, contacts.ErrContactNotFound)
	})
}

func TestRepository_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	contact, err := repo.Create(ctx, owner.ID, sampleFields(t))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, owner.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, contact.ID, deleted.ID)
	assert.Equal(t, "Taras", deleted.FirstName)

	_, err = repo.Get(ctx, owner.ID, contact.ID)
	assert.ErrorIs(t, err, contacts.ErrContactNotFound)

	_, err = repo.Delete(ctx, owner.ID, contact.ID)
	assert.ErrorIs(t, err, contacts.ErrContactNotFound)
}

func TestRepository_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	other := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	ivan := testutil.CreateTestContact(t, db, owner.ID, "Ivan", "Franko", "ivan@lviv.example", "1956-08-27")
	maria := testutil.CreateTestContact(t, db, owner.ID, "Maria", "Ivanenko", "maria@kyiv.example", "1980-05-05")
	petro := testutil.CreateTestContact(t, db, owner.ID, "Petro", "Mohyla", "p.mohyla@IVANO.example", "1975-12-31")
	oksana := testutil.CreateTestContact(t, db, owner.ID, "Oksana", "Bilyk", "oksana@kharkiv.example", "1992-07-14")
	underscore := testutil.CreateTestContact(t, db, owner.ID, "Under", "Score", "under_score@example.com", "1992-07-14")
	anna := testutil.CreateTestContact(t, db, owner.ID, "Anna Maria", "Kvitka", "anna.maria@example.com", "1988-03-08")
	annabel := testutil.CreateTestContact(t, db, owner.ID, "Annabel", "Lee", "annabel@example.com", "1990-10-10")
	testutil.CreateTestContact(t, db, other.ID, "Ivan", "Stranger", "ivan@elsewhere.example", "1990-01-01")

	tests := []struct {
		name  string
		query string
		want  []uuid.UUID
	}{
		{"first name", "ivan", []uuid.UUID{ivan.ID, maria.ID, petro.ID}},
		{"case insensitive", "IVAN", []uuid.UUID{ivan.ID, maria.ID, petro.ID}},
		{"last name substring", "ohyl", []uuid.UUID{petro.ID}},
		{"email domain", "kyiv", []uuid.UUID{maria.ID}},
		{"underscore is literal", "_", []uuid.UUID{underscore.ID}},
		{"percent is literal", "%", []uuid.UUID{}},
		{"no match", "zzz", []uuid.UUID{}},
		{"empty query matches everything", "", []uuid.UUID{ivan.ID, maria.ID, petro.ID, oksana.ID, underscore.ID, anna.ID, annabel.ID}},
		{"trailing space is significant", "anna ", []uuid.UUID{anna.ID}},
		{"inner space", "a m", []uuid.UUID{anna.ID}},
		{"without the space", "anna", []uuid.UUID{anna.ID, annabel.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Search(ctx, owner.ID, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, contactIDs(found))
		})
	}

	t.Run("nonexistent owner", func(t *testing.T) {
		found, err := repo.Search(ctx, uuid.New(), "ivan")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestRepository_UpcomingBirthdays_Anniversary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	other := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	today := testutil.Date(t, "2024-06-01")

	onToday := testutil.CreateTestContact(t, db, owner.ID, "A", "Today", "a@example.com", "1990-06-01")
	lastDay := testutil.CreateTestContact(t, db, owner.ID, "B", "Edge", "b@example.com", "1985-06-08")
	midWeek := testutil.CreateTestContact(t, db, owner.ID, "C", "Mid", "c@example.com", "2001-06-04")
	testutil.CreateTestContact(t, db, owner.ID, "D", "After", "d@example.com", "1990-06-09")
	testutil.CreateTestContact(t, db, owner.ID, "E", "Before", "e@example.com", "1990-05-31")
	testutil.CreateTestContact(t, db, other.ID, "F", "Foreign", "f@example.com", "1990-06-02")

	got, err := repo.UpcomingBirthdays(ctx, owner.ID, today)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{onToday.ID, midWeek.ID, lastDay.ID}, contactIDs(got), "ordered by upcoming date")
}

func TestRepository_UpcomingBirthdays_YearWraparound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.DefaultBirthdayOptions())

	dec := testutil.CreateTestContact(t, db, owner.ID, "New", "Year", "ny@example.com", "1970-12-31")
	jan := testutil.CreateTestContact(t, db, owner.ID, "Jan", "Two", "jan@example.com", "1999-01-02")
	testutil.CreateTestContact(t, db, owner.ID, "Jan", "Ten", "jan10@example.com", "1999-01-10")

	got, err := repo.UpcomingBirthdays(ctx, owner.ID, testutil.Date(t, "2024-12-28"))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dec.ID, jan.ID}, contactIDs(got))
}

func TestRepository_UpcomingBirthdays_MatchYear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	ctx := testutil.TestContext(t)
	owner := testutil.CreateTestUser(t, db, true)
	repo := contacts.NewRepository(db, contacts.BirthdayOptions{WindowDays: 7, MatchYear: true})

	inWindow := testutil.CreateTestContact(t, db, owner.ID, "In", "Window", "in@example.com", "2024-06-01")
	lastDay := testutil.CreateTestContact(t, db, owner.ID, "Last", "Day", "last@example.com", "2024-06-08")
	testutil.CreateTestContact(t, db, owner.ID, "Past", "Year", "past@example.com", "1990-06-03")
	testutil.CreateTestContact(t, db, owner.ID, "Too", "Late", "late@example.com", "2024-06-09")

	got, err := repo.UpcomingBirthdays(ctx, owner.ID, testutil.Date(t, "2024-06-01"))
	require.NoError(t, err)
	// Full-date comparison: a real birth year outside the window never matches.
	assert.Equal(t, []uuid.UUID{inWindow.ID, lastDay.ID}, contactIDs(got))
}

func TestNextBirthday(t *testing.T) {
	tests := []struct {
		name     string
		birthday string
		from     string
		want     string
	}{
		{"later this year", "1990-06-04", "2024-06-01", "2024-06-04"},
		{"today", "1990-06-01", "2024-06-01", "2024-06-01"},
		{"already passed", "1990-05-31", "2024-06-01", "2025-05-31"},
		{"leap day in leap year", "2000-02-29", "2024-02-01", "2024-02-29"},
		{"leap day in common year", "2000-02-29", "2023-02-01", "2023-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contacts.NextBirthday(testutil.Date(t, tt.birthday), testutil.Date(t, tt.from))
			assert.Equal(t, tt.want, got.Format(models.DateLayout))
		})
	}

	t.Run("ignores time of day", func(t *testing.T) {
		from := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
		got := contacts.NextBirthday(testutil.Date(t, "1990-06-01"), from)
		assert.Equal(t, "2024-06-01", got.Format(models.DateLayout))
	})
}

package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchCondition(t *testing.T) {
	t.Run("postgres uses ILIKE on the raw query", func(t *testing.T) {
		cond, pattern := searchCondition("postgres", "Тарас_")
		assert.Contains(t, cond, "first_name ILIKE ?")
		assert.NotContains(t, cond, "LOWER")
		assert.Equal(t, `%Тарас\_%`, pattern)
	})

	t.Run("other dialects lower both sides", func(t *testing.T) {
		cond, pattern := searchCondition("sqlite", "Anna ")
		assert.Contains(t, cond, "LOWER(first_name) LIKE ?")
		assert.Equal(t, "%anna %", pattern)
	})

	t.Run("empty query matches everything", func(t *testing.T) {
		_, pattern := searchCondition("postgres", "")
		assert.Equal(t, "%%", pattern)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}

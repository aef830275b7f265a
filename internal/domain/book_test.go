package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewBook(t *testing.T) {
	b, err := NewBook("  War and Peace ", "Tolstoy", "978-0", 1869, 3)
	require.NoError(t, err)
	assert.Equal(t, "War and Peace", b.Title)
	assert.Equal(t, 3, b.Available)
	assert.True(t, b.IsAvailable())

	cases := []struct {
		name                string
		title, author, isbn string
		year, quantity      int
	}{
		{"empty title", " ", "a", "i", 2000, 1},
		{"empty author", "t", "", "i", 2000, 1},
		{"empty isbn", "t", "a", "\t", 2000, 1},
		{"negative year", "t", "a", "i", -1, 1},
		{"future year", "t", "a", "i", time.Now().Year() + 1, 1},
		{"negative quantity", "t", "a", "i", 2000, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBook(tc.title, tc.author, tc.isbn, tc.year, tc.quantity)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestBorrowReturnKeepsBounds(t *testing.T) {
	const quantity = 3
	b, err := NewBook("t", "a", "i", 2000, quantity)
	require.NoError(t, err)

	for i := 0; i < quantity; i++ {
		require.True(t, b.Borrow())
	}
	assert.False(t, b.Borrow())
	assert.Equal(t, 0, b.Available)
	assert.False(t, b.IsAvailable())

	for i := 0; i < quantity; i++ {
		require.True(t, b.ReturnCopy())
	}
	assert.False(t, b.ReturnCopy())
	assert.Equal(t, quantity, b.Available)
}

func TestBookApplyIsAllOrNothing(t *testing.T) {
	b, err := NewBook("t", "a", "i", 2000, 2)
	require.NoError(t, err)
	before := *b

	err = b.Apply(&BookChanges{Title: ptr("new"), Available: ptr(5)})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, before, *b)

	err = b.Apply(&BookChanges{Title: ptr("new"), Year: ptr(-3)})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, before, *b)

	c := BookChanges{Title: ptr("  Anna Karenina "), Quantity: ptr(5), Available: ptr(4)}
	require.NoError(t, b.Apply(&c))
	assert.Equal(t, "Anna Karenina", b.Title)
	assert.Equal(t, "Anna Karenina", *c.Title)
	assert.Equal(t, 5, b.Quantity)
	assert.Equal(t, 4, b.Available)
}

func TestBookApplyShrinkBelowAvailable(t *testing.T) {
	b, err := NewBook("t", "a", "i", 2000, 4)
	require.NoError(t, err)

	err = b.Apply(&BookChanges{Quantity: ptr(2)})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 4, b.Quantity)
}

func TestBookChangesIsEmpty(t *testing.T) {
	assert.True(t, BookChanges{}.IsEmpty())
	assert.False(t, BookChanges{Year: ptr(1)}.IsEmpty())
}

func TestBookApplyFailureLeavesChanges(t *testing.T) {
	b, err := NewBook("t", "a", "i", 2000, 1)
	require.NoError(t, err)

	title := "  padded  "
	c := BookChanges{Title: &title, Quantity: ptr(-1)}
	require.Error(t, b.Apply(&c))
	assert.Same(t, &title, c.Title)
	assert.Equal(t, "  padded  ", *c.Title)
}

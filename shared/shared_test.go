package shared

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIndexSet(t *testing.T) {
	r := require.New(t)

	s := SetOf(5, 1, 3, 1)
	r.Len(s, 3)
	r.True(s.Contains(3))
	r.False(s.Contains(2))
	r.Equal([]int{1, 3, 5}, s.AsSortedSlice())
	r.Empty(SetOf().AsSortedSlice())
}

func TestIndexError(t *testing.T) {
	r := require.New(t)

	var err error = &IndexError{Index: 7, Count: 3, Err: ErrInvalidIndex}
	r.ErrorIs(err, ErrInvalidIndex)
	r.EqualError(err, "invalid disclosure index: 7 not in [0, 3)")

	var indexErr *IndexError
	r.True(errors.As(errors.Wrap(err, "disclose"), &indexErr))
	r.Equal(7, indexErr.Index)
}

func TestCopyAttributes(t *testing.T) {
	r := require.New(t)

	attrs := [][]byte{[]byte("name:Alice"), {}}
	cp := CopyAttributes(attrs)
	r.Equal(attrs, cp)

	cp[0][0] = 'N'
	r.Equal("name:Alice", string(attrs[0]))
}

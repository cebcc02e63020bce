package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditai-dev/auditai/internal/model"
)

func TestStore_PutGetDelete(t *testing.T) {
	st := NewStore(time.Hour)
	ds := model.NewDataset([]string{"amount"}, []model.Row{{"amount": model.Number(1)}})
	s := New("q1.csv", ds, nil, nil)
	require.NotEmpty(t, s.ID)

	st.Put(s)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(s.ID))
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(s.ID), ErrNotFound)
}

func TestStore_Unknown(t *testing.T) {
	_, err := NewStore(time.Hour).Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Expiry(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	s := New("x.csv", nil, nil, nil)
	st.Put(s)
	time.Sleep(50 * time.Millisecond)

	_, err := st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New("a", nil, nil, nil)
	b := New("b", nil, nil, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

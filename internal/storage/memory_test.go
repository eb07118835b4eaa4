package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	require.NoError(t, m.Set(ctx, "k", "v2"))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Delete(ctx, "k"), "deleting an absent key is not an error")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_QuotaExceeded_KeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "k", "small"))
	err := m.Set(ctx, "k", "this value is far too large")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "small", v)
}

func TestMemory_QuotaFreedOnDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "a", "123456789"))
	assert.ErrorIs(t, m.Set(ctx, "b", "1"), ErrQuotaExceeded)
	require.NoError(t, m.Delete(ctx, "a"))
	assert.NoError(t, m.Set(ctx, "b", "1"))
}

func TestMemory_Closed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.Close())

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, m.Set(ctx, "k", "v"), ErrUnavailable)
	assert.ErrorIs(t, m.Delete(ctx, "k"), ErrUnavailable)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := string(rune('a' + id))
			_ = m.Set(ctx, key, "v")
			_, _ = m.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, m.Len())
}

func TestNamespace_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	a := Namespace(m, "session:a:")
	b := Namespace(m, "session:b:")

	require.NoError(t, a.Set(ctx, "cart", "A"))
	require.NoError(t, b.Set(ctx, "cart", "B"))

	v, err := m.Get(ctx, "session:a:cart")
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	v, err = b.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	require.NoError(t, a.Delete(ctx, "cart"))
	_, err = a.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.Get(ctx, "cart")
	assert.NoError(t, err)
}

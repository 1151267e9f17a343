package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InsertGet(t *testing.T) {
	r := NewRegistry[string]()
	h := r.Insert("wall")

	got, ok := r.Get(h)
	require.True(t, ok)
	assert.Equal(t, "wall", got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_StaleAfterRemove(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Insert(1)
	require.True(t, r.Remove(h))

	_, ok := r.Get(h)
	assert.False(t, ok, "removed handle must not resolve")
	assert.False(t, r.Remove(h), "double remove must report stale")

	// Slot reuse bumps the generation so the old handle stays dead
	h2 := r.Insert(2)
	assert.Equal(t, h.Index, h2.Index)
	assert.NotEqual(t, h.Generation, h2.Generation)
	_, ok = r.Get(h)
	assert.False(t, ok)
	v, ok := r.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestRegistry_ZeroHandle(t *testing.T) {
	r := NewRegistry[int]()
	r.Insert(5)
	_, ok := r.Get(Handle{})
	assert.False(t, ok)
	assert.True(t, Handle{}.IsZero())
	_, ok = r.Get(Handle{Index: 99, Generation: 1})
	assert.False(t, ok)
}

func TestRegistry_Set(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Insert(1)
	assert.True(t, r.Set(h, 3))
	v, _ := r.Get(h)
	assert.Equal(t, 3, v)

	r.Remove(h)
	assert.False(t, r.Set(h, 4))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := r.Insert(i*100 + j)
				if v, ok := r.Get(h); !ok || v != i*100+j {
					t.Errorf("lost value for handle %v", h)
				}
				r.Remove(h)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}

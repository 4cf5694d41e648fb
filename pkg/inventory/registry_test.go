package inventory

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TryGetMeta(t *testing.T) {
	r := testRegistry(t)
	assert.False(t, r.Loaded())

	meta, ok, err := r.TryGetMeta("water")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, waterMeta, meta)
	assert.True(t, r.Loaded())

	meta, ok, err = r.TryGetMeta("unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, meta)

	_, _, err = r.TryGetMeta("")
	assert.True(t, IsInvalidArgument(err))
}

func TestRegistry_LoadOnce(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRegistry(func() ([]*ItemMeta, error) {
		calls.Add(1)
		return []*ItemMeta{waterMeta}, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for idx := 0; idx < 16; idx++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := r.TryGetMeta("water")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, r.Reload())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistry_InvalidData(t *testing.T) {
	tests := []struct {
		name   string
		loader Loader
		check  func(error) bool
	}{
		{
			name:   "nil collection",
			loader: func() ([]*ItemMeta, error) { return nil, nil },
			check:  func(err error) bool { return errors.Is(err, ErrInvalidRegistry) },
		},
		{
			name:   "duplicate handle",
			loader: StaticLoader(waterMeta, MustItemMeta("water", KindDefault, "Other Water", 2, 0)),
			check:  func(err error) bool { return errors.Is(err, ErrInvalidRegistry) },
		},
		{
			name:   "loader failure",
			loader: func() ([]*ItemMeta, error) { return nil, errors.New("disk on fire") },
			check:  func(err error) bool { return err != nil && !errors.Is(err, ErrInvalidRegistry) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.loader)
			require.NoError(t, err)

			_, _, err = r.TryGetMeta("water")
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.False(t, r.Loaded())
		})
	}

	_, err := NewRegistry(nil)
	assert.True(t, IsInvalidArgument(err))
}

func TestValidateMetas(t *testing.T) {
	tests := []struct {
		name    string
		metas   []*ItemMeta
		wantErr bool
	}{
		{name: "valid", metas: []*ItemMeta{waterMeta, stoneMeta}},
		{name: "empty", metas: []*ItemMeta{}},
		{name: "nil collection", metas: nil, wantErr: true},
		{name: "nil meta", metas: []*ItemMeta{waterMeta, nil}, wantErr: true},
		{name: "duplicate handle", metas: []*ItemMeta{waterMeta, waterMeta}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetas(tt.metas)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRegistry)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistry_ReloadKeepsOldTableOnFailure(t *testing.T) {
	fail := false
	r, err := NewRegistry(func() ([]*ItemMeta, error) {
		if fail {
			return nil, nil
		}
		return []*ItemMeta{waterMeta, stoneMeta}, nil
	})
	require.NoError(t, err)

	metas, err := r.Metas()
	require.NoError(t, err)
	assert.Equal(t, []*ItemMeta{stoneMeta, waterMeta}, metas)

	fail = true
	assert.ErrorIs(t, r.Reload(), ErrInvalidRegistry)

	_, ok, err := r.TryGetMeta("stone")
	require.NoError(t, err)
	assert.True(t, ok)
}

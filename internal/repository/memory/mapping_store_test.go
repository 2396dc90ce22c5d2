package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/internal/shortcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingStore_SaveAndFind(t *testing.T) {
	// Arrange
	store := NewMappingStore()
	ctx := context.Background()

	// Act
	err := store.Save(ctx, domain.NewURLMapping("abcd1234", "https://example.com/a/b"))
	require.NoError(t, err)
	got, found, err := store.Find(ctx, "abcd1234")

	// Assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abcd1234", got.ShortCode)
	assert.Equal(t, "https://example.com/a/b", got.OriginalURL)
}

func TestMappingStore_FindAbsent(t *testing.T) {
	store := NewMappingStore()

	got, found, err := store.Find(context.Background(), "00000000")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, domain.URLMapping{}, got)
}

func TestMappingStore_WriteOnce(t *testing.T) {
	// Arrange
	store := NewMappingStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.NewURLMapping("abcd1234", "https://first.example")))

	// Act
	err := store.Save(ctx, domain.NewURLMapping("abcd1234", "https://second.example"))

	// Assert
	assert.True(t, errors.Is(err, repository.ErrConflict))
	got, found, err := store.Find(ctx, "abcd1234")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://first.example", got.OriginalURL)
}

func TestMappingStore_ConcurrentSaveSameCode(t *testing.T) {
	store := NewMappingStore()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Save(ctx, domain.NewURLMapping("samecode", fmt.Sprintf("https://example.com/%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, repository.ErrConflict))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.Len())
}

func TestMappingStore_GeneratedCodesNeverOverwrite(t *testing.T) {
	// Save thousands of generated codes; any duplicate must be rejected
	// and the first URL must survive.
	store := NewMappingStore()
	ctx := context.Background()
	first := make(map[string]string)

	for i := 0; i < 5000; i++ {
		code := shortcode.Generate()
		url := fmt.Sprintf("https://example.com/%d", i)
		err := store.Save(ctx, domain.NewURLMapping(code, url))
		if _, dup := first[code]; dup {
			assert.True(t, errors.Is(err, repository.ErrConflict))
			continue
		}
		require.NoError(t, err)
		first[code] = url
	}

	assert.Equal(t, len(first), store.Len())
	for code, url := range first {
		got, found, err := store.Find(ctx, code)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, url, got.OriginalURL)
	}
}

func TestMappingStore_CanceledContext(t *testing.T) {
	store := NewMappingStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, domain.NewURLMapping("abcd1234", "https://example.com"))
	assert.True(t, errors.Is(err, repository.ErrBackend))

	_, _, err = store.Find(ctx, "abcd1234")
	assert.True(t, errors.Is(err, repository.ErrBackend))
}

package photostore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

// TestStore_Save тестирует сохранение фотографии
func TestStore_Save(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save(CategoryDeparture, "minha foto.JPG", strings.NewReader("image-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(relPath, CategoryDeparture+"/"))
	assert.True(t, strings.HasSuffix(relPath, "_minha_foto.jpg"))

	data, err := os.ReadFile(store.Abs(relPath))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

// TestStore_Remove тестирует удаление фотографии
func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save(CategoryVehicles, "van.jpg", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(relPath))
	_, err = os.Stat(store.Abs(relPath))
	assert.True(t, os.IsNotExist(err))

	// Повторное удаление не должно возвращать ошибку
	assert.NoError(t, store.Remove(relPath))
	assert.NoError(t, store.Remove(""))
}

// TestStore_RemoveAll тестирует удаление набора фотографий
func TestStore_RemoveAll(t *testing.T) {
	store := newTestStore(t)

	var paths []string
	for _, name := range []string{"a.jpg", "b.jpg"} {
		relPath, err := store.Save(CategoryArrival, name, strings.NewReader("x"))
		require.NoError(t, err)
		paths = append(paths, relPath)
	}
	// Отсутствующий файл в наборе не ломает удаление
	paths = append(paths, CategoryArrival+"/missing.jpg")

	require.NoError(t, store.RemoveAll(paths))

	for _, relPath := range paths {
		_, err := os.Stat(store.Abs(relPath))
		assert.True(t, os.IsNotExist(err))
	}
}

// TestStore_Copy тестирует копирование для резервной копии
func TestStore_Copy(t *testing.T) {
	store := newTestStore(t)

	relPath, err := store.Save(CategoryIncidents, "dano.png", strings.NewReader("incident-photo"))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "copied.png")
	require.NoError(t, store.Copy(relPath, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "incident-photo", string(data))

	// Оригинал остается на месте
	_, err = os.Stat(store.Abs(relPath))
	assert.NoError(t, err)
}

// TestSanitizeFilename тестирует очистку имен файлов
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo.JPG", "my_photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"foto*?<>|.png", "foto.png"},
		{"relatório-2024.pdf", "relatório-2024.pdf"},
		{"***.jpg", "file.jpg"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input), "input: %s", tt.input)
	}
}

// TestSanitize тестирует очистку произвольных строк
func TestSanitize(t *testing.T) {
	assert.Equal(t, "Entrega_Porto", Sanitize("Entrega: Porto!"))
	assert.Equal(t, "AA-11-BB", Sanitize("AA-11-BB"))
	assert.Equal(t, "", Sanitize("///"))
}

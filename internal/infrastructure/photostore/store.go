package photostore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Категории фотографий, соответствуют подкаталогам под корнем хранилища
const (
	CategoryVehicles  = "veiculos"
	CategoryDeparture = "saida"
	CategoryArrival   = "chegada"
	CategoryIncidents = "incidencias"
)

// Store хранит загруженные фотографии на локальном диске.
// Все публичные методы оперируют путями относительно корня хранилища,
// именно такие пути лежат в БД и отдаются через /static.
type Store struct {
	root string
}

// New создает хранилище с указанным корневым каталогом
func New(root string) (*Store, error) {
	for _, category := range []string{CategoryVehicles, CategoryDeparture, CategoryArrival, CategoryIncidents} {
		if err := os.MkdirAll(filepath.Join(root, category), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create photo dir: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root возвращает корневой каталог хранилища
func (s *Store) Root() string {
	return s.root
}

// Save записывает содержимое файла в подкаталог категории.
// Имя файла очищается и получает временной префикс, чтобы повторные
// загрузки с одинаковым именем не затирали друг друга.
// Возвращает путь относительно корня хранилища.
func (s *Store) Save(category, filename string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%s_%s", time.Now().Format("20060102150405.000000"), SanitizeFilename(filename))
	relPath := filepath.Join(category, name)

	dst, err := os.Create(filepath.Join(s.root, relPath))
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// Убираем недописанный файл
		_ = os.Remove(filepath.Join(s.root, relPath))
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// Remove удаляет файл по относительному пути.
// Отсутствие файла не считается ошибкой: запись в БД могла пережить файл.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}

	return nil
}

// RemoveAll удаляет набор файлов, пропуская отсутствующие
func (s *Store) RemoveAll(relPaths []string) error {
	for _, relPath := range relPaths {
		if err := s.Remove(relPath); err != nil {
			return err
		}
	}
	return nil
}

// Copy копирует файл хранилища в произвольный путь назначения.
// Используется при сборке резервной копии.
func (s *Store) Copy(relPath, dstPath string) error {
	src, err := os.Open(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create photo copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy photo: %w", err)
	}

	return nil
}

// Abs возвращает абсолютный путь файла в хранилище
func (s *Store) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// SanitizeFilename убирает из имени все, кроме букв, цифр, пробелов,
// подчеркиваний и дефисов, затем заменяет пробелы на подчеркивания.
// Расширение очищается по тем же правилам и приводится к нижнему регистру.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	cleaned := Sanitize(stem)
	if cleaned == "" {
		cleaned = "file"
	}

	if ext != "" {
		ext = "." + strings.ToLower(Sanitize(strings.TrimPrefix(ext, ".")))
	}

	return cleaned + ext
}

// Sanitize применяет те же правила к произвольной строке,
// используется при сборке имен файлов в резервной копии
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}

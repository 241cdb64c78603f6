package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink пишет JSON контракта в локальный файл
type FileSink struct {
	Dir  string
	File string
}

// Name имя получателя
func (s FileSink) Name() string { return "file" }

// Path полный путь к файлу
func (s FileSink) Path() string {
	return filepath.Join(s.Dir, s.File)
}

// Write записывает файл атомарно через временный
func (s FileSink) Write(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога %s: %w", s.Dir, err)
	}
	tmp, err := os.CreateTemp(s.Dir, s.File+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(p.JSON); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("ошибка переименования файла: %w", err)
	}
	return nil
}

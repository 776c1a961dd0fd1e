package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 把上傳檔案存放在本機目錄，對外以 /uploads/<name> 的 URL 表示。
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: "/uploads/"}
}

// Dir 實際存放目錄，給靜態檔案路由使用。
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save 寫入檔案並回傳公開 URL。
func (s *LocalStore) Save(name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.urlPrefix + name, nil
}

// Open 以檔名讀取已上傳的檔案。
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove 刪除已上傳的檔案；檔案不存在時不視為錯誤。
func (s *LocalStore) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.New("invalid file name")
	}
	return nil
}

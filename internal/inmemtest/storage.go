package inmemtest

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"
)

// FileStorage keeps uploaded files in memory.
type FileStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	seq   int

	FailUpload error
	FailDelete error
}

func NewFileStorage() *FileStorage {
	return &FileStorage{files: make(map[string][]byte)}
}

func (s *FileStorage) UploadFile(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if s.FailUpload != nil {
		return "", s.FailUpload
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	url := fmt.Sprintf("https://files.test/%s/%d-%s", path.Clean(folder), s.seq, fileName)
	s.files[url] = data
	return url, nil
}

func (s *FileStorage) DeleteFile(ctx context.Context, fileURL string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, fileURL)
	return nil
}

func (s *FileStorage) Exists(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[url]
	return ok
}

func (s *FileStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

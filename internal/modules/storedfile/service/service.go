package storedfile

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/modules/storedfile/repository"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"anoa.com/campusadmin/pkg/storage"
	"github.com/google/uuid"
)

// OrphanAge is how long an unclaimed file is kept before the sweep removes it.
const OrphanAge = 24 * time.Hour

// StoredFileService is the first half of every upload saga: the file is
// stored and recorded as unclaimed. The caller claims it in the transaction
// that creates the referencing row, or calls Discard when that fails.
type StoredFileService interface {
	Store(ctx context.Context, ownerID uuid.UUID, folder string, file commonDto.UploadedFile) (string, error)
	Discard(ctx context.Context, url string)
	CleanupOrphans(ctx context.Context) (int, error)
}

type storedFileService struct {
	repo        repository.StoredFileRepository
	fileStorage storage.FileStorage
	now         func() time.Time
}

func NewStoredFileService(repo repository.StoredFileRepository, fileStorage storage.FileStorage) StoredFileService {
	return &storedFileService{
		repo:        repo,
		fileStorage: fileStorage,
		now:         time.Now,
	}
}

func (s *storedFileService) Store(ctx context.Context, ownerID uuid.UUID, folder string, file commonDto.UploadedFile) (string, error) {
	url, err := s.fileStorage.UploadFile(ctx, file.Reader, folder, file.FileName)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	if err := s.repo.Create(ctx, &entity.StoredFile{URL: url, OwnerID: ownerID}); err != nil {
		s.deleteFile(ctx, url)
		return "", fmt.Errorf("record stored file: %w", err)
	}
	return url, nil
}

// Discard is the compensating action of a failed saga. Failures are logged;
// the sweep retries whatever is left.
func (s *storedFileService) Discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	s.deleteFile(ctx, url)
	if err := s.repo.DeleteByURL(ctx, url); err != nil {
		log.Printf("[storedfile] failed to drop ledger row %s: %v", url, err)
	}
}

func (s *storedFileService) deleteFile(ctx context.Context, url string) {
	if err := s.fileStorage.DeleteFile(ctx, url); err != nil {
		log.Printf("[storedfile] failed to delete %s: %v", url, err)
	}
}

func (s *storedFileService) CleanupOrphans(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-OrphanAge)

	orphans, err := s.repo.FindOrphans(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, orphan := range orphans {
		if err := s.fileStorage.DeleteFile(ctx, orphan.URL); err != nil {
			log.Printf("[storedfile] failed to delete orphan %s: %v", orphan.URL, err)
			continue
		}
		// If the ledger delete fails the next run picks the row up again.
		if err := s.repo.DeleteByURL(ctx, orphan.URL); err != nil {
			log.Printf("[storedfile] failed to drop ledger row %s: %v", orphan.URL, err)
			continue
		}
		removed++
	}
	return removed, nil
}

package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"anoa.com/campusadmin/internal/inmemtest"
	storedfile "anoa.com/campusadmin/internal/modules/storedfile/service"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name     string
	schedule string
	runs     int
	err      error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRegisterAndRunByName(t *testing.T) {
	s := New(time.Minute)
	daily := &countingJob{name: "daily", schedule: "@daily"}
	manual := &countingJob{name: "manual", err: errors.New("boom")}

	require.NoError(t, s.Register(daily))
	require.NoError(t, s.Register(manual))
	assert.Equal(t, []string{"daily", "manual"}, s.JobNames())

	require.NoError(t, s.RunJobByName(context.Background(), "daily"))
	assert.Equal(t, 1, daily.runs)

	assert.EqualError(t, s.RunJobByName(context.Background(), "manual"), "boom")
	assert.Error(t, s.RunJobByName(context.Background(), "missing"))
}

func TestRegisterRejectsDuplicatesAndBadSchedules(t *testing.T) {
	s := New(time.Minute)
	require.NoError(t, s.Register(&countingJob{name: "a", schedule: "@every 1h"}))

	assert.Error(t, s.Register(&countingJob{name: "a"}))
	assert.Error(t, s.Register(&countingJob{name: "b", schedule: "every tuesday"}))
	assert.Equal(t, []string{"a"}, s.JobNames())
}

func TestOrphanFileCleanupJob(t *testing.T) {
	ctx := context.Background()
	db := inmemtest.NewDB()
	files := inmemtest.NewFileStorage()
	svc := storedfile.NewStoredFileService(inmemtest.NewStoredFileRepository(db), files)

	url, err := svc.Store(ctx, uuid.New(), "subjects", commonDto.UploadedFile{
		Reader: strings.NewReader("%PDF"), FileName: "sujet.pdf",
	})
	require.NoError(t, err)
	db.Backdate(url, time.Now().Add(-48*time.Hour))

	s := New(time.Minute)
	require.NoError(t, s.Register(NewOrphanFileCleanup(svc)))
	require.NoError(t, s.RunJobByName(ctx, OrphanFileCleanup))

	assert.False(t, files.Exists(url))
	_, ok := db.StoredFile(url)
	assert.False(t, ok)
}

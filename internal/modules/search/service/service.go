package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"anoa.com/campusadmin/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const subjectsIndex = "subjects"

// SubjectScope restricts a search to one tenant. Exactly one field is set.
type SubjectScope struct {
	TeacherID   *uuid.UUID
	ClassroomID *uuid.UUID
}

type MeiliSearchService interface {
	IndexSubject(subject *entity.Subject) error
	DeleteSubject(id uuid.UUID) error
	// SearchSubjects returns the ids of matching subjects, best match first.
	SearchSubjects(ctx context.Context, query string, scope SubjectScope) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"teacher_id", "classroom_id", "evaluation_type"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(subjectsIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("[search] failed to update subjects filterable attributes: %v", err)
	}

	sortableAttrs := []string{"start_date"}
	if _, err := s.client.Index(subjectsIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("[search] failed to update subjects sortable attributes: %v", err)
	}

	log.Println("[search] subjects index initialized")
}

type meiliSubjectDoc struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	EvaluationType  string `json:"evaluation_type"`
	EvaluationLabel string `json:"evaluation_label"`
	TeacherID       string `json:"teacher_id"`
	ClassroomID     string `json:"classroom_id"`
	StartDate       int64  `json:"start_date"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexSubject(subject *entity.Subject) error {
	doc := meiliSubjectDoc{
		ID:              subject.ID.String(),
		Title:           subject.Title,
		Description:     s.cleanContentForIndex(subject.Description),
		EvaluationType:  string(subject.EvaluationType),
		EvaluationLabel: subject.EvaluationType.Label(),
		TeacherID:       subject.TeacherID.String(),
		ClassroomID:     subject.ClassroomID.String(),
		StartDate:       subject.StartDate.Unix(),
	}

	task, err := s.client.Index(subjectsIndex).AddDocuments([]meiliSubjectDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("[search] indexed subject %s, task id: %d", subject.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteSubject(id uuid.UUID) error {
	_, err := s.client.Index(subjectsIndex).DeleteDocument(id.String())
	return err
}

func scopeFilter(scope SubjectScope) (string, error) {
	switch {
	case scope.TeacherID != nil:
		return fmt.Sprintf("teacher_id = %q", scope.TeacherID.String()), nil
	case scope.ClassroomID != nil:
		return fmt.Sprintf("classroom_id = %q", scope.ClassroomID.String()), nil
	}
	return "", fmt.Errorf("search scope is empty")
}

func (s *meiliSearchService) SearchSubjects(ctx context.Context, query string, scope SubjectScope) ([]uuid.UUID, error) {
	filter, err := scopeFilter(scope)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Index(subjectsIndex).SearchRawWithContext(ctx, query, &meilisearch.SearchRequest{
		Filter:               filter,
		Limit:                50,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if id, err := uuid.Parse(hit.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}

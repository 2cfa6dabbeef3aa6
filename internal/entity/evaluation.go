package entity

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EvaluationType string

const (
	EvaluationPOOJava        EvaluationType = "POO_JAVA"
	EvaluationCLanguage      EvaluationType = "C_LANGUAGE"
	EvaluationSQL            EvaluationType = "SQL"
	EvaluationPython         EvaluationType = "PYTHON"
	EvaluationAlgorithms     EvaluationType = "ALGORITHMS"
	EvaluationDataStructures EvaluationType = "DATA_STRUCTURES"
)

var EvaluationTypes = []EvaluationType{
	EvaluationPOOJava,
	EvaluationCLanguage,
	EvaluationSQL,
	EvaluationPython,
	EvaluationAlgorithms,
	EvaluationDataStructures,
}

func (t EvaluationType) Label() string {
	switch t {
	case EvaluationPOOJava:
		return "POO Java"
	case EvaluationCLanguage:
		return "Langage C"
	case EvaluationSQL:
		return "SQL"
	case EvaluationPython:
		return "Python"
	case EvaluationAlgorithms:
		return "Algorithmique"
	case EvaluationDataStructures:
		return "Structures de données"
	}
	return ""
}

func (t EvaluationType) Valid() bool {
	return t.Label() != ""
}

type DocumentType string

const (
	DocumentPDF      DocumentType = "PDF"
	DocumentMarkdown DocumentType = "MARKDOWN"
	DocumentLatex    DocumentType = "LATEX"
)

// AcceptedExtensions lists the lower-case extensions a submission for this
// document type may carry. Unknown types accept nothing.
func (d DocumentType) AcceptedExtensions() []string {
	switch d {
	case DocumentPDF:
		return []string{".pdf"}
	case DocumentMarkdown:
		return []string{".md", ".markdown"}
	case DocumentLatex:
		return []string{".tex", ".latex"}
	}
	return nil
}

func (d DocumentType) Valid() bool {
	return len(d.AcceptedExtensions()) > 0
}

func (d DocumentType) Accepts(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, accepted := range d.AcceptedExtensions() {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Subject is an evaluation issued by a professor to a classroom. The window
// [StartDate, EndDate] is inclusive on both ends.
type Subject struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"size:200;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	FileURL        string         `gorm:"type:text" json:"file_url"`
	EvaluationType EvaluationType `gorm:"size:30;not null" json:"evaluation_type"`
	DocumentType   DocumentType   `gorm:"size:20;not null" json:"document_type"`
	StartDate      time.Time      `gorm:"not null;index" json:"start_date"`
	EndDate        time.Time      `gorm:"not null" json:"end_date"`
	TeacherID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher        *Account       `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"teacher,omitempty"`
	ClassroomID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"classroom_id"`
	Classroom      *Classroom     `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE" json:"classroom,omitempty"`
	IsCorrecting   bool           `gorm:"default:false" json:"is_correcting"`
	IsCorrected    bool           `gorm:"default:false" json:"is_corrected"`
	OpenNotifiedAt *time.Time     `json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subject) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

// Submission is a student's single deposit against a subject.
type Submission struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	FileURL      string      `gorm:"type:text;not null" json:"file_url"`
	SubmittedAt  time.Time   `gorm:"not null" json:"submitted_at"`
	StudentID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_student_subject,priority:1" json:"student_id"`
	Student      *Account    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	SubjectID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_submissions_student_subject,priority:2;index" json:"subject_id"`
	Subject      *Subject    `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	IsCorrecting bool        `gorm:"default:false" json:"is_correcting"`
	IsCorrected  bool        `gorm:"default:false" json:"is_corrected"`
	Correction   *Correction `gorm:"foreignKey:SubmissionID" json:"correction,omitempty"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

type Correction struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Score          *float64       `json:"score"`
	Notes          string         `gorm:"type:text" json:"notes"`
	CorrectedAt    time.Time      `gorm:"not null" json:"corrected_at"`
	EvaluationType EvaluationType `gorm:"size:30;not null" json:"evaluation_type"`
	SubmissionID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`
	Submission     *Submission    `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Correction) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

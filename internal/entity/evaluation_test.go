package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTypeAccepts(t *testing.T) {
	tests := []struct {
		doc  DocumentType
		file string
		want bool
	}{
		{DocumentPDF, "rapport.pdf", true},
		{DocumentPDF, "RAPPORT.PDF", true},
		{DocumentPDF, "rapport.md", false},
		{DocumentMarkdown, "notes.md", true},
		{DocumentMarkdown, "notes.markdown", true},
		{DocumentMarkdown, "notes.txt", false},
		{DocumentLatex, "these.tex", true},
		{DocumentLatex, "these.latex", true},
		{DocumentLatex, "these.pdf", false},
		{DocumentPDF, "pdf", false},
		{DocumentType("WORD"), "a.docx", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.doc.Accepts(tt.file), "%s %s", tt.doc, tt.file)
	}
}

func TestEnumsAreClosed(t *testing.T) {
	for _, et := range EvaluationTypes {
		assert.True(t, et.Valid(), et)
		assert.NotEmpty(t, et.Label())
	}
	assert.False(t, EvaluationType("COBOL").Valid())

	assert.True(t, DocumentLatex.Valid())
	assert.False(t, DocumentType("").Valid())

	assert.True(t, RoleDepartmentAdmin.Valid())
	assert.False(t, Role("admin").Valid())
}

// Package evaluation holds the lifecycle of a subject as seen by one
// student. The status is never stored; it is derived from the subject
// window and the submission and correction rows.
package evaluation

import (
	"fmt"
	"time"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/pkg/apperror"
)

type Status string

const (
	StatusUpcoming   Status = "UPCOMING"
	StatusOpen       Status = "OPEN"
	StatusClosed     Status = "CLOSED"
	StatusSubmitted  Status = "SUBMITTED"
	StatusCorrecting Status = "CORRECTING"
	StatusCorrected  Status = "CORRECTED"
)

type Event string

const (
	EventSubmit           Event = "SUBMIT"
	EventBeginCorrection  Event = "BEGIN_CORRECTION"
	EventRecordCorrection Event = "RECORD_CORRECTION"
)

// DeriveStatus computes the status of subject for one student. submission
// and correction may be nil.
func DeriveStatus(subject *entity.Subject, submission *entity.Submission, correction *entity.Correction, now time.Time) Status {
	if submission != nil {
		if correction == nil {
			correction = submission.Correction
		}
		switch {
		case submission.IsCorrected, correction != nil && correction.Score != nil:
			return StatusCorrected
		case submission.IsCorrecting:
			return StatusCorrecting
		default:
			return StatusSubmitted
		}
	}

	switch {
	case now.Before(subject.StartDate):
		return StatusUpcoming
	case now.After(subject.EndDate):
		return StatusClosed
	default:
		return StatusOpen
	}
}

// Transition applies ev to from. Window violations are validation errors,
// a second deposit is a conflict.
func Transition(from Status, ev Event) (Status, error) {
	switch ev {
	case EventSubmit:
		switch from {
		case StatusOpen:
			return StatusSubmitted, nil
		case StatusUpcoming:
			return from, apperror.Validation("La période de dépôt n'est pas encore ouverte")
		case StatusClosed:
			return from, apperror.Validation("La période de dépôt est terminée")
		case StatusSubmitted, StatusCorrecting, StatusCorrected:
			return from, apperror.Conflict("Vous avez déjà déposé un travail pour ce sujet")
		}

	case EventBeginCorrection:
		switch from {
		case StatusSubmitted, StatusCorrecting:
			return StatusCorrecting, nil
		case StatusCorrected:
			return from, apperror.Validation("Ce dépôt est déjà corrigé")
		case StatusUpcoming, StatusOpen, StatusClosed:
			return from, apperror.Validation("Aucun dépôt à corriger")
		}

	case EventRecordCorrection:
		switch from {
		case StatusSubmitted, StatusCorrecting, StatusCorrected:
			return StatusCorrected, nil
		case StatusUpcoming, StatusOpen, StatusClosed:
			return from, apperror.Validation("Aucun dépôt à corriger")
		}
	}

	return from, fmt.Errorf("unknown transition %s from %s", ev, from)
}

// WithinWindow reports whether now lies in the inclusive window of subject.
func WithinWindow(subject *entity.Subject, now time.Time) bool {
	return !now.Before(subject.StartDate) && !now.After(subject.EndDate)
}

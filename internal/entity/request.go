package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// Request is a budget request. TotalAmount is always Quantity * UnitPrice.
type Request struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string        `gorm:"size:200;not null" json:"name"`
	Category     string        `gorm:"size:100;not null" json:"category"`
	Description  string        `gorm:"type:text" json:"description"`
	Quantity     int           `gorm:"not null" json:"quantity"`
	UnitPrice    float64       `gorm:"not null" json:"unit_price"`
	TotalAmount  float64       `gorm:"not null" json:"total_amount"`
	Status       RequestStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	UserID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *Account      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	DepartmentID *uuid.UUID    `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department   `gorm:"foreignKey:DepartmentID;constraint:OnDelete:SET NULL" json:"department,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

type NotificationType string

const (
	NotificationSubjectOpened        NotificationType = "SUBJECT_OPENED"
	NotificationCorrectionRecorded   NotificationType = "CORRECTION_RECORDED"
	NotificationRequestStatusChanged NotificationType = "REQUEST_STATUS_CHANGED"
)

type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"` // recipient
	Type        NotificationType `gorm:"size:50;not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `gorm:"type:text" json:"message"`
	ReferenceID *uuid.UUID       `gorm:"type:uuid" json:"reference_id,omitempty"`
	IsRead      bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// StoredFile is the ledger row written for every uploaded file. A file stays
// unclaimed until the row referencing it is committed.
type StoredFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"type:text;not null;uniqueIndex" json:"url"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null" json:"owner_id"`
	Claimed   bool      `gorm:"default:false;index" json:"claimed"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

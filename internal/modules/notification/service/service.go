package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"anoa.com/campusadmin/internal/entity"
	notifRepo "anoa.com/campusadmin/internal/modules/notification/repository"
	"anoa.com/campusadmin/pkg/apperror"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationList struct {
	Data        []entity.Notification `json:"data"`
	Total       int64                 `json:"total"`
	CurrentPage int                   `json:"current_page"`
	TotalPages  int                   `json:"total_pages"`
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	CreateNotifications(ctx context.Context, notifications []entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.PageFilter) (*NotificationList, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) publish(ctx context.Context, notification *entity.Notification) {
	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
		log.Printf("[notification] publish to %s failed: %v", notification.UserID, err)
	}
}

// CreateNotification persists then publishes to the recipient's channel.
func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	s.publish(ctx, notification)
	return nil
}

func (s *notificationService) CreateNotifications(ctx context.Context, notifications []entity.Notification) error {
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return err
	}
	for i := range notifications {
		s.publish(ctx, &notifications[i])
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page commonDto.PageFilter) (*NotificationList, error) {
	offset := page.Normalize()
	notifications, total, err := s.repo.GetByUserID(ctx, userID, page.Limit, offset)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}
	return &NotificationList{
		Data:        notifications,
		Total:       total,
		CurrentPage: page.Page,
		TotalPages:  commonDto.TotalPages(total, page.Limit),
	}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return apperror.FromDB(s.repo.MarkAsRead(ctx, id, userID), "Notification introuvable")
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/inmemtest"
	"anoa.com/campusadmin/internal/modules/notification/service"
	"anoa.com/campusadmin/pkg/authctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *NotificationHandler, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		authctx.Set(c, authctx.AuthContext{AccountID: userID, Role: entity.RoleStudent})
	})
	r.GET("/notifications", h.GetNotifications)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.PUT("/notifications/:id/read", h.MarkAsRead)
	r.GET("/notifications/ws", h.HandleWebSocket)
	return r
}

func TestNotificationRoutes(t *testing.T) {
	db := inmemtest.NewDB()
	svc := service.NewNotificationService(inmemtest.NewNotificationRepository(db), nil)
	user := uuid.New()
	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{
		UserID: user, Type: entity.NotificationRequestStatusChanged, Title: "Demande approuvée",
	}))
	r := newRouter(NewNotificationHandler(svc, nil, []string{"http://localhost:3000"}), user)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?page=1&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list service.NotificationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, "Demande approuvée", list.Data[0].Title)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil))
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/"+uuid.NewString()+"/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/nope/read", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSocketNeedsRedis(t *testing.T) {
	svc := service.NewNotificationService(inmemtest.NewNotificationRepository(inmemtest.NewDB()), nil)
	r := newRouter(NewNotificationHandler(svc, nil, nil), uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	h := NewNotificationHandler(nil, nil, []string{"https://campus.example"})

	req := httptest.NewRequest(http.MethodGet, "/notifications/ws", nil)
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://campus.example")
	assert.True(t, h.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.upgrader.CheckOrigin(req))
}

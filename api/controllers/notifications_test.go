package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/bindery-hq/bindery-backend/internal/notifications"
	"github.com/bindery-hq/bindery-backend/pkg/db/models"
	"github.com/bindery-hq/bindery-backend/pkg/enums"
	pkgerrors "github.com/bindery-hq/bindery-backend/pkg/errors"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return s.listFn(ctx, params)
}

func (s *testNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.markReadFn(ctx, userID, notificationID)
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}

func TestListNotificationsPassesFilters(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserID != userID {
				t.Fatalf("expected user %s, got %s", userID, params.UserID)
			}
			if params.Limit != 5 || !params.UnreadOnly {
				t.Fatalf("expected limit 5 unreadOnly, got %+v", params)
			}
			return &notifications.ListResult{
				Items:  []models.Notification{{ID: uuid.New(), UserID: userID}},
				Cursor: "more",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=5&unreadOnly=true", nil)
	req = authedRequest(req, userID.String(), string(enums.ActorRoleBuyer), "")

	rec := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusOK)

	var envelope struct {
		Data notifications.ListResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Cursor != "more" {
		t.Fatalf("unexpected list result: %+v", envelope.Data)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	svc := &testNotificationsService{
		listFn: func(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=-3", nil)
	req = authedRequest(req, uuid.NewString(), string(enums.ActorRoleBuyer), "")

	rec := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusBadRequest)
}

func TestMarkNotificationReadOK(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	var gotUser, gotNotification uuid.UUID
	svc := &testNotificationsService{
		markReadFn: func(_ context.Context, u, n uuid.UUID) error {
			gotUser, gotNotification = u, n
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req = authedRequest(req, userID.String(), string(enums.ActorRoleBuyer), "")
	req = addRouteParam(req, "notificationId", notificationID.String())

	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusOK)

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["status"] != "read" {
		t.Fatalf("expected read status, got %+v", envelope.Data)
	}
	if gotUser != userID || gotNotification != notificationID {
		t.Fatalf("service received wrong identifiers: user %s notification %s", gotUser, gotNotification)
	}
}

func TestMarkNotificationReadRequiresAuth(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	notificationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req = addRouteParam(req, "notificationId", notificationID.String())

	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusUnauthorized)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}

	notificationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req = authedRequest(req, uuid.NewString(), string(enums.ActorRoleBuyer), "")
	req = addRouteParam(req, "notificationId", notificationID.String())

	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusNotFound)
}

func TestMarkAllNotificationsReadReturnsCount(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		markAllReadFn: func(_ context.Context, u uuid.UUID) (int64, error) {
			if u != userID {
				t.Fatalf("expected user %s, got %s", userID, u)
			}
			return 4, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil)
	req = authedRequest(req, userID.String(), string(enums.ActorRoleBuyer), "")

	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(rec, req)

	requireStatus(t, rec.Code, http.StatusOK)

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["marked"] != 4 {
		t.Fatalf("expected 4 marked, got %d", envelope.Data["marked"])
	}
}

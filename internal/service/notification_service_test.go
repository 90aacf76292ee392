package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupNotificationServiceTest(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewNotificationService(repository.NewNotificationRepository(db), nil), db
}

func TestNotifyAndUnreadCount(t *testing.T) {
	svc, _ := setupNotificationServiceTest(t)

	if err := svc.Notify(0, constants.NotificationTypeOrderStatus, "t", "m", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("zero user want ErrUserNotFound got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.Notify(60, constants.NotificationTypeOrderStatus, "Order status updated",
			fmt.Sprintf("update %d", i), models.JSON{"order_no": "VS1"}); err != nil {
			t.Fatalf("notify failed: %v", err)
		}
	}
	if err := svc.Notify(61, constants.NotificationTypeCancelRequest, "Cancellation approved", "done", nil); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	count, err := svc.CountUnread(60)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("unread want 3 got %d", count)
	}

	items, total, err := svc.ListByUser(60, true, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("unread list want 3 got total=%d len=%d", total, len(items))
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, _ := setupNotificationServiceTest(t)

	if err := svc.Notify(70, constants.NotificationTypeOrderStatus, "t", "m", nil); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	items, _, err := svc.ListByUser(70, false, 1, 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("list failed: err=%v len=%d", err, len(items))
	}
	id := items[0].ID

	// 他人不可标记
	if err := svc.MarkRead(id, 71); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("foreign mark want ErrNotificationNotFound got %v", err)
	}
	if err := svc.MarkRead(id, 70); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	// 重复标记幂等
	if err := svc.MarkRead(id, 70); err != nil {
		t.Fatalf("repeat mark failed: %v", err)
	}

	count, err := svc.CountUnread(70)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("unread want 0 got %d", count)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := setupNotificationServiceTest(t)

	for i := 0; i < 4; i++ {
		if err := svc.Notify(80, constants.NotificationTypeOrderStatus, "t", "m", nil); err != nil {
			t.Fatalf("notify failed: %v", err)
		}
	}
	if err := svc.MarkAllRead(80); err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	count, err := svc.CountUnread(80)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("unread want 0 got %d", count)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/logger"
)

// ChannelMessage worker 发布到 Redis 的跨进程推送消息
type ChannelMessage struct {
	UserID      uint  `json:"user_id"`
	UnreadCount int64 `json:"unread_count"`
}

// ChannelFor 返回用户推送频道名
func ChannelFor(userID uint) string {
	return constants.NotifyChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// RunSubscriber 订阅所有用户推送频道并转发到 Hub。
// Redis 未启用时直接返回，推送退化为仅 API 拉取。
// 阻塞直到 ctx 取消，通常以 goroutine 运行。
func RunSubscriber(ctx context.Context, hub *Hub) {
	if !cache.Enabled() || hub == nil {
		return
	}
	pubsub := cache.PSubscribe(ctx, constants.NotifyChannelPrefix+"*")
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	logger.Infow("notify_subscriber_started", "pattern", constants.NotifyChannelPrefix+"*")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID := parseChannelUser(msg.Channel)
			if userID == 0 {
				continue
			}
			var payload ChannelMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				logger.Warnw("notify_message_malformed", "channel", msg.Channel, "error", err)
				continue
			}
			hub.PushUnread(userID, payload.UnreadCount)
		}
	}
}

func parseChannelUser(channel string) uint {
	raw := strings.TrimPrefix(channel, constants.NotifyChannelPrefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

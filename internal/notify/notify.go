package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message 流转通知
type Message struct {
	RecipientID string    `json:"recipient_id"`
	DocumentID  string    `json:"document_id"`
	Event       string    `json:"event"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Outcome 单条通知的投递结果
//
// 通知是尽力而为的，失败只记录不回滚，Outcome 用来
// 把结果显式带回调用方的日志。
type Outcome struct {
	Message Message
	Err     error
}

// Sink 通知投递端
type Sink interface {
	Deliver(ctx context.Context, msg Message) Outcome
}

// ZapSink 仅写日志的投递端，用于本地开发和测试
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Deliver(_ context.Context, msg Message) Outcome {
	s.log.Info("流转通知",
		zap.String("recipient_id", msg.RecipientID),
		zap.String("document_id", msg.DocumentID),
		zap.String("event", msg.Event))
	return Outcome{Message: msg}
}

// RedisSink 将通知发布到 Redis 频道，由下游网关推送
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Deliver(ctx context.Context, msg Message) Outcome {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Outcome{Message: msg, Err: fmt.Errorf("序列化通知失败: %w", err)}
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return Outcome{Message: msg, Err: fmt.Errorf("发布通知失败: %w", err)}
	}
	return Outcome{Message: msg}
}

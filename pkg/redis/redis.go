package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"school-timetable/config"
)

// Client Redis 客户端封装
// 用于班级名列表缓存
type Client struct {
	rdb           *goredis.Client
	classNamesTTL time.Duration
	logger        *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, classNamesTTL: cfg.ClassNamesTTL, logger: logger}, nil
}

// ── 班级名列表缓存 ──
//
// 列表与一个代数计数器配合使用：失效时计数器 +1 并删除列表；
// 回写前须提供查询前读到的代数，代数已变化则放弃写入，
// 避免旧查询结果覆盖掉一次失效。

const (
	classNamesKey    = "timetable:class_names"
	classNamesGenKey = "timetable:class_names:gen"
)

// GetClassNames 读取缓存的班级名列表；未命中时 ok=false
func (c *Client) GetClassNames(ctx context.Context) ([]string, bool, error) {
	raw, err := c.rdb.Get(ctx, classNamesKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false, fmt.Errorf("班级名缓存格式错误: %w", err)
	}
	return names, true, nil
}

// ClassNamesGeneration 当前缓存代数；从未失效过时为 0
func (c *Client) ClassNamesGeneration(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, classNamesGenKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetClassNames 在代数仍为 gen 时写入班级名列表缓存
// 代数已变化（期间发生过失效）时不写入，返回 stored=false
func (c *Client) SetClassNames(ctx context.Context, names []string, gen int64) (bool, error) {
	raw, err := json.Marshal(names)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, classNamesGenKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, classNamesKey, raw, c.classNamesTTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, classNamesGenKey)

	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// InvalidateClassNames 代数 +1 并删除班级名列表缓存（新建时间表后调用）
func (c *Client) InvalidateClassNames(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, classNamesGenKey)
		pipe.Del(ctx, classNamesKey)
		return nil
	})
	return err
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

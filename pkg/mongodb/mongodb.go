package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"school-timetable/config"
)

// Conn 进程级 MongoDB 连接句柄
//
// 首次调用 Database 时才建立连接；连接成功后在进程生命周期内复用。
// 建连失败不会缓存错误，下一次调用会重新尝试。
type Conn struct {
	cfg    config.MongoConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// New 创建连接句柄（不立即建连）
func New(cfg config.MongoConfig, logger *zap.Logger) *Conn {
	return &Conn{cfg: cfg, logger: logger}
}

// Database 返回已连接的数据库实例，必要时建立连接
func (c *Conn) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("连接 MongoDB 失败: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping 失败: %w", err)
	}

	c.client = client
	c.db = client.Database(c.cfg.Database)

	c.logger.Info("MongoDB 连接成功", zap.String("database", c.cfg.Database))
	return c.db, nil
}

// Collection 返回指定集合，必要时建立连接
func (c *Conn) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := c.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Connected 是否已建立连接
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// Close 断开连接；未连接时为空操作
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}

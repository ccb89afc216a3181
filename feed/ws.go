// Package feed 通过 websocket 接入外部行情源，归一化为 market.Tick。
package feed

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"exec-engine-go/infrastructure/logger"
	"exec-engine-go/market"
)

var ErrNoURL = errors.New("feed url required")

// Client 行情客户端：连接 + 读取 + 断线重连。
// 坏帧跳过并计数，不中断读取。
type Client struct {
	URL     string
	Token   string
	Venue   string
	Symbols []string
	Dialer  *websocket.Dialer
	Logger  *logger.Logger

	// 重连退避上限，默认 30 秒
	MaxBackoff time.Duration

	badFrames int64
}

// Run 阻塞读取，直到 ctx 取消。每条有效 tick 回调 handler。
func (c *Client) Run(ctx context.Context, handler func(market.Tick)) error {
	if c.URL == "" {
		return ErrNoURL
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.readLoop(ctx, handler)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		c.Logger.Warn("Feed disconnected, reconnecting",
			zap.String("url", c.URL),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.MaxBackoff {
			backoff = c.MaxBackoff
		}
	}
}

func (c *Client) readLoop(ctx context.Context, handler func(market.Tick)) error {
	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}

	conn, _, err := c.Dialer.DialContext(ctx, c.URL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.Logger.Info("Feed connected",
		zap.String("url", c.URL),
		zap.Strings("symbols", c.Symbols))

	// ctx 取消时强制断开读阻塞
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		tick, err := ParseTick(message, c.Venue)
		if err != nil {
			c.badFrames++
			c.Logger.Debug("Skipping malformed frame", zap.Error(err))
			continue
		}
		handler(tick)
	}
}

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader 基于 fsnotify 监听配置文件变化，重新加载并回调。
// 风控限额在协调器生命周期内固定，重载只作用于运维面
// （feed 参数、日志级别等），由回调方决定采纳范围。
type Reloader struct {
	path     string
	cooldown time.Duration
	watcher  *fsnotify.Watcher

	mu         sync.Mutex
	lastReload time.Time
	onReload   func(AppConfig)

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewReloader 创建重载器；cooldown <= 0 时默认 5 秒，避免编辑器连续写入触发风暴。
func NewReloader(path string, cooldown time.Duration, onReload func(AppConfig)) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}
	return &Reloader{
		path:     path,
		cooldown: cooldown,
		watcher:  watcher,
		onReload: onReload,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start 启动监听。
func (r *Reloader) Start(ctx context.Context) error {
	if err := r.watcher.Add(r.path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go r.watch(ctx)
	return nil
}

// Stop 停止监听并关闭 watcher；幂等。
func (r *Reloader) Stop() error {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}

	select {
	case <-r.doneChan:
	case <-time.After(time.Second):
	}
	return r.watcher.Close()
}

func (r *Reloader) watch(ctx context.Context) {
	defer close(r.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				r.handleChange()
			}
		case _, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			// 监听错误不致命，继续
		}
	}
}

func (r *Reloader) handleChange() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastReload) < r.cooldown {
		return
	}

	cfg, err := LoadWithEnvOverrides(r.path)
	if err != nil {
		// 非法配置不应用，保持现状
		return
	}
	r.lastReload = time.Now()
	if r.onReload != nil {
		r.onReload(cfg)
	}
}

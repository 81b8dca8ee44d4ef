package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// 全局单例 + once
var (
	globalMgr *Manager
	once      sync.Once
)

// Manager 可自由注册/清空中间件的总控
type Manager struct {
	mu   sync.RWMutex
	mids []gin.HandlerFunc
}

// Config 程序启动时显式初始化
func Config() {
	once.Do(func() {
		globalMgr = &Manager{}
	})
}

// Default 获取全局实例（惰性初始化，线程安全）
func Default() *Manager {
	once.Do(func() {
		if globalMgr == nil {
			globalMgr = &Manager{}
		}
	})
	return globalMgr
}

// Add 注册一个中间件
func (m *Manager) Add(h gin.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = append(m.mids, h)
}

// Clear 清空全部中间件
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = nil
}

// Use 返回总控 handler 挂到 Engine 上
func (m *Manager) Use() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		handlers := append([]gin.HandlerFunc{}, m.mids...)
		m.mu.RUnlock()

		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

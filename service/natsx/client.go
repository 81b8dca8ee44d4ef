package natsx

import (
	"strings"
	"sync"
	"time"

	"SProject/tools/errs"
	"github.com/nats-io/nats.go"
)

// Config 客户端配置
type Config struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Client 网关间事件转发用的 NATS 连接。Core 模式即可：
// 转发语义本来就是 best-effort，不需要 JetStream 持久化。
type Client struct {
	cfg Config
	nc  *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &Client{cfg: cfg, nc: nc}, nil
}

func (c *Client) publish(subject string, data []byte) error {
	return errs.Wrap(c.nc.Publish(subject, data))
}

func (c *Client) subscribe(subject string, cb nats.MsgHandler) error {
	sub, err := c.nc.Subscribe(subject, cb)
	if err != nil {
		return errs.Wrap(err)
	}
	_ = sub.SetPendingLimits(1_000_000, 64*1024*1024)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Close drain 所有订阅后断开
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		_ = sub.Drain()
	}
	c.subs = nil
	if c.nc != nil {
		return c.nc.Drain()
	}
	return nil
}

package natsx

import (
	"encoding/json"

	"SProject/logger"
	"SProject/tools/errs"
	"github.com/nats-io/nats.go"
)

// subject 规划：
//   social.gw.<gatewayID>.user   定向投递（某网关上的某用户）
//   social.group.events          分组广播（所有网关订阅，各自投本地成员）

const groupSubject = "social.group.events"

func userSubject(gatewayID string) string {
	return "social.gw." + gatewayID + ".user"
}

// envelope 转发信封。Data 已是事件负载的 JSON 形态。
type envelope struct {
	Origin string          `json:"origin"` // 发出网关，消费端据此跳过回声
	UserID string          `json:"userId,omitempty"`
	ChatID string          `json:"chatId,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Relay 跨网关事件转发，实现 service/chat.Relay。
type Relay struct {
	gwID   string
	client *Client
}

func NewRelay(gwID string, client *Client) *Relay {
	return &Relay{gwID: gwID, client: client}
}

func (r *Relay) PublishToUser(gatewayID, userID, event string, data any) error {
	payload, err := r.seal(envelope{Origin: r.gwID, UserID: userID, Event: event}, data)
	if err != nil {
		return err
	}
	return r.client.publish(userSubject(gatewayID), payload)
}

func (r *Relay) PublishToGroup(chatID, event string, data any) error {
	payload, err := r.seal(envelope{Origin: r.gwID, ChatID: chatID, Event: event}, data)
	if err != nil {
		return err
	}
	return r.client.publish(groupSubject, payload)
}

func (r *Relay) seal(env envelope, data any) ([]byte, error) {
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		env.Data = raw
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return b, nil
}

// LocalDeliverer 本地投递面（service/chat.Router 的消费端入口）
type LocalDeliverer interface {
	DeliverLocalUser(userID, event string, data any)
	DeliverLocalGroup(chatID, event string, data any)
}

// Start 订阅本网关的定向投递 subject 和全局分组广播。
// 分组广播里自己发出的消息按 Origin 跳过，本地已经投过一轮。
func (r *Relay) Start(local LocalDeliverer) error {
	if err := r.client.subscribe(userSubject(r.gwID), func(m *nats.Msg) {
		env, ok := r.open(m.Data)
		if !ok || env.UserID == "" {
			return
		}
		local.DeliverLocalUser(env.UserID, env.Event, env.Data)
	}); err != nil {
		return err
	}
	return r.client.subscribe(groupSubject, func(m *nats.Msg) {
		env, ok := r.open(m.Data)
		if !ok || env.ChatID == "" || env.Origin == r.gwID {
			return
		}
		local.DeliverLocalGroup(env.ChatID, env.Event, env.Data)
	})
}

func (r *Relay) open(data []byte) (*envelope, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warnf("[natsx] bad relay envelope: %v", err)
		return nil, false
	}
	return &env, true
}

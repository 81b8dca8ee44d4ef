package chat

import (
	"encoding/json"

	"SProject/tools/errs"
)

// Frame ws 业务帧。事件名 + 负载，负载形态见 module/social/events。
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// ParseFrame 解析一条入站帧
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errs.ErrArgs.WrapMsg("bad frame", "err", err)
	}
	if f.Event == "" {
		return nil, errs.ErrArgs.WrapMsg("frame missing event")
	}
	return &f, nil
}

// EncodeEvent 出站帧序列化。失败返回 nil，调用方跳过该次投递。
func EncodeEvent(event string, data any) []byte {
	b, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return b
}

// EncodeError 给连接回一条错误帧（带错误码，客户端按 code 提示）
func EncodeError(replyTo string, e *errs.CodeError) []byte {
	return EncodeEvent("error", map[string]any{
		"replyTo": replyTo,
		"code":    e.Code,
		"msg":     e.Msg,
	})
}

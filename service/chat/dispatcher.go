package chat

import (
	"SProject/tools/errs"
)

// Ctx 一次帧处理的上下文
type Ctx struct {
	S      *Server
	Client *Client
}

type HandlerFunc func(ctx *Ctx, data map[string]any) error

type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(event string, h HandlerFunc) {
	d.handlers[event] = h
}

func (d *Dispatcher) Dispatch(ctx *Ctx, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errs.ErrArgs.WrapMsg("no handler", "event", f.Event)
	}
	return h(ctx, f.Data)
}

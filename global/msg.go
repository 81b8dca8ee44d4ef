package global

import errs "SProject/tools/errs"

type Msg struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Success(data any) *Msg {
	return &Msg{
		Code: 200,
		Msg:  "",
		Data: data,
	}
}

func Fail(e *errs.CodeError) *Msg {
	return &Msg{
		Code: e.Code,
		Msg:  e.Msg,
		Data: nil,
	}
}

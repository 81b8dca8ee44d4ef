package specialerror

import (
	"errors"

	errs "SProject/tools/errs"
)

var handlers []func(err error) *errs.CodeError

func AddErrHandler(h func(err error) *errs.CodeError) error {
	if h == nil {
		return errs.New("nil handler")
	}
	handlers = append(handlers, h)
	return nil
}

// ErrCode 把任意 error 归一化为 *CodeError；未识别的返回 ErrInternalServer。
func ErrCode(err error) *errs.CodeError {
	if err == nil {
		return nil
	}
	var codeErr *errs.CodeError
	if errors.As(err, &codeErr) {
		return codeErr
	}
	for _, h := range handlers {
		if ce := h(err); ce != nil {
			return ce
		}
	}
	ce := errs.ErrInternalServer.WithDetail(err.Error())
	return &ce
}

package errs

// ===== 错误码规划 =====
//
// 500        服务内部错误
// 1001~1099  参数/请求形态错误
// 1301~1399  消息发送策略拒绝（PolicyDenied 家族，前端按 code 提示）
// 1404/1409  记录不存在 / 并发冲突
// 1501~1599  认证相关
// 1601~1699  通话信令
const (
	ServerInternalError = 500

	ArgsError = 1001

	// 策略拒绝：code 必须能区分"谁拉黑了谁"与"等待接受"等场景
	PolicyBlockedByYouError  = 1301 // 你拉黑了对方
	PolicyBlockedByPeerError = 1302 // 对方拉黑了你
	PolicyDeclinedError      = 1303 // 消息请求已被拒绝（终态）
	PolicyMustAcceptError    = 1304 // 接收方需先接受消息请求才能回复
	PolicyPendingCapError    = 1305 // 请求方已发过免费消息，等待对方接受

	RecordNotFoundError = 1404
	ConflictError       = 1409

	TokenExpiredError = 1501
	TokenInvalidError = 1502

	CallerBusyError = 1601 // 同一主叫已有未决的外呼
	CalleeBusyError = 1602 // 被叫正在通话中
	CallStateError  = 1603 // 当前通话状态不允许该操作
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "server internal error")
	ErrArgs           = NewCodeError(ArgsError, "invalid args")

	ErrBlockedByYou  = NewCodeError(PolicyBlockedByYouError, "you have blocked this user")
	ErrBlockedByPeer = NewCodeError(PolicyBlockedByPeerError, "this user has blocked you")
	ErrDeclined      = NewCodeError(PolicyDeclinedError, "message request was declined")
	ErrMustAccept    = NewCodeError(PolicyMustAcceptError, "accept the message request before replying")
	ErrPendingCap    = NewCodeError(PolicyPendingCapError, "wait for the recipient to accept your request")

	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "record not found")
	ErrConflict       = NewCodeError(ConflictError, "concurrent update conflict")

	ErrTokenExpired = NewCodeError(TokenExpiredError, "token expired")
	ErrTokenInvalid = NewCodeError(TokenInvalidError, "token invalid")

	ErrCallerBusy = NewCodeError(CallerBusyError, "caller already has an outgoing call")
	ErrCalleeBusy = NewCodeError(CalleeBusyError, "callee is busy")
	ErrCallState  = NewCodeError(CallStateError, "call state does not allow this operation")
)

// IsPolicyDenied 判断是否属于发送策略拒绝家族。
func IsPolicyDenied(code int) bool {
	return code >= PolicyBlockedByYouError && code <= PolicyPendingCapError
}

package api

import (
	"context"
	"net/http"
	"time"

	"SProject/global"
	"SProject/middleware"
	midsec "SProject/middleware/security"
	"SProject/module/social/consent"
	"SProject/module/social/friend"
	socialmodel "SProject/module/social/model"
	"SProject/module/social/receipt"
	"SProject/module/user"
	"SProject/tools/errs"
	"SProject/tools/specialerror"
	"github.com/gin-gonic/gin"
)

// Reader 列表/拉取接口需要的只读存储面（*store.Store 实现）
type Reader interface {
	GetChat(ctx context.Context, chatID string) (*socialmodel.Chat, error)
	ListMessages(ctx context.Context, chatID string, limit int64) ([]*socialmodel.Message, error)
	ListPendingRequests(ctx context.Context, toUser string) ([]*socialmodel.MessageRequest, error)
	ListChats(ctx context.Context, userID string, limit int64) ([]*socialmodel.Chat, error)
}

// Handler HTTP 面。实时事件走 ws，这里是同样操作的请求/响应形态，
// 供客户端冷启动拉数据和不便走 ws 的调用方使用。
type Handler struct {
	store   Reader
	consent *consent.Service
	receipt *receipt.Service
	friends *friend.Service
	users   *user.Service
}

func NewHandler(st Reader, consentSvc *consent.Service, receiptSvc *receipt.Service,
	friendSvc *friend.Service, userSvc *user.Service) *Handler {
	return &Handler{
		store:   st,
		consent: consentSvc,
		receipt: receiptSvc,
		friends: friendSvc,
		users:   userSvc,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	auth := middleware.RouteOpt{IsAuth: true}
	open := middleware.RouteOpt{}

	middleware.POST(r, "/api/user/register", h.register, open)
	middleware.POST(r, "/api/user/login", h.login, open)

	middleware.POST(r, "/api/message/send", h.sendMessage, auth)
	middleware.GET(r, "/api/message/list", h.listMessages, auth)

	middleware.GET(r, "/api/request/list", h.listRequests, auth)
	middleware.POST(r, "/api/request/accept", h.acceptRequest, auth)
	middleware.POST(r, "/api/request/decline", h.declineRequest, auth)

	middleware.POST(r, "/api/friend/request", h.friendRequest, auth)
	middleware.POST(r, "/api/friend/accept", h.friendAccept, auth)
	middleware.POST(r, "/api/friend/block", h.friendBlock, auth)
	middleware.POST(r, "/api/friend/unblock", h.friendUnblock, auth)
	middleware.POST(r, "/api/friend/remove", h.friendRemove, auth)
	middleware.GET(r, "/api/friend/list", h.friendList, auth)

	middleware.GET(r, "/api/chat/list", h.listChats, auth)
	middleware.POST(r, "/api/chat/markRead", h.markRead, auth)
	middleware.GET(r, "/api/chat/seenBy", h.seenBy, auth)
}

func fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, global.Fail(specialerror.ErrCode(err)))
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.Nickname)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(gin.H{"userId": u.UserID, "nickname": u.Nickname}))
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	token, expireAt, u, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(gin.H{
		"token":    token,
		"expireAt": expireAt.UnixMilli(),
		"userId":   u.UserID,
		"nickname": u.Nickname,
		"faceUrl":  u.FaceURL,
	}))
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req consent.SendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	msg, err := h.consent.SendMessage(c.Request.Context(), midsec.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(gin.H{
		"messageId": msg.MessageID,
		"chatId":    msg.ChatID,
		"createdAt": msg.CreateTime.UnixMilli(),
	}))
}

// listMessages 拉历史。历史和实时投递一样只对会话成员开放，
// 否则被拉黑/被拒的一方还能从 HTTP 面绕过门禁旁观。
func (h *Handler) listMessages(c *gin.Context) {
	chatID := c.Query("chatId")
	chat, err := h.store.GetChat(c.Request.Context(), chatID)
	if err != nil {
		fail(c, err)
		return
	}
	if chat == nil || !chat.HasMember(midsec.UserID(c)) {
		fail(c, errs.ErrRecordNotFound.Wrap())
		return
	}
	msgs, err := h.store.ListMessages(c.Request.Context(), chatID, 50)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(msgs))
}

func (h *Handler) listRequests(c *gin.Context) {
	reqs, err := h.store.ListPendingRequests(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(reqs))
}

type chatOpReq struct {
	ChatID string `json:"chatId"`
}

func (h *Handler) acceptRequest(c *gin.Context) {
	var req chatOpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	r, err := h.consent.AcceptRequest(c.Request.Context(), req.ChatID, midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(gin.H{"requestId": r.RequestID, "status": r.Status}))
}

func (h *Handler) declineRequest(c *gin.Context) {
	var req chatOpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	r, err := h.consent.DeclineRequest(c.Request.Context(), req.ChatID, midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(gin.H{"requestId": r.RequestID, "status": r.Status}))
}

type peerReq struct {
	UserID string `json:"userId"`
}

func (h *Handler) friendRequest(c *gin.Context) {
	var req peerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.friends.Request(c.Request.Context(), midsec.UserID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) friendAccept(c *gin.Context) {
	var req peerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.friends.Accept(c.Request.Context(), midsec.UserID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) friendBlock(c *gin.Context) {
	var req peerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.friends.Block(c.Request.Context(), midsec.UserID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) friendUnblock(c *gin.Context) {
	var req peerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.friends.Unblock(c.Request.Context(), midsec.UserID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) friendRemove(c *gin.Context) {
	var req peerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.friends.Unfriend(c.Request.Context(), midsec.UserID(c), req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) friendList(c *gin.Context) {
	out, err := h.friends.Friends(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(out))
}

func (h *Handler) listChats(c *gin.Context) {
	chats, err := h.store.ListChats(c.Request.Context(), midsec.UserID(c), 50)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(chats))
}

type markReadReq struct {
	ChatID            string `json:"chatId"`
	LastReadMessageID string `json:"lastReadMessageId"`
	ReadAt            int64  `json:"readAt"` // Unix 毫秒
}

func (h *Handler) markRead(c *gin.Context) {
	var req markReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	err := h.receipt.MarkRead(c.Request.Context(), req.ChatID, midsec.UserID(c),
		req.LastReadMessageID, time.UnixMilli(req.ReadAt))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(nil))
}

func (h *Handler) seenBy(c *gin.Context) {
	out, err := h.receipt.SeenBy(c.Request.Context(), c.Query("chatId"), midsec.UserID(c), 100)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.Success(out))
}

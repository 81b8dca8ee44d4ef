package chat

import (
	"context"
	"time"

	"SProject/module/social/call"
	"SProject/module/social/consent"
	"SProject/tools/decode"
	"SProject/tools/errs"
)

// 入站帧负载。字段经 tools/decode 弱类型解码，数字/字符串混用也能吃下。

type joinReq struct {
	ChatID string `json:"chatId"`
}

type sendReq struct {
	ChatID      string `json:"chatId"`
	PeerID      string `json:"peerId"`
	LocalID     string `json:"localId"`
	ClientMsgID string `json:"clientMsgId"`
	ContentType int32  `json:"contentType"`
	Content     string `json:"content"`
}

type markReadReq struct {
	ChatID            string `json:"chatId"`
	LastReadMessageID string `json:"lastReadMessageId"`
	ReadAt            int64  `json:"readAt"` // Unix 毫秒
}

type callStartReq struct {
	CalleeID string `json:"calleeId"`
	ChatID   string `json:"chatId"`
}

type callOpReq struct {
	CallID string `json:"callId"`
	Reason string `json:"reason"`
}

const frameTimeout = 5 * time.Second

func (s *Server) registerHandlers() {
	s.disp.Register("ping", handlePing)
	s.disp.Register("chat:join", s.handleJoin)
	s.disp.Register("chat:leave", s.handleLeave)
	s.disp.Register("message:send", s.handleSend)
	s.disp.Register("markRead", s.handleMarkRead)
	s.disp.Register("call:start", s.handleCallStart)
	s.disp.Register("call:accept", s.handleCallAccept)
	s.disp.Register("call:decline", s.handleCallDecline)
	s.disp.Register("call:end", s.handleCallEnd)
}

func handlePing(ctx *Ctx, _ map[string]any) error {
	ctx.Client.Enqueue(EncodeEvent("pong", nil))
	return nil
}

// handleJoin 订阅会话分组。必须是会话成员，挡住偷听。
func (s *Server) handleJoin(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[joinReq](data)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	chat, err := s.chats.GetChat(cctx, req.ChatID)
	if err != nil {
		return err
	}
	if chat == nil || !chat.HasMember(ctx.Client.UserID) {
		return errs.ErrRecordNotFound.Wrap()
	}
	s.router.JoinGroup(req.ChatID, ctx.Client)
	ctx.Client.Enqueue(EncodeEvent("chat:joined", map[string]any{"chatId": req.ChatID}))
	return nil
}

func (s *Server) handleLeave(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[joinReq](data)
	if err != nil {
		return err
	}
	s.router.LeaveGroup(req.ChatID, ctx.Client.ConnID)
	return nil
}

// handleSend 发消息。成功回 message:ack 带 localId，客户端发件箱
// 据此把 pending 翻成 confirmed；策略拒绝会以 error 帧带 code 回去。
func (s *Server) handleSend(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[sendReq](data)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	msg, err := s.consent.SendMessage(cctx, ctx.Client.UserID, consent.SendInput{
		ChatID:      req.ChatID,
		PeerID:      req.PeerID,
		ClientMsgID: req.ClientMsgID,
		ContentType: req.ContentType,
		Content:     req.Content,
	})
	if err != nil {
		return err
	}
	ctx.Client.Enqueue(EncodeEvent("message:ack", map[string]any{
		"localId":   req.LocalID,
		"messageId": msg.MessageID,
		"chatId":    msg.ChatID,
	}))
	return nil
}

func (s *Server) handleMarkRead(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[markReadReq](data)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	return s.receipt.MarkRead(cctx, req.ChatID, ctx.Client.UserID,
		req.LastReadMessageID, time.UnixMilli(req.ReadAt))
}

func (s *Server) handleCallStart(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[callStartReq](data)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()
	name, avatar, perr := s.users.Profile(cctx, ctx.Client.UserID)
	if perr != nil {
		name = ctx.Client.UserID
	}
	callID, err := s.calls.Start(ctx.Client.UserID, req.CalleeID, req.ChatID,
		call.CallerInfo{Name: name, Avatar: avatar})
	if err != nil {
		return err
	}
	ctx.Client.Enqueue(EncodeEvent("call:started", map[string]any{"callId": callID}))
	return nil
}

func (s *Server) handleCallAccept(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[callOpReq](data)
	if err != nil {
		return err
	}
	return s.calls.Accept(req.CallID, ctx.Client.UserID)
}

func (s *Server) handleCallDecline(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[callOpReq](data)
	if err != nil {
		return err
	}
	return s.calls.Decline(req.CallID, ctx.Client.UserID, req.Reason)
}

func (s *Server) handleCallEnd(ctx *Ctx, data map[string]any) error {
	req, err := decode.DecodeMap[callOpReq](data)
	if err != nil {
		return err
	}
	return s.calls.End(req.CallID, ctx.Client.UserID)
}

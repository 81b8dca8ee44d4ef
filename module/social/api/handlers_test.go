package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SProject/global"
	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	"SProject/tools/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader 只带列表接口需要的读面
type fakeReader struct {
	chat *socialmodel.Chat
	msgs []*socialmodel.Message
}

func (f *fakeReader) GetChat(_ context.Context, chatID string) (*socialmodel.Chat, error) {
	if f.chat != nil && f.chat.ChatID == chatID {
		return f.chat, nil
	}
	return nil, nil
}

func (f *fakeReader) ListMessages(context.Context, string, int64) ([]*socialmodel.Message, error) {
	return f.msgs, nil
}

func (f *fakeReader) ListPendingRequests(context.Context, string) ([]*socialmodel.MessageRequest, error) {
	return nil, nil
}

func (f *fakeReader) ListChats(context.Context, string, int64) ([]*socialmodel.Chat, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, rd Reader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(rd, nil, nil, nil, nil).RegisterRoutes(r)
	return r
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := security.Generate(security.DefaultOptions(global.GetJwtSecret()), userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func getJSON(t *testing.T, r *gin.Engine, path, authz string) *global.Msg {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var msg global.Msg
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	return &msg
}

func TestListMessagesMembersOnly(t *testing.T) {
	rd := &fakeReader{
		chat: &socialmodel.Chat{
			ChatID: "c1", ChatType: socialmodel.ChatTypeDirect,
			UserA: "alice", UserB: "bob",
		},
		msgs: []*socialmodel.Message{{MessageID: "m1", ChatID: "c1", SenderID: "alice"}},
	}
	r := newTestRouter(t, rd)

	// 成员可拉
	msg := getJSON(t, r, "/api/message/list?chatId=c1", bearerFor(t, "bob"))
	assert.Equal(t, 200, msg.Code)
	assert.NotNil(t, msg.Data)

	// 非成员带合法 token 也不许旁观
	msg = getJSON(t, r, "/api/message/list?chatId=c1", bearerFor(t, "mallory"))
	assert.Equal(t, errs.RecordNotFoundError, msg.Code)
	assert.Nil(t, msg.Data)

	// 会话不存在同样 1404
	msg = getJSON(t, r, "/api/message/list?chatId=nope", bearerFor(t, "bob"))
	assert.Equal(t, errs.RecordNotFoundError, msg.Code)
}

func TestListMessagesRequiresAuth(t *testing.T) {
	r := newTestRouter(t, &fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/message/list?chatId=c1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

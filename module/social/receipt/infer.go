package receipt

import (
	socialmodel "SProject/module/social/model"
)

// InferSeenBy 把每个其他参与者的已读光标归因到恰好一条消息上，
// 产出 messageId -> 读者列表。语义是“最新已读边界”，不是
// “读到此处为止”的累计集合，每个读者全局至多出现一次。
//
// 归因顺序：
//  1. 光标的 last_read_message_id 精确命中列表里的消息 -> 该消息；
//  2. 否则（消息被撤回/删除）从新到旧找 create_time <= read_at
//     的第一条 -> 该消息；
//  3. 两条路都找不到的读者不产生任何条目。
//
// messages 要求按时间升序（会话的自然回读顺序）。
func InferSeenBy(messages []*socialmodel.Message, marks []*socialmodel.ChatRead, viewerID string) map[string][]string {
	if len(messages) == 0 || len(marks) == 0 {
		return nil
	}
	byID := make(map[string]*socialmodel.Message, len(messages))
	for _, m := range messages {
		byID[m.MessageID] = m
	}

	out := make(map[string][]string)
	for _, mark := range marks {
		if mark.UserID == viewerID {
			continue
		}
		if m, ok := byID[mark.LastReadMessageID]; ok {
			out[m.MessageID] = append(out[m.MessageID], mark.UserID)
			continue
		}
		// 回退：从新到旧找时间边界
		for i := len(messages) - 1; i >= 0; i-- {
			if !messages[i].CreateTime.After(mark.ReadAt) {
				out[messages[i].MessageID] = append(out[messages[i].MessageID], mark.UserID)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package global

// ArchiveTopicKey 消息归档到 Kafka 时的分区 key：同一会话路由到同一分区，
// 保证归档流内会话内有序。
func ArchiveTopicKey(chatID string) string {
	return "chat:" + chatID
}

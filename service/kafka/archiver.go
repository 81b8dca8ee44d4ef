package kafka

import (
	"encoding/json"
	"time"

	"SProject/global"
	"SProject/logger"
	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	"github.com/Shopify/sarama"
)

// 消息归档旁路：发消息主链路落库成功后，把消息异步推进 Kafka，
// 供检索/审计等离线链路消费。按 chatID 做 key，同会话落同分区保序。

const archiveTopic = "social.message.archive"

type Config struct {
	Brokers     []string
	Retries     int
	Compression string // none/snappy/lz4/zstd
}

func buildConfig(cfg Config) *sarama.Config {
	c := sarama.NewConfig()
	c.Version = sarama.V2_1_0_0

	c.Producer.Return.Successes = false
	c.Producer.Return.Errors = true
	c.Producer.RequiredAcks = sarama.WaitForLocal
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	c.Producer.Retry.Max = cfg.Retries
	c.Producer.Partitioner = sarama.NewHashPartitioner // key 控制分区
	switch cfg.Compression {
	case "snappy":
		c.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		c.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		c.Producer.Compression = sarama.CompressionZSTD
	default:
		c.Producer.Compression = sarama.CompressionNone
	}

	c.Net.DialTimeout = 10 * time.Second
	c.Net.ReadTimeout = 30 * time.Second
	c.Net.WriteTimeout = 30 * time.Second
	return c
}

// Archiver 实现 consent.Archiver。异步生产者 + 错误通道打日志，
// 归档失败不回传主链路。
type Archiver struct {
	producer sarama.AsyncProducer
}

func NewArchiver(cfg Config) (*Archiver, error) {
	p, err := sarama.NewAsyncProducer(cfg.Brokers, buildConfig(cfg))
	if err != nil {
		return nil, errs.Wrap(err)
	}
	a := &Archiver{producer: p}
	go func() {
		for perr := range p.Errors() {
			logger.Warnf("[kafka] archive produce failed: %v", perr.Err)
		}
	}()
	return a, nil
}

type archiveRecord struct {
	MessageID   string    `json:"messageId"`
	ChatID      string    `json:"chatId"`
	SenderID    string    `json:"senderId"`
	ContentType int32     `json:"contentType"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *Archiver) Archive(msg *socialmodel.Message) error {
	rec := archiveRecord{
		MessageID:   msg.MessageID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		ContentType: msg.ContentType,
		Content:     msg.Content,
		CreatedAt:   msg.CreateTime,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(err)
	}
	a.producer.Input() <- &sarama.ProducerMessage{
		Topic: archiveTopic,
		Key:   sarama.StringEncoder(global.ArchiveTopicKey(msg.ChatID)),
		Value: sarama.ByteEncoder(payload),
	}
	return nil
}

func (a *Archiver) Close() error {
	return a.producer.Close()
}

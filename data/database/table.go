package database

import "go.mongodb.org/mongo-driver/mongo"

// Table 所有落 mongo 的模型都实现：表名 + 集合句柄
type Table interface {
	GetTableName() string
	Collection() *mongo.Collection
}

package model

import "SProject/data/database"

var (
	_ database.Table = (*Friendship)(nil)
	_ database.Table = (*Chat)(nil)
	_ database.Table = (*MessageRequest)(nil)
	_ database.Table = (*ChatRead)(nil)
	_ database.Table = (*Message)(nil)
)

package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"SProject/global"
	usermodel "SProject/module/user/model"
	"SProject/tools/errs"
	"SProject/tools/ids"
	"SProject/tools/security"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Service 身份层：注册、登录签发 JWT、档案查询。
// 连接层拿 token 换 userId，呼叫震铃拿 userId 换昵称头像。
type Service struct {
	coll *mongo.Collection
}

func NewService() *Service {
	u := usermodel.User{}
	return &Service{coll: u.Collection()}
}

func (s *Service) EnsureIndexes(ctx context.Context) error {
	uniq := options.Index().SetUnique(true)
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: usermodel.UserFieldUserID, Value: 1}}, Options: uniq},
		{Keys: bson.D{{Key: usermodel.UserFieldUsername, Value: 1}}, Options: uniq},
	})
	return errs.Wrap(err)
}

// Register 建用户。用户名撞唯一索引回冲突错误。
func (s *Service) Register(ctx context.Context, username, password, nickname string) (*usermodel.User, error) {
	if username == "" || password == "" {
		return nil, errs.ErrArgs.Wrap()
	}
	salt := newSalt()
	u := &usermodel.User{
		UserID:       ids.GenerateString(),
		Username:     username,
		PasswordHash: hashPassword(password, salt),
		PasswordSalt: salt,
		Nickname:     nickname,
		CreateTime:   time.Now(),
		UpdateTime:   time.Now(),
	}
	if u.Nickname == "" {
		u.Nickname = username
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrConflict.WrapMsg("username taken", "username", username)
		}
		return nil, errs.Wrap(err)
	}
	return u, nil
}

// Login 校验口令并签发 JWT
func (s *Service) Login(ctx context.Context, username, password string) (token string, expireAt time.Time, u *usermodel.User, err error) {
	var doc usermodel.User
	err = s.coll.FindOne(ctx, bson.M{usermodel.UserFieldUsername: username}).Decode(&doc)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return "", time.Time{}, nil, errs.ErrRecordNotFound.Wrap()
	}
	if err != nil {
		return "", time.Time{}, nil, errs.Wrap(err)
	}
	if doc.Status == usermodel.UserBanned {
		return "", time.Time{}, nil, errs.ErrTokenInvalid.WrapMsg("user banned")
	}
	want := hashPassword(password, doc.PasswordSalt)
	if subtle.ConstantTimeCompare([]byte(want), []byte(doc.PasswordHash)) != 1 {
		return "", time.Time{}, nil, errs.ErrTokenInvalid.WrapMsg("bad credentials")
	}
	token, expireAt, err = security.Generate(security.DefaultOptions(global.GetJwtSecret()), doc.UserID)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, expireAt, &doc, nil
}

// Profile 呼叫震铃等场景取展示信息
func (s *Service) Profile(ctx context.Context, userID string) (name, avatar string, err error) {
	var doc usermodel.User
	err = s.coll.FindOne(ctx, bson.M{usermodel.UserFieldUserID: userID}).Decode(&doc)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return "", "", errs.ErrRecordNotFound.Wrap()
	}
	if err != nil {
		return "", "", errs.Wrap(err)
	}
	return doc.Nickname, doc.FaceURL, nil
}

func newSalt() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

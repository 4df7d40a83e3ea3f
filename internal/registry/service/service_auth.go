package service

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/jwt"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 登录与令牌管理
type AuthService struct {
	ctx   *ctx.Context
	store repo.Store
	auth  *httpx.Auth
	rdb   *redis.Client
}

func NewAuthService(ctx *ctx.Context, store repo.Store, auth *httpx.Auth, rdb *redis.Client) *AuthService {
	return &AuthService{
		ctx:   ctx,
		store: store,
		auth:  auth,
		rdb:   rdb,
	}
}

// LoginResult 登录结果
type LoginResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login 用户名密码登录，签发 JWT 并把 access_token 写入 redis
func (s *AuthService) Login(req *model.LoginReq) (*LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, Validationf("username and password are required")
	}

	user, err := s.store.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, Forbiddenf("incorrect username or password")
		}
		return nil, Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, Forbiddenf("incorrect username or password")
	}

	aToken, rToken, err := jwt.GenToken(user.Id, []byte(s.auth.SecretKey), s.auth.AccessExpire, s.auth.RefreshExpire)
	if err != nil {
		return nil, Internal(err)
	}

	if s.rdb != nil {
		key := s.auth.RedisKeyPrefix + user.Id
		if err := s.rdb.Set(s.ctx.ContextIns(), key, aToken, s.auth.AccessExpire).Err(); err != nil {
			return nil, Internal(err)
		}
	}

	log.Infow("user logged in", "userId", user.Id, "username", user.Username)
	return &LoginResult{
		User:         user,
		AccessToken:  aToken,
		RefreshToken: rToken,
	}, nil
}

// Logout 删除 redis 里的 access_token
func (s *AuthService) Logout(userId string) error {
	if s.rdb == nil {
		return nil
	}
	key := s.auth.RedisKeyPrefix + userId
	if err := s.rdb.Del(s.ctx.ContextIns(), key).Err(); err != nil {
		return Internal(err)
	}
	return nil
}

// Refresh 用 refresh_token 换新令牌对
func (s *AuthService) Refresh(userId, refreshToken string) (map[string]string, error) {
	tokens, err := jwt.RefreshToken(s.auth, userId, refreshToken)
	if err != nil {
		return nil, Forbiddenf("refresh failed: %v", err)
	}
	if s.rdb != nil {
		key := s.auth.RedisKeyPrefix + userId
		if err := s.rdb.Set(s.ctx.ContextIns(), key, tokens["accessToken"], s.auth.AccessExpire).Err(); err != nil {
			return nil, Internal(err)
		}
	}
	return tokens, nil
}

// CurrentUser 当前登录用户
func (s *AuthService) CurrentUser(userId string) (*model.User, error) {
	user, err := s.store.GetUserById(userId)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, Internal(err)
	}
	return user, nil
}

// HashPassword 注册和初始化管理员时使用
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

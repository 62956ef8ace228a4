package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/service"
	"github.com/d60-Lab/action-trace/pkg/response"
)

// Handler 聚合全部 HTTP 入口依赖
type Handler struct {
	actions   map[string]*service.ActionService
	userSvc   *service.UserService
	jwtSecret string
	jwtTTL    int64 // 秒
}

type Options struct {
	Create, Like, Follow, View, Invite *service.ActionService
	Users                              *service.UserService
	JWTSecret                          string
	JWTTTLSeconds                      int64
}

func New(opts Options) *Handler {
	return &Handler{
		actions: map[string]*service.ActionService{
			model.KindCreate.String(): opts.Create,
			model.KindLike.String():   opts.Like,
			model.KindFollow.String(): opts.Follow,
			model.KindView.String():   opts.View,
			model.KindInvite.String(): opts.Invite,
		},
		userSvc:   opts.Users,
		jwtSecret: opts.JWTSecret,
		jwtTTL:    opts.JWTTTLSeconds,
	}
}

// action 按路由参数取对应行为门面
func (h *Handler) action(c *gin.Context) (*service.ActionService, bool) {
	svc, ok := h.actions[c.Param("kind")]
	if !ok || svc == nil {
		response.NotFound(c, "unknown action kind")
		return nil, false
	}
	return svc, true
}

// fail 服务层错误 → HTTP 映射；未知错误一律 500 且不外漏细节
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAlreadyRecorded),
		errors.Is(err, service.ErrNotRecorded):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredential):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUserExists):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

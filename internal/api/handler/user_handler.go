package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/action-trace/internal/api/middleware"
	"github.com/d60-Lab/action-trace/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
// @Summary 用户注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": u.ID, "username": u.Username})
}

// Login 登录换 token
// @Summary 用户登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := middleware.IssueToken(h.jwtSecret, u.ID, time.Duration(h.jwtTTL)*time.Second)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "user_id": u.ID})
}

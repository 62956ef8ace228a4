package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/action-trace/internal/api/middleware"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/service"
	"github.com/d60-Lab/action-trace/pkg/response"
	"github.com/d60-Lab/action-trace/pkg/utils"
)

// RemindCount 提醒总数（已读+未读）
// @Summary 提醒总数
// @Tags 提醒
// @Param kind path string true "动作类型"
// @Param resource_type query string false "按资源类型过滤"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/reminds/{kind}/count [get]
func (h *Handler) RemindCount(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	rtype, _ := model.ParseResourceType(c.Query("resource_type"))
	n, err := svc.RemindCount(c.Request.Context(), middleware.UserID(c), rtype)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// UnreadRemindCount 未读提醒数
// @Summary 未读提醒数
// @Tags 提醒
// @Param kind path string true "动作类型"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/reminds/{kind}/unread_count [get]
func (h *Handler) UnreadRemindCount(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	rtype, _ := model.ParseResourceType(c.Query("resource_type"))
	n, err := svc.UnreadRemindCount(c.Request.Context(), middleware.UserID(c), rtype)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// RemindList 提醒列表
// @Summary 提醒列表
// @Tags 提醒
// @Param kind path string true "动作类型"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/reminds/{kind}/list [get]
func (h *Handler) RemindList(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	rtype, _ := model.ParseResourceType(c.Query("resource_type"))
	page := service.PageOptions{
		Page:     utils.AtoiDefault(c.Query("page"), 1),
		PageSize: utils.AtoiDefault(c.Query("page_size"), 10),
	}
	items, total, err := svc.RemindList(c.Request.Context(), middleware.UserID(c), rtype, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": items, "total": total, "page": page.Page, "page_size": page.PageSize})
}

// MarkRead 批量已读
// @Summary 当前用户的该类提醒全部置为已读
// @Tags 提醒
// @Param kind path string true "动作类型"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/reminds/{kind}/read [put]
func (h *Handler) MarkRead(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	rtype, _ := model.ParseResourceType(c.Query("resource_type"))
	n, err := svc.MarkRead(c.Request.Context(), middleware.UserID(c), rtype)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

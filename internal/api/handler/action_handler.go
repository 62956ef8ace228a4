package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/action-trace/internal/api/middleware"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/service"
	"github.com/d60-Lab/action-trace/pkg/response"
	"github.com/d60-Lab/action-trace/pkg/utils"
)

type actionRequest struct {
	ResourceType string `json:"resource_type" binding:"required,rtype"`
	ResourceID   string `json:"resource_id" binding:"required"`
	SecondaryID  string `json:"secondary_id"`
	ParentType   string `json:"parent_type" binding:"omitempty,rtype"`
	Anonymous    bool   `json:"anonymous"`
}

func (r actionRequest) toRef() service.ActionRef {
	rt, _ := model.ParseResourceType(r.ResourceType)
	pt, _ := model.ParseResourceType(r.ParentType)
	return service.ActionRef{Type: rt, ID: r.ResourceID, SecondaryID: r.SecondaryID, ParentType: pt, Anonymous: r.Anonymous}
}

// refFromQuery 读路径用 query 传目标
func refFromQuery(c *gin.Context) (service.ActionRef, bool) {
	rt, ok := model.ParseResourceType(c.Query("resource_type"))
	if !ok {
		response.BadRequest(c, "invalid resource_type")
		return service.ActionRef{}, false
	}
	pt, _ := model.ParseResourceType(c.Query("parent_type"))
	return service.ActionRef{
		Type:        rt,
		ID:          c.Query("resource_id"),
		SecondaryID: c.Query("secondary_id"),
		ParentType:  pt,
	}, true
}

// Do 执行动作
// @Summary 执行动作（点赞/关注/浏览/邀请/创建流水）
// @Tags 行为
// @Accept json
// @Produce json
// @Param kind path string true "动作类型" Enums(create, like, follow, view, invite)
// @Param request body actionRequest true "目标资源"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/actions/{kind} [post]
func (h *Handler) Do(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	traceID, err := svc.Do(c.Request.Context(), middleware.UserID(c), req.toRef())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"trace_id": traceID})
}

// Undo 撤销动作
// @Summary 撤销动作
// @Tags 行为
// @Accept json
// @Produce json
// @Param kind path string true "动作类型" Enums(create, like, follow, view, invite)
// @Param request body actionRequest true "目标资源"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/actions/{kind}/undo [post]
func (h *Handler) Undo(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := svc.Undo(c.Request.Context(), middleware.UserID(c), req.toRef()); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Has 是否做过该动作
// @Summary 查询当前用户是否做过该动作
// @Tags 行为
// @Param kind path string true "动作类型"
// @Param resource_type query string true "资源类型"
// @Param resource_id query string true "资源ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/actions/{kind}/has [get]
func (h *Handler) Has(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	ref, ok := refFromQuery(c)
	if !ok {
		return
	}
	has, err := svc.Has(c.Request.Context(), middleware.UserID(c), ref)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"has": has})
}

// HasRemind 该动作派生的提醒是否有效
// @Summary 查询该动作派生的提醒是否有效
// @Tags 行为
// @Param kind path string true "动作类型"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/actions/{kind}/has_remind [get]
func (h *Handler) HasRemind(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	ref, ok := refFromQuery(c)
	if !ok {
		return
	}
	has, err := svc.HasRemind(c.Request.Context(), middleware.UserID(c), ref)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"has_remind": has})
}

// Count 计数
// @Summary 动作计数（资源维度走计数缓存，actor_id 维度直查账本）
// @Tags 行为
// @Param kind path string true "动作类型"
// @Param resource_type query string true "资源类型"
// @Param resource_id query string false "资源ID"
// @Param actor_id query string false "操作者ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/actions/{kind}/count [get]
func (h *Handler) Count(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	ref, ok := refFromQuery(c)
	if !ok {
		return
	}
	n, err := svc.Count(c.Request.Context(), c.Query("actor_id"), ref)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// List 流水列表
// @Summary 动作流水列表
// @Tags 行为
// @Param kind path string true "动作类型"
// @Param resource_type query string false "资源类型"
// @Param resource_id query string false "资源ID"
// @Param actor_id query string false "操作者ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/actions/{kind}/list [get]
func (h *Handler) List(c *gin.Context) {
	svc, ok := h.action(c)
	if !ok {
		return
	}
	rt, _ := model.ParseResourceType(c.Query("resource_type"))
	ref := service.ActionRef{
		Type:        rt,
		ID:          c.Query("resource_id"),
		SecondaryID: c.Query("secondary_id"),
	}
	page := service.PageOptions{
		Page:      utils.AtoiDefault(c.Query("page"), 1),
		PageSize:  utils.AtoiDefault(c.Query("page_size"), 10),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	items, total, err := svc.List(c.Request.Context(), c.Query("actor_id"), ref, page)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": items, "total": total, "page": page.Page, "page_size": page.PageSize})
}

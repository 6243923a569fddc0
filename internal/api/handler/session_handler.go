package handler

import (
	"github.com/gin-gonic/gin"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/service"
	"rdo-fidel/backend/pkg/response"
)

// SessionHandler 日报草稿 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// reply 统一输出草稿响应；部分失败时错误响应的 details 带上已保存的草稿
func (h *SessionHandler) reply(c *gin.Context, resp *dto.SessionResponse, err error) {
	if err != nil {
		handleSessionError(c, err, resp)
		return
	}
	response.OK(c, resp)
}

// ════════════════════════════════════════════════════════════
// 会话
// ════════════════════════════════════════════════════════════

// Open 新建日报草稿
// POST /api/v1/sessions
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.sessionSvc.Open(c.Request.Context(), &req, callerID)
	if err != nil {
		handleSessionError(c, err, resp)
		return
	}

	response.Created(c, resp)
}

// Get 获取草稿
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	resp, err := h.sessionSvc.Get(c.Request.Context(), c.Param("id"))
	h.reply(c, resp, err)
}

// Discard 丢弃草稿
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) Discard(c *gin.Context) {
	if err := h.sessionSvc.Discard(c.Request.Context(), c.Param("id")); err != nil {
		handleSessionError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// SetDate 设置报告日期，随后拉取天气
// PUT /api/v1/sessions/:id/date
func (h *SessionHandler) SetDate(c *gin.Context) {
	var req dto.SetDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetDate(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// RefreshWeather 重新拉取天气
// POST /api/v1/sessions/:id/weather/refresh
func (h *SessionHandler) RefreshWeather(c *gin.Context) {
	resp, err := h.sessionSvc.RefreshWeather(c.Request.Context(), c.Param("id"))
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 名单
// ════════════════════════════════════════════════════════════

// RefreshSupervisors 重新拉取主管列表
// POST /api/v1/sessions/:id/supervisors/refresh
func (h *SessionHandler) RefreshSupervisors(c *gin.Context) {
	resp, err := h.sessionSvc.RefreshSupervisors(c.Request.Context(), c.Param("id"))
	h.reply(c, resp, err)
}

// SelectSupervisor 选择主管
// PUT /api/v1/sessions/:id/supervisor
func (h *SessionHandler) SelectSupervisor(c *gin.Context) {
	var req dto.SelectSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SelectSupervisor(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// SelectForeman 选择工长，载入班组名单
// PUT /api/v1/sessions/:id/foreman
func (h *SessionHandler) SelectForeman(c *gin.Context) {
	var req dto.SelectForemanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SelectForeman(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 出勤与确认
// ════════════════════════════════════════════════════════════

// SetStatus 设置成员出勤状态
// PUT /api/v1/sessions/:id/roster/:memberId/status
func (h *SessionHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetStatus(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// SetDestination 设置调出/借调目标班组
// PUT /api/v1/sessions/:id/roster/:memberId/destination
func (h *SessionHandler) SetDestination(c *gin.Context) {
	var req dto.SetDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetDestination(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// AvailableMethods 成员可用的确认方式
// GET /api/v1/sessions/:id/roster/:memberId/methods
func (h *SessionHandler) AvailableMethods(c *gin.Context) {
	resp, err := h.sessionSvc.AvailableMethods(c.Request.Context(), c.Param("id"), c.Param("memberId"))
	if err != nil {
		handleSessionError(c, err, nil)
		return
	}

	response.OK(c, resp)
}

// BeginConfirmation 开始确认流程
// POST /api/v1/sessions/:id/roster/:memberId/confirmation
func (h *SessionHandler) BeginConfirmation(c *gin.Context) {
	var req dto.BeginConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.BeginConfirmation(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// Confirm 提交确认结果
// POST /api/v1/sessions/:id/roster/:memberId/confirmation/submit
func (h *SessionHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.Confirm(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// CancelConfirmation 取消进行中的确认
// DELETE /api/v1/sessions/:id/roster/:memberId/confirmation
func (h *SessionHandler) CancelConfirmation(c *gin.Context) {
	resp, err := h.sessionSvc.CancelConfirmation(c.Request.Context(), c.Param("id"), c.Param("memberId"))
	h.reply(c, resp, err)
}

// MarkHardwareUnavailable 记录设备不可用
// POST /api/v1/sessions/:id/roster/:memberId/hardware-unavailable
func (h *SessionHandler) MarkHardwareUnavailable(c *gin.Context) {
	var req dto.HardwareUnavailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.MarkHardwareUnavailable(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 作业
// ════════════════════════════════════════════════════════════

// AddActivity 新增作业
// POST /api/v1/sessions/:id/activities
func (h *SessionHandler) AddActivity(c *gin.Context) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.AddActivity(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// UpdateActivity 修改作业
// PUT /api/v1/sessions/:id/activities/:activityId
func (h *SessionHandler) UpdateActivity(c *gin.Context) {
	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.UpdateActivity(c.Request.Context(), c.Param("id"), c.Param("activityId"), &req)
	h.reply(c, resp, err)
}

// SetActivitySpan 修改作业时间段
// PUT /api/v1/sessions/:id/activities/:activityId/span
func (h *SessionHandler) SetActivitySpan(c *gin.Context) {
	var req dto.SpanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetActivitySpan(c.Request.Context(), c.Param("id"), c.Param("activityId"), &req)
	h.reply(c, resp, err)
}

// AddActivityMember 把成员加入作业
// POST /api/v1/sessions/:id/activities/:activityId/members/:memberId
func (h *SessionHandler) AddActivityMember(c *gin.Context) {
	resp, err := h.sessionSvc.AddActivityMember(c.Request.Context(), c.Param("id"), c.Param("activityId"), c.Param("memberId"))
	h.reply(c, resp, err)
}

// SetActivityHours 修改成员作业工时
// PUT /api/v1/sessions/:id/activities/:activityId/members/:memberId/hours
func (h *SessionHandler) SetActivityHours(c *gin.Context) {
	var req dto.HoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetActivityHours(c.Request.Context(), c.Param("id"), c.Param("activityId"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// SetActivityMemberActive 启用/停用成员分配
// PUT /api/v1/sessions/:id/activities/:activityId/members/:memberId/active
func (h *SessionHandler) SetActivityMemberActive(c *gin.Context) {
	var req dto.MemberActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetActivityMemberActive(c.Request.Context(), c.Param("id"), c.Param("activityId"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// DistributeActivityHours 按时间段重置全部成员工时
// POST /api/v1/sessions/:id/activities/:activityId/distribute
func (h *SessionHandler) DistributeActivityHours(c *gin.Context) {
	resp, err := h.sessionSvc.DistributeActivityHours(c.Request.Context(), c.Param("id"), c.Param("activityId"))
	h.reply(c, resp, err)
}

// RemoveActivity 删除作业
// DELETE /api/v1/sessions/:id/activities/:activityId
func (h *SessionHandler) RemoveActivity(c *gin.Context) {
	resp, err := h.sessionSvc.RemoveActivity(c.Request.Context(), c.Param("id"), c.Param("activityId"))
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 事件
// ════════════════════════════════════════════════════════════

// AddIncident 新增事件
// POST /api/v1/sessions/:id/incidents
func (h *SessionHandler) AddIncident(c *gin.Context) {
	var req dto.IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.AddIncident(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// UpdateIncident 修改事件
// PUT /api/v1/sessions/:id/incidents/:incidentId
func (h *SessionHandler) UpdateIncident(c *gin.Context) {
	var req dto.IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.UpdateIncident(c.Request.Context(), c.Param("id"), c.Param("incidentId"), &req)
	h.reply(c, resp, err)
}

// SetIncidentSpan 修改事件时间段
// PUT /api/v1/sessions/:id/incidents/:incidentId/span
func (h *SessionHandler) SetIncidentSpan(c *gin.Context) {
	var req dto.SpanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetIncidentSpan(c.Request.Context(), c.Param("id"), c.Param("incidentId"), &req)
	h.reply(c, resp, err)
}

// MarkAffected 标记/取消单个受影响成员
// PUT /api/v1/sessions/:id/incidents/:incidentId/affected/:memberId
func (h *SessionHandler) MarkAffected(c *gin.Context) {
	var req dto.AffectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.MarkAffected(c.Request.Context(), c.Param("id"), c.Param("incidentId"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// MarkAllAffected 标记/取消全部出勤成员
// PUT /api/v1/sessions/:id/incidents/:incidentId/affected
func (h *SessionHandler) MarkAllAffected(c *gin.Context) {
	var req dto.AffectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.MarkAllAffected(c.Request.Context(), c.Param("id"), c.Param("incidentId"), &req)
	h.reply(c, resp, err)
}

// SetAffectedHours 修改受影响成员的损失工时
// PUT /api/v1/sessions/:id/incidents/:incidentId/affected/:memberId/hours
func (h *SessionHandler) SetAffectedHours(c *gin.Context) {
	var req dto.HoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetAffectedHours(c.Request.Context(), c.Param("id"), c.Param("incidentId"), c.Param("memberId"), &req)
	h.reply(c, resp, err)
}

// DistributeIncidentHours 按时间段重置受影响成员工时
// POST /api/v1/sessions/:id/incidents/:incidentId/distribute
func (h *SessionHandler) DistributeIncidentHours(c *gin.Context) {
	resp, err := h.sessionSvc.DistributeIncidentHours(c.Request.Context(), c.Param("id"), c.Param("incidentId"))
	h.reply(c, resp, err)
}

// RemoveIncident 删除事件
// DELETE /api/v1/sessions/:id/incidents/:incidentId
func (h *SessionHandler) RemoveIncident(c *gin.Context) {
	resp, err := h.sessionSvc.RemoveIncident(c.Request.Context(), c.Param("id"), c.Param("incidentId"))
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 照片、PTS、备注与签字
// ════════════════════════════════════════════════════════════

// AddPhoto 添加报告照片
// POST /api/v1/sessions/:id/photos
func (h *SessionHandler) AddPhoto(c *gin.Context) {
	var req dto.PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.AddPhoto(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// RemovePhoto 删除报告照片
// DELETE /api/v1/sessions/:id/photos/:photoId
func (h *SessionHandler) RemovePhoto(c *gin.Context) {
	resp, err := h.sessionSvc.RemovePhoto(c.Request.Context(), c.Param("id"), c.Param("photoId"))
	h.reply(c, resp, err)
}

// AddIncidentPhoto 添加事件照片
// POST /api/v1/sessions/:id/incidents/:incidentId/photos
func (h *SessionHandler) AddIncidentPhoto(c *gin.Context) {
	var req dto.PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.AddIncidentPhoto(c.Request.Context(), c.Param("id"), c.Param("incidentId"), &req)
	h.reply(c, resp, err)
}

// RemoveIncidentPhoto 删除事件照片
// DELETE /api/v1/sessions/:id/incidents/:incidentId/photos/:photoId
func (h *SessionHandler) RemoveIncidentPhoto(c *gin.Context) {
	resp, err := h.sessionSvc.RemoveIncidentPhoto(c.Request.Context(), c.Param("id"), c.Param("incidentId"), c.Param("photoId"))
	h.reply(c, resp, err)
}

// SetPTS 设置作业许可
// PUT /api/v1/sessions/:id/pts
func (h *SessionHandler) SetPTS(c *gin.Context) {
	var req dto.PTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetPTS(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// SetNotes 设置备注
// PUT /api/v1/sessions/:id/notes
func (h *SessionHandler) SetNotes(c *gin.Context) {
	var req dto.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetNotes(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// SetSignature 主管签字
// PUT /api/v1/sessions/:id/signature
func (h *SessionHandler) SetSignature(c *gin.Context) {
	var req dto.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	resp, err := h.sessionSvc.SetSignature(c.Request.Context(), c.Param("id"), &req)
	h.reply(c, resp, err)
}

// ClearSignature 清除主管签字
// DELETE /api/v1/sessions/:id/signature
func (h *SessionHandler) ClearSignature(c *gin.Context) {
	resp, err := h.sessionSvc.ClearSignature(c.Request.Context(), c.Param("id"))
	h.reply(c, resp, err)
}

// ════════════════════════════════════════════════════════════
// 定稿
// ════════════════════════════════════════════════════════════

// Finalize 校验、分配编号并写入报告
// POST /api/v1/sessions/:id/finalize
func (h *SessionHandler) Finalize(c *gin.Context) {
	result, err := h.sessionSvc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSessionError(c, err, nil)
		return
	}

	response.Created(c, result)
}

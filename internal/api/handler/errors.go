package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/service"
	apperrors "rdo-fidel/backend/pkg/errors"
	"rdo-fidel/backend/pkg/response"
)

// 记录不存在，返回 404
var notFoundErrs = []error{
	service.ErrSessionNotFound,
	service.ErrSiteNotFound,
	report.ErrMemberNotOnRoster,
	report.ErrActivityNotFound,
	report.ErrIncidentNotFound,
	report.ErrAllocationNotFound,
	report.ErrPhotoNotFound,
}

// 请求内容或当前流程状态不允许该操作，返回 400，message 为错误原文
var badRequestErrs = []error{
	service.ErrInvalidDate,
	service.ErrInvalidImage,
	service.ErrImageRequired,
	report.ErrInvalidStatus,
	report.ErrInvalidMethod,
	report.ErrMethodNotAvailable,
	report.ErrNotPresent,
	report.ErrNoPendingMethod,
	report.ErrMethodMismatch,
	report.ErrAlreadyConfirmed,
	report.ErrBlankSignature,
	report.ErrEmptyCapture,
	report.ErrDestinationRequired,
	report.ErrDestinationNotAllowed,
	report.ErrMemberNotEligible,
	report.ErrAllocationInactive,
	report.ErrDurationUnknown,
	report.ErrHoursOutOfRange,
	report.ErrInvalidClassification,
	report.ErrInvalidTimeOfDay,
	report.ErrSupervisorRequired,
	report.ErrSiteRequired,
	report.ErrDateRequired,
	report.ErrInvalidPhoto,
	report.ErrPhotoTooLarge,
}

// 所选人员不在上一级解析出的列表中，返回 422
var hierarchyErrs = []error{
	report.ErrSupervisorNotListed,
	report.ErrForemanNotListed,
}

func matchAny(err error, targets []error) (error, bool) {
	for _, t := range targets {
		if errors.Is(err, t) {
			return t, true
		}
	}
	return nil, false
}

// sessionDetails 部分失败时草稿已保存，随错误一起返回
func sessionDetails(resp *dto.SessionResponse) interface{} {
	if resp == nil {
		return nil
	}
	return resp
}

// handleSessionError 日报草稿错误映射
func handleSessionError(c *gin.Context, err error, resp *dto.SessionResponse) {
	var verr *report.ValidationError
	var mismatch *report.TagMismatchError

	if t, ok := matchAny(err, notFoundErrs); ok {
		response.NotFound(c, 20101, t.Error())
		return
	}
	if t, ok := matchAny(err, badRequestErrs); ok {
		response.BadRequest(c, 20102, t.Error())
		return
	}
	if t, ok := matchAny(err, hierarchyErrs); ok {
		response.Unprocessable(c, 20112, t.Error(), nil)
		return
	}

	switch {
	case errors.As(err, &verr):
		response.Unprocessable(c, 20103, "报告校验未通过", verr.Problems)
	case errors.As(err, &mismatch):
		response.Unprocessable(c, 20104, "工牌不匹配，请重新读卡或换用其他方式", gin.H{
			"expected": mismatch.Expected,
			"received": mismatch.Received,
		})
	case errors.Is(err, report.ErrSessionFinalized):
		response.Conflict(c, 20105, "报告已定稿，不可修改")
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.Conflict(c, 20106, "草稿已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrNumberConflict):
		response.Conflict(c, 20107, "报告编号已被占用，请重新定稿")
	case errors.Is(err, report.ErrDateOutOfRange):
		response.Unprocessable(c, 20108, "日期超出天气预报范围，天气需手工补录", sessionDetails(resp))
	case errors.Is(err, report.ErrTransientFetch):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 20109, "外部数据暂时不可用，请重试", sessionDetails(resp))
	case errors.Is(err, report.ErrHardwareUnavailable):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 20110, "设备不可用，请改用其他确认方式", sessionDetails(resp))
	case errors.Is(err, service.ErrReportPersistFailed):
		response.Error(c, http.StatusInternalServerError, 20111, "报告保存失败，请稍后重试")
	default:
		response.InternalError(c)
	}
}

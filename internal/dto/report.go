package dto

// ── 已定稿报告 DTO ──

// ReportListRequest 报告列表查询参数
type ReportListRequest struct {
	SiteID   string `form:"site_id"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
	Number   string `form:"number"    binding:"omitempty,max=8"`
	Page     int    `form:"page"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ReportSummaryResponse 报告列表项
type ReportSummaryResponse struct {
	ID            string  `json:"id"`
	SiteID        string  `json:"site_id"`
	SiteName      string  `json:"site_name"`
	Number        string  `json:"number"`
	Date          string  `json:"date"`
	SupervisorID  string  `json:"supervisor_id,omitempty"`
	ForemanID     string  `json:"foreman_id,omitempty"`
	Collaborators int     `json:"collaborators"`
	Activities    int     `json:"activities"`
	TotalHours    float64 `json:"total_hours"`
	LostHours     float64 `json:"lost_hours"`
	PTSRequired   bool    `json:"pts_required"`
	FinalizedAt   string  `json:"finalized_at"`
}

// ReportTotalsResponse 筛选结果汇总
type ReportTotalsResponse struct {
	Reports       int64   `json:"reports"`
	Collaborators int64   `json:"collaborators"`
	TotalHours    float64 `json:"total_hours"`
	LostHours     float64 `json:"lost_hours"`
	Activities    int64   `json:"activities"`
}

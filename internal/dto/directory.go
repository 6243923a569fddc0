package dto

// ── 参考数据 DTO ──

// SiteResponse 工地信息
type SiteResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CatalogRequest 作业目录逐级查询：不带参数返回专业，带专业返回子专业，两者都带返回工序
type CatalogRequest struct {
	Discipline    string `form:"discipline"`
	SubDiscipline string `form:"sub_discipline"`
}

// IncidentTypesRequest 事件类型查询
type IncidentTypesRequest struct {
	Classification string `form:"classification" binding:"required"`
}

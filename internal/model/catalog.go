package model

// ServiceType 报告的计量类型
type ServiceType string

const (
	ServiceWater   ServiceType = "water"
	ServiceGas     ServiceType = "gas"
	ServiceUnknown ServiceType = "unknown"
)

// DefaultAlertBudget 每份报告的告警预算
const DefaultAlertBudget = 20

// PeriodFolder 周期文件夹（例如 "10 - Outubro - 2025"）
type PeriodFolder struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
	ReportCount  int    `json:"reportCount"`
}

// ReportFile 报告文件及其分类
type ReportFile struct {
	ID                        string      `json:"id"`
	Name                      string      `json:"name"`
	FileName                  string      `json:"fileName"`
	Date                      string      `json:"date"`
	PeriodID                  string      `json:"periodId"`
	Status                    StatusTier  `json:"status"`
	HighConsumptionUnitsCount int         `json:"highConsumptionUnitsCount"`
	AlertBudget               int         `json:"alertBudget"`
	ServiceType               ServiceType `json:"serviceType"`
	ModifiedTime              string      `json:"modifiedTime,omitempty"`
}

// AlertsOverview 某周期的告警汇总
type AlertsOverview struct {
	PeriodID   string       `json:"periodId"`
	LatestDate string       `json:"latestDate"`
	Error      []ReportFile `json:"error"`
	Alert      []ReportFile `json:"alert"`
}

// RunLog 一次批量分类的执行记录
type RunLog struct {
	ID          string `json:"id"`
	PeriodID    string `json:"periodId"`
	Total       int    `json:"total"`
	CacheHits   int    `json:"cacheHits"`
	Computed    int    `json:"computed"`
	Failed      int    `json:"failed"`
	Status      string `json:"status"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt,omitempty"`
}

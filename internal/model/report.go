package model

// StatusTier 报告告警等级
type StatusTier string

const (
	StatusNormal StatusTier = "normal"
	StatusAlert  StatusTier = "alert"
	StatusError  StatusTier = "error"
)

// ReportClassification 报告分类结果
type ReportClassification struct {
	Status                    StatusTier `json:"status"`
	HighConsumptionUnitsCount int        `json:"highConsumptionUnitsCount"`
}

// DefaultClassification 解析失败时的安全默认值
func DefaultClassification() ReportClassification {
	return ReportClassification{Status: StatusNormal}
}

// UnitRecord 单个计量单元的读数记录（创建后不再修改）
type UnitRecord struct {
	ID                string            `json:"id"`
	Unidade           string            `json:"unidade"`
	NumeroSerie       string            `json:"numeroSerie,omitempty"`
	Dispositivo       string            `json:"dispositivo,omitempty"`
	DataLeitura       string            `json:"dataLeitura,omitempty"`
	LeituraAnterior   float64           `json:"leituraAnterior"`
	LeituraAtual      float64           `json:"leituraAtual"`
	Consumo           float64           `json:"consumo"`
	Projecao30Dias    float64           `json:"projecao30Dias"`
	Tendencia         string            `json:"tendencia"`
	IsHighConsumption bool              `json:"isHighConsumption"`
	SideFields        map[string]string `json:"sideFields,omitempty"`
}

// ReportDetails 报告详情
type ReportDetails struct {
	ID                        string       `json:"id"`
	Name                      string       `json:"name"`
	TotalUnits                int          `json:"totalUnits"`
	HighConsumptionUnitsCount int          `json:"highConsumptionUnitsCount"`
	AverageConsumption        float64      `json:"averageConsumption"`
	Status                    StatusTier   `json:"status"`
	Units                     []UnitRecord `json:"units"`
}

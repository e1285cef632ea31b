package classifier

import "github.com/Techmetria-Diego/IoT-Monitor/internal/model"

// 告警等级阈值：超过 errorThreshold 个高消耗单元为 error
const errorThreshold = 2

// TierFor 根据高消耗单元数推导告警等级
func TierFor(count int) model.StatusTier {
	switch {
	case count > errorThreshold:
		return model.StatusError
	case count > 0:
		return model.StatusAlert
	default:
		return model.StatusNormal
	}
}

// Classify 统计高消耗单元并给出分类，空输入为 normal
func Classify(units []model.UnitRecord) model.ReportClassification {
	count := 0
	for _, u := range units {
		if u.IsHighConsumption {
			count++
		}
	}
	return model.ReportClassification{Status: TierFor(count), HighConsumptionUnitsCount: count}
}

// AverageConsumption 平均消耗量
func AverageConsumption(units []model.UnitRecord) float64 {
	if len(units) == 0 {
		return 0
	}
	total := 0.0
	for _, u := range units {
		total += u.Consumo
	}
	return total / float64(len(units))
}

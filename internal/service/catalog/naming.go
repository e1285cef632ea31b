package catalog

import (
	"regexp"
	"strings"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// DefaultExcludeSubstring 保留名称，含该子串的文件夹与文件不参与统计
const DefaultExcludeSubstring = "servicepoints-techmetria"

// 周期文件夹之外被忽略的根目录子文件夹
const baseFolderName = "Base"

var (
	periodFolderRe = regexp.MustCompile(`(?i)^\d{2}\s-\s[\p{L}\d_\s]+ - \d{4}$`)
	dailyFolderRe  = regexp.MustCompile(`^\d{2}_\d{2}_\d{4}$`)
	twoDigitRe     = regexp.MustCompile(`^\d{2}$`)
	xlsxSuffixRe   = regexp.MustCompile(`(?i)\.xlsx$`)
)

// IsPeriodFolder 例如 "10 - Outubro - 2025"
func IsPeriodFolder(name string) bool {
	return periodFolderRe.MatchString(name)
}

// IsDailyFolder 例如 "15_10_2025"
func IsDailyFolder(name string) bool {
	return dailyFolderRe.MatchString(name)
}

// ReportName 从文件名提取报告（condomínio）名称：
// "Residencial_Aurora_água_15_10.xlsx" → "Residencial Aurora"
func ReportName(filename string) string {
	base := strings.TrimSpace(xlsxSuffixRe.ReplaceAllString(filename, ""))
	var parts []string
	for _, part := range strings.Split(base, "_") {
		lower := strings.ToLower(part)
		if lower == "água" || lower == "gas" || lower == "gás" || twoDigitRe.MatchString(part) {
			break
		}
		parts = append(parts, part)
	}
	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		return name
	}
	return base
}

// ServiceTypeOf 根据文件名判断计量类型
func ServiceTypeOf(filename string) model.ServiceType {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "_água"):
		return model.ServiceWater
	case strings.Contains(lower, "_gás"):
		return model.ServiceGas
	default:
		return model.ServiceUnknown
	}
}

// DateFromDailyFolder "15_10_2025" → "15/10/2025"
func DateFromDailyFolder(name string) string {
	return strings.ReplaceAll(name, "_", "/")
}

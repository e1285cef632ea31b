package v1

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/exporter"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// buildContentDisposition ASCII 文件名 + RFC 5987 原始文件名
func buildContentDisposition(name string) string {
	ascii := unsafeFileChars.ReplaceAllString(name, "-")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(name))
}

func (h *Handler) writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("[api] 写入导出文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook", "kind": "internal"})
		return
	}
	c.Header("Content-Disposition", buildContentDisposition(filename))
	c.Data(http.StatusOK, exporter.ContentType, buf.Bytes())
}

// ExportAlerts 导出周期告警汇总
// GET /api/periods/:id/alerts/export
func (h *Handler) ExportAlerts(c *gin.Context) {
	overview, err := h.catalog.Alerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.export.ExportAlerts(overview)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.writeWorkbook(c, f, "alertas-"+overview.PeriodID+".xlsx")
}

// ExportReport 导出单报告明细
// GET /api/reports/:id/export
func (h *Handler) ExportReport(c *gin.Context) {
	details, err := h.catalog.ReportDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.export.ExportDetails(details)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := details.Name
	if name == "" {
		name = details.ID
	}
	h.writeWorkbook(c, f, name+".xlsx")
}

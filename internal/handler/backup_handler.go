package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/habittrack/internal/service"
	"go.uber.org/zap"
)

// ExportCSV 以下载附件形式返回全量 CSV 导出。
func (a *API) ExportCSV(c *gin.Context) {
	content, err := a.backups.ExportCSV()
	if err != nil {
		a.logger.Error("export csv", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CSV 내보내기에 실패했습니다.")
		return
	}

	attachDownload(c, a.backups.CSVFileName())
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}

// ImportCSV 从上传文件或请求体读取 CSV 并逐行合并。
func (a *API) ImportCSV(c *gin.Context) {
	content, ok := a.readImportPayload(c)
	if !ok {
		return
	}

	if err := a.backups.ImportCSV(content); err != nil {
		a.logger.Error("import csv", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CSV 파일을 읽는 중 오류가 발생했습니다.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "CSV 데이터를 성공적으로 불러왔습니다!"})
}

// ExportJSON 以下载附件形式返回完整 JSON 备份。
func (a *API) ExportJSON(c *gin.Context) {
	content, err := a.backups.ExportJSON()
	if err != nil {
		a.logger.Error("export json", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "JSON 내보내기에 실패했습니다.")
		return
	}

	attachDownload(c, a.backups.JSONFileName())
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(content))
}

// ImportJSON 恢复 JSON 备份。
// 恢复是破坏性的整体覆盖，未携带 confirm=true 时仅校验并返回备份概要。
func (a *API) ImportJSON(c *gin.Context) {
	content, ok := a.readImportPayload(c)
	if !ok {
		return
	}

	if c.Query("confirm") != "true" {
		summary, err := a.backups.InspectBackup(content)
		if err != nil {
			a.respondBackupError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"requiresConfirmation": true,
			"message":              "기존 데이터를 모두 덮어쓰시겠습니까? 이 작업은 되돌릴 수 없습니다.",
			"summary":              summary,
		})
		return
	}

	if err := a.backups.RestoreBackup(content); err != nil {
		a.respondBackupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": true, "message": "데이터를 성공적으로 복원했습니다!"})
}

func (a *API) respondBackupError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidBackup) {
		respondError(c, http.StatusBadRequest, "올바른 백업 파일이 아닙니다.")
		return
	}
	a.logger.Error("restore backup", zap.Error(err))
	respondError(c, http.StatusInternalServerError, "JSON 파일을 읽는 중 오류가 발생했습니다.")
}

// readImportPayload 优先读取 multipart 的 file 字段，否则回退到原始请求体。
func (a *API) readImportPayload(c *gin.Context) (string, bool) {
	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "파일을 열 수 없습니다.")
			return "", false
		}
		defer opened.Close()

		data, err := io.ReadAll(opened)
		if err != nil {
			respondError(c, http.StatusBadRequest, "파일을 읽을 수 없습니다.")
			return "", false
		}
		return string(data), true
	}

	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		respondError(c, http.StatusBadRequest, "가져올 파일이 없습니다.")
		return "", false
	}
	return string(data), true
}

// attachDownload 设置附件下载头，文件名按 RFC 5987 编码以支持韩文。
func attachDownload(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
}

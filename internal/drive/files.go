package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	gdrive "google.golang.org/api/drive/v3"
)

const (
	// MimeFolder 文件夹类型
	MimeFolder = "application/vnd.google-apps.folder"
	// MimeXLSX Excel 工作簿类型
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// MimeSpreadsheet Google 表格类型（转换副本）
	MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

	// MaxDownloadBytes 下载上限，超出一个字节即由解析器拒绝
	MaxDownloadBytes = 50 * 1024 * 1024

	conversionPrefix = "temp_conversion_"
	listFields       = "nextPageToken, files(id, name, mimeType, modifiedTime)"
)

// ListChildren 列出文件夹下未删除的子项，mimeType 为空时不过滤类型，keep 为 nil 时全部保留
func (c *Client) ListChildren(ctx context.Context, folderID, mimeType string, keep func(Item) bool) ([]Item, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	if mimeType != "" {
		q += fmt.Sprintf(" and mimeType = '%s'", escapeQuery(mimeType))
	}

	var items []Item
	err := c.call(ctx, folderID, func() error {
		items = items[:0]
		return c.files.Files.List().
			Q(q).
			Fields(listFields).
			PageSize(1000).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Pages(ctx, func(page *gdrive.FileList) error {
				for _, f := range page.Files {
					item := Item{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ModifiedTime: f.ModifiedTime}
					if keep == nil || keep(item) {
						items = append(items, item)
					}
				}
				return nil
			})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DownloadBytes 下载文件内容
func (c *Client) DownloadBytes(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := c.call(ctx, fileID, func() error {
		resp, err := c.files.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download %s: unexpected status %d", fileID, resp.StatusCode)
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// CreateTabularCopy 生成 Google 表格格式的临时副本，返回副本 ID
func (c *Client) CreateTabularCopy(ctx context.Context, fileID string) (string, error) {
	var copyID string
	err := c.call(ctx, fileID, func() error {
		f, err := c.files.Files.Copy(fileID, &gdrive.File{
			Name:     conversionPrefix + uuid.NewString(),
			MimeType: MimeSpreadsheet,
		}).Fields("id").SupportsAllDrives(true).Context(ctx).Do()
		if err != nil {
			return err
		}
		copyID = f.Id
		return nil
	})
	return copyID, err
}

// ReadTabularRange 读取表格区域的值
func (c *Client) ReadTabularRange(ctx context.Context, resourceID, rangeSpec string) ([][]interface{}, error) {
	var values [][]interface{}
	err := c.call(ctx, resourceID, func() error {
		resp, err := c.sheets.Spreadsheets.Values.Get(resourceID, rangeSpec).Context(ctx).Do()
		if err != nil {
			return err
		}
		values = resp.Values
		return nil
	})
	return values, err
}

// DeleteResource 删除远端资源
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	return c.call(ctx, resourceID, func() error {
		return c.files.Files.Delete(resourceID).SupportsAllDrives(true).Context(ctx).Do()
	})
}

// GetMetadata 读取文件元数据
func (c *Client) GetMetadata(ctx context.Context, fileID string) (*Metadata, error) {
	var meta *Metadata
	err := c.call(ctx, fileID, func() error {
		f, err := c.files.Files.Get(fileID).
			Fields("id, name, mimeType, modifiedTime, trashed").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		meta = &Metadata{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ModifiedTime: f.ModifiedTime, Trashed: f.Trashed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

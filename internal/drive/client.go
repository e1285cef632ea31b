package drive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Refresher 在 401 之后强制刷新令牌
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// Item 文件夹或文件条目
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
}

// Metadata 单个文件的元数据
type Metadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime"`
	Trashed      bool   `json:"trashed"`
}

// Client Google Drive / Sheets 适配器
type Client struct {
	files     *gdrive.Service
	sheets    *sheets.Service
	refresher Refresher
}

// New 创建适配器；每次请求都向 ts 取令牌，刷新后的令牌立即生效
func New(ctx context.Context, ts oauth2.TokenSource, refresher Refresher) (*Client, error) {
	httpClient := &http.Client{Transport: &oauth2.Transport{Source: ts}}

	files, err := gdrive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{files: files, sheets: sheetsSvc, refresher: refresher}, nil
}

// call 执行一次远端调用；401 时强制刷新令牌并仅重试一次
func (c *Client) call(ctx context.Context, resourceID string, op func() error) error {
	err := mapError(op(), resourceID)
	if err == nil || !errors.Is(err, ErrUnauthorized) || c.refresher == nil {
		return err
	}

	log.Printf("[drive] unauthorized on %s, refreshing token", resourceID)
	if rerr := c.refresher.ForceRefresh(ctx); rerr != nil {
		return &APIError{Kind: ErrUnauthorized, ResourceID: resourceID, Detail: "token refresh failed", Cause: rerr}
	}
	return mapError(op(), resourceID)
}

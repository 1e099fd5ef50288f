package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// HashIP 对 IP 地址进行哈希处理，避免明文写入限流键
func HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}

// Paginated 分页响应结构
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPaginated 根据当前请求生成上一页 / 下一页链接
func NewPaginated[T any](c *gin.Context, results []T, count int64, page, size int) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	p := Paginated[T]{Count: count, Results: results}
	if int64(page*size) < count {
		p.Next = pageURL(c, page+1)
	}
	if page > 1 {
		p.Previous = pageURL(c, page-1)
	}
	return p
}

func pageURL(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// Detail 返回 {"detail": msg}
func Detail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"detail": message})
}

// FieldErrors 返回按字段聚合的 400 错误
func FieldErrors(c *gin.Context, fields map[string][]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, fields)
}

// NotFound 返回404错误
func NotFound(c *gin.Context) {
	Detail(c, http.StatusNotFound, "Not found.")
}

// InternalServerError 返回500错误
func InternalServerError(c *gin.Context) {
	Detail(c, http.StatusInternalServerError, "Internal server error.")
}

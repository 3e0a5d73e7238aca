// Package httpapi 通过HTTP对外提供ID生成、解析和指标查询
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/domain"
)

// DefaultMaxBatch 单次请求最多生成的ID数量
const DefaultMaxBatch = 1000

// IDSource 可被取消的ID来源，snowflake.Owner 实现了该接口
type IDSource interface {
	Next(ctx context.Context) (int64, error)
	NextBatch(ctx context.Context, n int) ([]int64, error)
}

// Handler HTTP处理器
type Handler struct {
	source   IDSource
	gen      core.IGenerator // 解析、指标
	maxBatch int
	logger   *zap.Logger
}

// NewHandler 创建处理器，maxBatch<=0时使用 DefaultMaxBatch
func NewHandler(source IDSource, gen core.IGenerator, maxBatch int, logger *zap.Logger) *Handler {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, gen: gen, maxBatch: maxBatch, logger: logger}
}

type idResponse struct {
	ID domain.ID `json:"id"`
}

type idsResponse struct {
	IDs domain.IDSlice `json:"ids"`
}

type parseResponse struct {
	core.IDInfo
	Time string `json:"time"`
}

type metricsResponse struct {
	DatacenterID int64             `json:"datacenter_id"`
	WorkerID     int64             `json:"worker_id"`
	Metrics      map[string]uint64 `json:"metrics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NextIDs GET /v1/ids[?count=n]
func (h *Handler) NextIDs(c *gin.Context) {
	raw, hasCount := c.GetQuery("count")
	if !hasCount {
		id, err := h.source.Next(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, idResponse{ID: domain.ID(id)})
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.maxBatch {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "count must be an integer in [1, " + strconv.Itoa(h.maxBatch) + "]",
		})
		return
	}

	ids, err := h.source.NextBatch(c.Request.Context(), n)
	if err != nil {
		// 批次要么完整返回，要么只返回错误
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, idsResponse{IDs: domain.FromInt64s(ids)})
}

// ParseID GET /v1/ids/:id，id支持十进制、0x十六进制、0b二进制
func (h *Handler) ParseID(c *gin.Context) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	info, err := h.gen.ParseID(id.Int64())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, parseResponse{
		IDInfo: *info,
		Time:   time.UnixMilli(info.Timestamp).UTC().Format(time.RFC3339Nano),
	})
}

// Metrics GET /v1/metrics
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metricsResponse{
		DatacenterID: h.gen.DatacenterID(),
		WorkerID:     h.gen.WorkerID(),
		Metrics:      h.gen.Metrics(),
	})
}

// Healthz GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail 将领域错误映射为HTTP状态码
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)

	var cmb *core.ClockMovedBackwardsError
	if errors.As(err, &cmb) {
		// 等待时钟追上上次的时间戳，向上取整到秒
		wait := (cmb.LastTimestamp - cmb.Now + 999) / 1000
		if wait < 1 {
			wait = 1
		}
		c.Header("Retry-After", strconv.FormatInt(wait, 10))
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidSnowflakeID),
		errors.Is(err, core.ErrInvalidBatchSize):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrClockMovedBackwards),
		errors.Is(err, core.ErrOwnerClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

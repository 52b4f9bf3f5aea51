package shared

import "context"

// =====================================================
// CALLER
// =====================================================

// Caller là identity của request hiện tại. Middleware dựng Caller từ JWT
// và transport truyền tường minh vào mọi service method.
type Caller struct {
	UserID   string
	Email    string
	Username string
	// TokenID là jti của access token, dùng cho logout
	TokenID string
}

// Anonymous là caller không có (hoặc có token không hợp lệ)
var Anonymous = Caller{}

func (c Caller) IsAuthenticated() bool {
	return c.UserID != ""
}

type callerKey struct{}

// WithCaller gắn caller vào context (chỉ transport layer dùng)
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom đọc caller từ context, Anonymous nếu không có
func CallerFrom(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok {
		return c
	}
	return Anonymous
}

// Empty là input của các operation không nhận tham số
type Empty struct{}

// Ack là output của các operation chỉ xác nhận (delete)
type Ack struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

func AckOf(id string) *Ack {
	return &Ack{Success: true, ID: id}
}

// =====================================================
// BACKGROUND TASKS
// =====================================================

const (
	TypeGenerateExport      = "export:generate"
	TypeRequeueStaleExports = "export:requeue_stale"
	TypeSendResetEmail      = "email:reset_password"

	QueueExport  = "export"
	QueueDefault = "default"
)

// GenerateExportPayload là payload của task export:generate
type GenerateExportPayload struct {
	ExportID string `json:"export_id"`
}

// ResetEmailPayload là payload của task email:reset_password
type ResetEmailPayload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn string `json:"expires_in"`
}

// RequeueStaleExportsPayload là payload của periodic task export:requeue_stale
type RequeueStaleExportsPayload struct {
	OlderThanSeconds int `json:"older_than_seconds"`
	Limit            int `json:"limit"`
}

// =====================================================
// PAGINATION
// =====================================================

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage giữ (Page-1)*Limit xa ngưỡng tràn int
	MaxPage = 1_000_000
)

// Pagination params cho list procedures
type Pagination struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// Normalize áp default và chặn trên cho page, limit
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Pagination) Skip() int64 {
	p = p.Normalize()
	return int64(p.Page-1) * int64(p.Limit)
}

// PageMeta là metadata trả về kèm list response
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPageMeta(p Pagination, total int64) PageMeta {
	p = p.Normalize()
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PageMeta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

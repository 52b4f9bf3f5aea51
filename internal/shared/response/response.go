package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages,omitempty"`
}

func MetaFromPage(p shared.PageMeta) *Meta {
	return &Meta{Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages}
}

// Body dựng envelope cho một kết quả thành công
func Body(data interface{}, meta *Meta) Response {
	return Response{Success: true, Data: data, Meta: meta}
}

// ErrorBody chuẩn hoá err thành envelope + HTTP status.
// Lỗi không phải apperror được log lại và chỉ trả "internal server error".
func ErrorBody(requestID string, err error) (int, Response) {
	appErr := apperror.Normalize(err)
	if appErr.Kind == apperror.KindInternal {
		log.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("Unhandled error")
	}

	body := Response{
		Success: false,
		Error: &Error{
			Code:    string(appErr.Kind),
			Message: appErr.Message,
		},
	}
	if len(appErr.Details) > 0 {
		body.Error.Details = appErr.Details
	}
	return appErr.HTTPStatus(), body
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Body(data, nil))
}

func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Body(data, meta))
}

// FromError map apperror sang HTTP status + envelope
func FromError(c *gin.Context, err error) {
	status, body := ErrorBody(c.GetString("request_id"), err)
	c.JSON(status, body)
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, string(apperror.KindBadRequest), message)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, string(apperror.KindUnauthorized), message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, string(apperror.KindNotFound), message)
}

func TooManyRequests(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, string(apperror.KindTooManyRequests), message)
}

// Package rest mounts every procedure that declares a REST path onto gin,
// wrapping results in the standard {success, data, error, meta} envelope.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/middleware"
	"storyforge-backend/internal/shared/response"
	"storyforge-backend/internal/transport/procedure"
)

type Options struct {
	// Throttle chạy trước các procedure Unbatched (login, register...)
	Throttle gin.HandlerFunc
}

// Mount đăng ký route cho mọi procedure có Path, tương đối với group
func Mount(group *gin.RouterGroup, reg *procedure.Registry, opts Options) {
	for _, p := range reg.All() {
		if p.Path == "" {
			continue
		}
		handlers := make([]gin.HandlerFunc, 0, 2)
		if p.NoBatch && opts.Throttle != nil {
			handlers = append(handlers, opts.Throttle)
		}
		handlers = append(handlers, Handle(p))
		group.Handle(p.Method, p.Path, handlers...)
	}
}

// Handle chuyển một procedure thành gin handler
func Handle(p *procedure.Procedure) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, err := bind(c, p)
		if err != nil {
			response.FromError(c, err)
			return
		}

		out, err := p.Call(c.Request.Context(), middleware.GetCaller(c), input)
		if err != nil {
			response.FromError(c, err)
			return
		}

		data, meta := procedure.Split(out)
		if meta != nil {
			response.SuccessWithMeta(c, p.Status, data, response.MetaFromPage(*meta))
			return
		}
		response.Success(c, p.Status, data)
	}
}

// bind: body JSON trước, rồi query string, cuối cùng path params để
// id trên URL luôn thắng giá trị trong body
func bind(c *gin.Context, p *procedure.Procedure) (any, error) {
	input := p.NewInput()

	if hasBody(c.Request) {
		if err := c.ShouldBindJSON(input); err != nil {
			return nil, apperror.BadRequest("invalid JSON body")
		}
	}
	if len(c.Request.URL.RawQuery) > 0 {
		if err := c.ShouldBindQuery(input); err != nil {
			return nil, apperror.BadRequest("invalid query parameters")
		}
	}
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(input); err != nil {
			return nil, apperror.BadRequest("invalid path parameters")
		}
	}
	return input, nil
}

func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return false
	}
	return r.ContentLength != 0
}

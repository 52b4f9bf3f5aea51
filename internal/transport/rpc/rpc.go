// Package rpc exposes the procedure table as named calls:
//
//	POST /rpc/{procedure}          one call, body is the input
//	GET  /rpc/{procedure}?input=.. queries only, input is JSON
//	POST /rpc                      batch of {id, procedure, input}
//
// Bodies are JSON, or CBOR with Content-Type application/cbor.
package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/shared/middleware"
	"storyforge-backend/internal/shared/response"
	"storyforge-backend/internal/transport/procedure"
)

const (
	MaxBatchSize = 20
	maxBodyBytes = 4 << 20
)

type Options struct {
	// Throttle chạy trước các call đơn tới procedure Unbatched
	Throttle gin.HandlerFunc
}

type Server struct {
	reg *procedure.Registry
}

// Mount đăng ký /rpc, /rpc/{name} cho mọi procedure
func Mount(router gin.IRouter, reg *procedure.Registry, opts Options) *Server {
	s := &Server{reg: reg}
	group := router.Group("/rpc")
	group.POST("", s.batch)

	for _, p := range reg.All() {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if p.NoBatch && opts.Throttle != nil {
			handlers = append(handlers, opts.Throttle)
		}
		group.POST("/"+p.Name, append(handlers, s.single(p))...)
		if p.Kind == procedure.Query {
			group.GET("/"+p.Name, append(handlers, s.query(p))...)
		}
	}
	return s
}

// BatchItem là kết quả của một call trong batch
type BatchItem struct {
	ID any `json:"id"`
	response.Response
}

// =====================================================
// HANDLERS
// =====================================================

func (s *Server) single(p *procedure.Procedure) gin.HandlerFunc {
	return func(c *gin.Context) {
		codec := codecFor(c.ContentType())
		body, err := readBody(c)
		if err != nil {
			write(c, codec, statusOf(err), failure(c, err))
			return
		}
		status, resp := s.invoke(c.Request.Context(), middleware.GetCaller(c), c.GetString(middleware.RequestIDKey), p, codec, body)
		write(c, codec, status, resp)
	}
}

func (s *Server) query(p *procedure.Procedure) gin.HandlerFunc {
	return func(c *gin.Context) {
		codec := codecFor(c.GetHeader("Accept"))
		var raw []byte
		if in := c.Query("input"); in != "" {
			raw = []byte(in)
		}
		// input trên query string luôn là JSON
		status, resp := s.invoke(c.Request.Context(), middleware.GetCaller(c), c.GetString(middleware.RequestIDKey), p, jsonCodec{}, raw)
		write(c, codec, status, resp)
	}
}

func (s *Server) batch(c *gin.Context) {
	codec := codecFor(c.ContentType())
	body, err := readBody(c)
	if err != nil {
		write(c, codec, statusOf(err), failure(c, err))
		return
	}

	calls, err := codec.decodeBatch(body)
	if err != nil {
		write(c, codec, http.StatusBadRequest, failure(c, apperror.BadRequest("batch body must be a list of {id, procedure, input}")))
		return
	}
	if len(calls) == 0 || len(calls) > MaxBatchSize {
		write(c, codec, http.StatusBadRequest, failure(c, apperror.BadRequest(fmt.Sprintf("batch must contain 1..%d calls", MaxBatchSize))))
		return
	}

	caller := middleware.GetCaller(c)
	requestID := c.GetString(middleware.RequestIDKey)
	items := make([]BatchItem, 0, len(calls))
	for _, cl := range calls {
		var resp response.Response
		p, ok := s.reg.Lookup(cl.Procedure)
		switch {
		case !ok:
			_, resp = response.ErrorBody(requestID, apperror.NotFound("procedure "+cl.Procedure, nil))
		case p.NoBatch:
			_, resp = response.ErrorBody(requestID, apperror.BadRequest("procedure "+p.Name+" cannot be batched"))
		default:
			_, resp = s.invoke(c.Request.Context(), caller, requestID, p, codec, cl.Input)
		}
		items = append(items, BatchItem{ID: cl.ID, Response: resp})
	}

	log.Debug().Str("request_id", requestID).Int("calls", len(items)).Msg("RPC batch served")
	write(c, codec, http.StatusOK, items)
}

// invoke decode input rồi chạy procedure; trả HTTP status + envelope
func (s *Server) invoke(ctx context.Context, caller shared.Caller, requestID string, p *procedure.Procedure, codec Codec, raw []byte) (int, response.Response) {
	input := p.NewInput()
	if len(raw) > 0 && string(raw) != "null" {
		if err := codec.Unmarshal(raw, input); err != nil {
			return response.ErrorBody(requestID, apperror.BadRequest("invalid input for "+p.Name))
		}
	}

	out, err := p.Call(ctx, caller, input)
	if err != nil {
		return response.ErrorBody(requestID, err)
	}

	data, meta := procedure.Split(out)
	if meta != nil {
		return p.Status, response.Body(data, response.MetaFromPage(*meta))
	}
	return p.Status, response.Body(data, nil)
}

// =====================================================
// HELPERS
// =====================================================

func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperror.BadRequest("cannot read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, apperror.BadRequest("request body too large")
	}
	return body, nil
}

func failure(c *gin.Context, err error) response.Response {
	_, resp := response.ErrorBody(c.GetString(middleware.RequestIDKey), err)
	return resp
}

func statusOf(err error) int {
	return apperror.Normalize(err).HTTPStatus()
}

func write(c *gin.Context, codec Codec, status int, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("Failed to encode RPC response")
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, codec.ContentType(), data)
}

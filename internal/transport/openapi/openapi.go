// Package openapi renders the procedure table as an OpenAPI 3.0 document.
// Schemas are derived from the input/output Go types by reflection.
package openapi

import (
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/internal/transport/procedure"
)

const (
	DocumentPath = "/api/openapi.json"
	restPrefix   = "/api/v1"
)

type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type Document struct {
	OpenAPI    string                `json:"openapi"`
	Info       Info                  `json:"info"`
	Servers    []map[string]string   `json:"servers,omitempty"`
	Paths      map[string]PathItem   `json:"paths"`
	Components Components            `json:"components"`
	Security   []map[string][]string `json:"security,omitempty"`
}

type Components struct {
	Schemas         map[string]*Schema       `json:"schemas"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes"`
}

type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

// PathItem: method (lowercase) → operation
type PathItem map[string]*Operation

type Operation struct {
	OperationID string                `json:"operationId"`
	Summary     string                `json:"summary,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]Response   `json:"responses"`
	Security    []map[string][]string `json:"security,omitempty"`
}

type Parameter struct {
	Name     string  `json:"name"`
	In       string  `json:"in"`
	Required bool    `json:"required,omitempty"`
	Schema   *Schema `json:"schema"`
}

type RequestBody struct {
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content"`
}

type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema"`
}

type Schema struct {
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Nullable             bool               `json:"nullable,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
}

// Build dựng document từ registry; procedure không có REST path chỉ
// xuất hiện dưới /rpc/{name}
func Build(reg *procedure.Registry, info Info) *Document {
	g := &generator{schemas: make(map[string]*Schema)}
	doc := &Document{
		OpenAPI: "3.0.3",
		Info:    info,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: g.schemas,
			SecuritySchemes: map[string]SecurityScheme{
				"bearerAuth": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			},
		},
		Security: []map[string][]string{{"bearerAuth": {}}},
	}
	g.errorSchema()

	for _, p := range reg.All() {
		path, method := restPrefix+ginPathToOpenAPI(p.Path), strings.ToLower(p.Method)
		if p.Path == "" {
			path, method = "/rpc/"+p.Name, "post"
		}
		item, ok := doc.Paths[path]
		if !ok {
			item = PathItem{}
			doc.Paths[path] = item
		}
		item[method] = g.operation(p, method)
	}
	return doc
}

// Mount phục vụ document và Swagger UI (/swagger/index.html)
func Mount(router gin.IRouter, doc *Document) {
	router.GET(DocumentPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(DocumentPath)))
}

var paramPattern = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

func ginPathToOpenAPI(path string) string {
	return paramPattern.ReplaceAllString(path, "{$1}")
}

// =====================================================
// OPERATIONS
// =====================================================

type generator struct {
	schemas map[string]*Schema
}

func (g *generator) operation(p *procedure.Procedure, method string) *Operation {
	op := &Operation{
		OperationID: p.Name,
		Summary:     p.Summary,
		Tags:        []string{p.Tag},
		Responses:   map[string]Response{},
	}
	if p.Public {
		op.Security = []map[string][]string{}
	}

	in := deref(p.InputType)
	pathParams := map[string]bool{}
	for _, m := range paramPattern.FindAllStringSubmatch(p.Path, -1) {
		pathParams[m[1]] = true
	}

	body := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, f := range fields(in) {
		if uri := f.Tag.Get("uri"); uri != "" && pathParams[uri] {
			op.Parameters = append(op.Parameters, Parameter{Name: uri, In: "path", Required: true, Schema: g.schema(f.Type)})
			continue
		}
		if method == "get" || method == "delete" {
			if name := tagName(f, "form"); name != "" {
				op.Parameters = append(op.Parameters, Parameter{Name: name, In: "query", Schema: g.schema(f.Type)})
			}
			continue
		}
		if name := tagName(f, "json"); name != "" {
			body.Properties[name] = g.schema(f.Type)
		}
	}
	if len(body.Properties) > 0 {
		op.RequestBody = &RequestBody{Content: map[string]MediaType{
			"application/json": {Schema: body},
		}}
	}

	op.Responses[statusKey(p.Status)] = Response{
		Description: "Success",
		Content:     map[string]MediaType{"application/json": {Schema: g.envelope(p.OutputType)}},
	}
	op.Responses["default"] = Response{
		Description: "Error",
		Content:     map[string]MediaType{"application/json": {Schema: &Schema{Ref: "#/components/schemas/ErrorResponse"}}},
	}
	return op
}

var pagedType = reflect.TypeOf((*procedure.Paged)(nil)).Elem()

// envelope bọc output trong {success, data, meta}; list output tách items/meta
func (g *generator) envelope(out reflect.Type) *Schema {
	data := g.schema(out)
	props := map[string]*Schema{
		"success": {Type: "boolean"},
	}
	if out.Implements(pagedType) || reflect.PointerTo(out).Implements(pagedType) {
		if items, ok := deref(out).FieldByName("Items"); ok {
			data = g.schema(items.Type)
		}
		props["meta"] = g.schema(reflect.TypeOf(pageMeta{}))
	}
	props["data"] = data
	return &Schema{Type: "object", Properties: props}
}

type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func (g *generator) errorSchema() {
	kinds := []apperror.Kind{
		apperror.KindValidation, apperror.KindBadRequest, apperror.KindUnauthorized, apperror.KindForbidden,
		apperror.KindNotFound, apperror.KindConflict, apperror.KindTooManyRequests, apperror.KindInternal,
	}
	codes := make([]string, len(kinds))
	for i, k := range kinds {
		codes[i] = string(k)
	}
	g.schemas["ErrorResponse"] = &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"success": {Type: "boolean"},
			"error": {
				Type: "object",
				Properties: map[string]*Schema{
					"code":    {Type: "string", Enum: codes},
					"message": {Type: "string"},
					"details": {Type: "object", AdditionalProperties: &Schema{Type: "string"}},
				},
			},
		},
	}
}

func statusKey(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}

// =====================================================
// SCHEMAS
// =====================================================

var (
	timeType     = reflect.TypeOf(time.Time{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
	enumType     = reflect.TypeOf((*interface{ Values() []string })(nil)).Elem()
)

func (g *generator) schema(t reflect.Type) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	var s *Schema
	switch {
	case t == timeType:
		s = &Schema{Type: "string", Format: "date-time"}
	case t == objectIDType:
		s = &Schema{Type: "string"}
	case t.Kind() == reflect.String && t.Implements(enumType):
		s = &Schema{Type: "string", Enum: reflect.Zero(t).Interface().(interface{ Values() []string }).Values()}
	default:
		s = g.kindSchema(t)
	}
	if nullable && s.Ref == "" {
		s.Nullable = true
	}
	return s
}

func (g *generator) kindSchema(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return &Schema{Type: "integer", Format: "int32"}
	case reflect.Int64, reflect.Uint64:
		return &Schema{Type: "integer", Format: "int64"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string", Format: "byte"}
		}
		return &Schema{Type: "array", Items: g.schema(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: &Schema{}}
	case reflect.Struct:
		return g.structRef(t)
	}
	return &Schema{}
}

// structRef đăng ký struct có tên vào components; struct ẩn danh inline
func (g *generator) structRef(t reflect.Type) *Schema {
	if t.Name() == "" {
		return g.structSchema(t)
	}
	name := schemaName(t)
	if _, ok := g.schemas[name]; !ok {
		// placeholder trước để type đệ quy không lặp vô hạn
		g.schemas[name] = &Schema{Type: "object"}
		g.schemas[name] = g.structSchema(t)
	}
	return &Schema{Ref: "#/components/schemas/" + name}
}

func (g *generator) structSchema(t reflect.Type) *Schema {
	s := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, f := range fields(t) {
		if name := tagName(f, "json"); name != "" {
			s.Properties[name] = g.schema(f.Type)
		}
	}
	return s
}

// schemaName: package.Type → PackageType, tránh trùng tên giữa các domain
// (chapter.ListFilter vs plot.ListFilter)
func schemaName(t reflect.Type) string {
	pkg := t.PkgPath()
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		pkg = pkg[i+1:]
	}
	if pkg == "model" {
		// .../domains/<domain>/model
		parts := strings.Split(t.PkgPath(), "/")
		if len(parts) >= 2 {
			pkg = parts[len(parts)-2]
		}
	}
	if pkg == "" {
		return t.Name()
	}
	return strings.ToUpper(pkg[:1]) + pkg[1:] + t.Name()
}

// fields trả về exported fields, flatten embedded struct như encoding/json
func fields(t reflect.Type) []reflect.StructField {
	t = deref(t)
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Tag.Get("json") == "" {
			out = append(out, fields(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tagName(f reflect.StructField, key string) string {
	tag := f.Tag.Get(key)
	if tag == "-" {
		return ""
	}
	name := strings.Split(tag, ",")[0]
	if name == "" && key == "json" {
		return f.Name
	}
	return name
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

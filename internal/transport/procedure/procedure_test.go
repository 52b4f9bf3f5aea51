package procedure

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-backend/internal/shared"
)

type echoIn struct {
	Text string `json:"text"`
}

type echoOut struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func echo(_ context.Context, caller shared.Caller, in *echoIn) (*echoOut, error) {
	return &echoOut{Text: in.Text, UserID: caller.UserID}, nil
}

type module []*Procedure

func (m module) Procedures() []*Procedure { return m }

func TestProcedureCallRoundTrip(t *testing.T) {
	p := NewMutation("demo.create", echo).REST(http.MethodPost, "/demo")

	assert.Equal(t, "demo", p.Tag)
	assert.Equal(t, http.StatusCreated, p.Status)
	assert.Equal(t, "echoIn", p.InputType.Name())

	in := p.NewInput().(*echoIn)
	in.Text = "hi"
	out, err := p.Call(context.Background(), shared.Caller{UserID: "u1"}, in)
	require.NoError(t, err)
	assert.Equal(t, &echoOut{Text: "hi", UserID: "u1"}, out)
}

func TestProcedureRejectsForeignInput(t *testing.T) {
	p := NewQuery("demo.get", echo)
	assert.Equal(t, http.MethodGet, p.Method)

	_, err := p.Call(context.Background(), shared.Anonymous, &struct{}{})
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(module{NewQuery("demo.get", echo), NewQuery("demo.get", echo)})
	assert.Error(t, err)

	r, err := NewRegistry(module{NewQuery("b.get", echo), NewQuery("a.get", echo)})
	require.NoError(t, err)
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a.get", all[0].Name)

	_, ok := r.Lookup("b.get")
	assert.True(t, ok)
}

type page struct{ items []string }

func (p page) PageItems() any             { return p.items }
func (p page) PageMeta() shared.PageMeta { return shared.PageMeta{Total: int64(len(p.items))} }

func TestSplit(t *testing.T) {
	data, meta := Split(page{items: []string{"a"}})
	assert.Equal(t, []string{"a"}, data)
	require.NotNil(t, meta)
	assert.Equal(t, int64(1), meta.Total)

	data, meta = Split("plain")
	assert.Equal(t, "plain", data)
	assert.Nil(t, meta)
}

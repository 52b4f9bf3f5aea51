package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Generate(ctx context.Context, exportID primitive.ObjectID, finalAttempt bool) error {
	return m.Called(exportID, finalAttempt).Error(0)
}

func (m *mockProcessor) RequeueStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	args := m.Called(olderThan, limit)
	return args.Int(0), args.Error(1)
}

func task(t *testing.T, typ string, payload any) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, raw)
}

func TestGenerateExportHandler(t *testing.T) {
	proc := &mockProcessor{}
	h := NewGenerateExportHandler(proc)
	id := primitive.NewObjectID()

	proc.On("Generate", id, false).Return(nil).Once()
	err := h.ProcessTask(context.Background(), task(t, shared.TypeGenerateExport, shared.GenerateExportPayload{ExportID: id.Hex()}))
	require.NoError(t, err)

	proc.On("Generate", id, false).Return(errors.New("boom")).Once()
	err = h.ProcessTask(context.Background(), task(t, shared.TypeGenerateExport, shared.GenerateExportPayload{ExportID: id.Hex()}))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	proc.AssertExpectations(t)
}

func TestGenerateExportHandlerSkipsRetryOnBadPayload(t *testing.T) {
	h := NewGenerateExportHandler(&mockProcessor{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeGenerateExport, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), task(t, shared.TypeGenerateExport, shared.GenerateExportPayload{ExportID: "nope"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRequeueStaleHandler(t *testing.T) {
	proc := &mockProcessor{}
	h := NewRequeueStaleHandler(proc)

	proc.On("RequeueStale", 10*time.Minute, 100).Return(2, nil).Once()
	err := h.ProcessTask(context.Background(), task(t, shared.TypeRequeueStaleExports, shared.RequeueStaleExportsPayload{OlderThanSeconds: 600}))
	require.NoError(t, err)
	proc.AssertExpectations(t)
}

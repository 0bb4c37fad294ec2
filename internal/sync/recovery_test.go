package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daaslabs/indexsync/internal/asset"
	buffermocks "github.com/daaslabs/indexsync/internal/buffer/mocks"
	"github.com/daaslabs/indexsync/internal/index"
	indexmocks "github.com/daaslabs/indexsync/internal/index/mocks"
)

func TestRecovery_DrainsBufferInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	applier, cursors, tracker := newTestApplier(t, writer, 2)

	ctx := context.Background()

	// Two pages past the cursor, then drained. The read position tracks
	// the applier's progress.
	gomock.InOrder(
		reader.EXPECT().ReadSince(ctx, "asset", int64(2), 100).
			Return([]asset.ChangeEvent{upsertEvent(3, "a-3"), upsertEvent(4, "a-4")}, nil),
		reader.EXPECT().ReadSince(ctx, "asset", int64(4), 100).
			Return([]asset.ChangeEvent{deleteEvent(5, "a-5")}, nil),
		reader.EXPECT().ReadSince(ctx, "asset", int64(5), 100).
			Return(nil, nil),
	)
	writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil).Times(2)
	writer.EXPECT().Delete(ctx, "a-5").Return(nil)
	// One commit per event: recovery makes progress one event at a time.
	writer.EXPECT().Commit(ctx).Return(nil).Times(3)

	recovery := NewRecovery("asset", 100, reader, applier)
	result, err := recovery.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Applied)
	assert.Equal(t, int64(5), result.LastCursor)

	position, _, err := cursors.Load(ctx, "asset")
	require.NoError(t, err)
	assert.Equal(t, int64(5), position)

	st, _ := tracker.Get("asset")
	assert.Equal(t, int64(3), st.Recovered)
}

func TestRecovery_EmptyBufferIsANoOp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	applier, _, _ := newTestApplier(t, writer, 0)

	ctx := context.Background()
	reader.EXPECT().ReadSince(ctx, "asset", int64(0), 100).Return(nil, nil)

	result, err := NewRecovery("asset", 100, reader, applier).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Applied)
	assert.Zero(t, result.LastCursor)
}

func TestRecovery_ReadErrorPropagates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	applier, _, _ := newTestApplier(t, writer, 0)

	ctx := context.Background()
	reader.EXPECT().ReadSince(ctx, "asset", int64(0), 100).
		Return(nil, errors.New("connection reset"))

	_, err := NewRecovery("asset", 100, reader, applier).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading buffer")
}

func TestRecovery_RejectionStopsDrain(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	applier, cursors, _ := newTestApplier(t, writer, 0)

	ctx := context.Background()
	gomock.InOrder(
		reader.EXPECT().ReadSince(ctx, "asset", int64(0), 100).
			Return([]asset.ChangeEvent{upsertEvent(1, "a-1"), upsertEvent(2, "a-2")}, nil),
	)
	gomock.InOrder(
		writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil),
		writer.EXPECT().Commit(ctx).Return(nil),
		writer.EXPECT().Upsert(ctx, gomock.Any()).
			Return(&index.PermanentError{Err: errors.New("rejected"), Status: 400}),
	)

	_, err := NewRecovery("asset", 100, reader, applier).Run(ctx)
	var rejErr *RejectionError
	require.ErrorAs(t, err, &rejErr)
	assert.Equal(t, int64(2), rejErr.Event.Seq)

	// The first event's progress survives the halt.
	position, _, cursorErr := cursors.Load(ctx, "asset")
	require.NoError(t, cursorErr)
	assert.Equal(t, int64(1), position)
}

func TestRecovery_ResumesMidPage(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)

	// A cursor landing inside a page means the events at or below it
	// were applied before a crash; only the remainder is re-applied.
	applier, _, _ := newTestApplier(t, writer, 4)

	ctx := context.Background()
	gomock.InOrder(
		reader.EXPECT().ReadSince(ctx, "asset", int64(4), 100).
			Return([]asset.ChangeEvent{upsertEvent(5, "a-5")}, nil),
		reader.EXPECT().ReadSince(ctx, "asset", int64(5), 100).
			Return(nil, nil),
	)
	writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	writer.EXPECT().Commit(ctx).Return(nil)

	result, err := NewRecovery("asset", 100, reader, applier).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, int64(5), result.LastCursor)
}

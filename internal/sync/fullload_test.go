package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daaslabs/indexsync/internal/asset"
	buffermocks "github.com/daaslabs/indexsync/internal/buffer/mocks"
	"github.com/daaslabs/indexsync/internal/cursor"
	indexmocks "github.com/daaslabs/indexsync/internal/index/mocks"
	"github.com/daaslabs/indexsync/internal/mapper"
	"github.com/daaslabs/indexsync/internal/source"
	sourcemocks "github.com/daaslabs/indexsync/internal/source/mocks"
)

func sourceRecord(key string) asset.Record {
	return asset.Record{Key: key, Attributes: map[string]any{"id": key, "name": "asset " + key}}
}

func TestFullLoader_Run(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()

	// The buffer tail is read before the scan so concurrent changes are
	// not lost behind the seeded cursor.
	reader.EXPECT().Tail(ctx, "asset").Return(int64(17), nil)
	extractor.EXPECT().Scan(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn source.BatchFunc) error {
			if err := fn(ctx, []asset.Record{sourceRecord("a-1"), sourceRecord("a-2")}); err != nil {
				return err
			}
			return fn(ctx, []asset.Record{sourceRecord("a-3")})
		})
	// Each batch is committed on its own.
	gomock.InOrder(
		writer.EXPECT().Upsert(ctx, gomock.Any(), gomock.Any()).Return(nil),
		writer.EXPECT().Commit(ctx).Return(nil),
		writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil),
		writer.EXPECT().Commit(ctx).Return(nil),
	)

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	result, err := loader.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Documents)
	assert.Equal(t, int64(17), result.StartCursor)
	assert.True(t, result.Seeded)
	assert.NotEmpty(t, result.ID)

	position, found, err := cursors.Load(ctx, "asset")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(17), position)
}

func TestFullLoader_RunDoesNotMoveEstablishedCursor(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	require.NoError(t, cursors.Advance(ctx, "asset", 40))

	reader.EXPECT().Tail(ctx, "asset").Return(int64(60), nil)
	extractor.EXPECT().Scan(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn source.BatchFunc) error {
			return fn(ctx, []asset.Record{sourceRecord("a-1")})
		})
	writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	writer.EXPECT().Commit(ctx).Return(nil)

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	result, err := loader.Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.Seeded)

	// The established cursor stays put; buffered events between 40 and
	// 60 will still be applied and are harmless to re-apply.
	position, _, err := cursors.Load(ctx, "asset")
	require.NoError(t, err)
	assert.Equal(t, int64(40), position)
}

func TestFullLoader_EmptySourceStillSeeds(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	reader.EXPECT().Tail(ctx, "asset").Return(int64(0), nil)
	extractor.EXPECT().Scan(ctx, gomock.Any()).Return(nil)

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	result, err := loader.Run(ctx)
	require.NoError(t, err)

	assert.Zero(t, result.Documents)
	assert.True(t, result.Seeded)
}

func TestFullLoader_ScanErrorIdentifiesBatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	reader.EXPECT().Tail(ctx, "asset").Return(int64(0), nil)
	extractor.EXPECT().Scan(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn source.BatchFunc) error {
			return fn(ctx, []asset.Record{sourceRecord("a-7"), sourceRecord("a-9")})
		})
	writer.EXPECT().Upsert(ctx, gomock.Any(), gomock.Any()).Return(errors.New("write failed"))

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	_, err := loader.Run(ctx)
	require.Error(t, err)
	// The failing batch is identified by its key range.
	assert.Contains(t, err.Error(), "a-7..a-9")

	// No cursor is seeded on a failed load.
	_, found, cursorErr := cursors.Load(ctx, "asset")
	require.NoError(t, cursorErr)
	assert.False(t, found)
}

func TestFullLoader_AbortKeepsCommittedBatches(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	reader.EXPECT().Tail(ctx, "asset").Return(int64(0), nil)
	extractor.EXPECT().Scan(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn source.BatchFunc) error {
			if err := fn(ctx, []asset.Record{sourceRecord("a-1")}); err != nil {
				return err
			}
			return fn(ctx, []asset.Record{sourceRecord("a-2")})
		})
	// The first batch is committed before the second one fails, so its
	// documents stand in the index after the abort.
	gomock.InOrder(
		writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil),
		writer.EXPECT().Commit(ctx).Return(nil),
		writer.EXPECT().Upsert(ctx, gomock.Any()).Return(errors.New("index unavailable")),
	)

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	_, err := loader.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a-2..a-2")
}

func TestFullLoader_RunWindow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	step := 24 * time.Hour

	// Two full day steps plus the final half day, clamped to the end.
	gomock.InOrder(
		extractor.EXPECT().ScanWindow(ctx, from, from.Add(step), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, _ time.Time, fn source.BatchFunc) error {
				return fn(ctx, []asset.Record{sourceRecord("a-1")})
			}),
		extractor.EXPECT().ScanWindow(ctx, from.Add(step), from.Add(2*step), gomock.Any()).
			Return(nil),
		extractor.EXPECT().ScanWindow(ctx, from.Add(2*step), to, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, _ time.Time, fn source.BatchFunc) error {
				return fn(ctx, []asset.Record{sourceRecord("a-2")})
			}),
	)
	writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil).Times(2)
	writer.EXPECT().Commit(ctx).Return(nil).Times(2)

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	result, err := loader.RunWindow(ctx, from, to, step)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)

	// Window loads never touch the cursor.
	_, found, cursorErr := cursors.Load(ctx, "asset")
	require.NoError(t, cursorErr)
	assert.False(t, found)
}

func TestFullLoader_TailErrorAbortsBeforeScan(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	writer := indexmocks.NewMockWriter(ctrl)
	reader := buffermocks.NewMockReader(ctrl)
	extractor := sourcemocks.NewMockExtractor(ctrl)
	cursors := cursor.NewMemoryStore()

	ctx := context.Background()
	reader.EXPECT().Tail(ctx, "asset").Return(int64(0), errors.New("buffer unreachable"))

	loader := NewFullLoader("asset", extractor, mapper.New("id"), writer, reader, cursors, nil)
	_, err := loader.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer tail")
}

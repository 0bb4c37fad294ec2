package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/buffer"
	buffermocks "github.com/daaslabs/indexsync/internal/buffer/mocks"
	"github.com/daaslabs/indexsync/internal/config"
	"github.com/daaslabs/indexsync/internal/cursor"
	"github.com/daaslabs/indexsync/internal/index"
	indexmocks "github.com/daaslabs/indexsync/internal/index/mocks"
	"github.com/daaslabs/indexsync/internal/source"
	sourcemocks "github.com/daaslabs/indexsync/internal/source/mocks"
	"github.com/daaslabs/indexsync/internal/status"
)

func testConfig() *config.Config {
	return &config.Config{
		Domains: []config.DomainConfig{{
			Name:          "asset",
			PollInterval:  "10ms",
			FlushInterval: "1ms",
		}},
		Database: &config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Database: "d"},
		Index:    &config.IndexConfig{BaseURL: "http://solr:8983/solr"},
	}
}

type testDeps struct {
	cursors   cursor.Store
	reader    *buffermocks.MockReader
	notifier  *buffermocks.MockNotifier
	writer    *indexmocks.MockWriter
	extractor *sourcemocks.MockExtractor
}

func newTestDeps(ctrl *gomock.Controller) (*testDeps, Deps) {
	d := &testDeps{
		cursors:   cursor.NewMemoryStore(),
		reader:    buffermocks.NewMockReader(ctrl),
		notifier:  buffermocks.NewMockNotifier(ctrl),
		writer:    indexmocks.NewMockWriter(ctrl),
		extractor: sourcemocks.NewMockExtractor(ctrl),
	}
	deps := Deps{
		Cursors: d.cursors,
		Reader:  d.reader,
		NewWriter: func(string) (index.Writer, error) {
			return d.writer, nil
		},
		NewNotifier: func(string) buffer.Notifier {
			return d.notifier
		},
		NewExtractor: func(*config.DomainConfig) source.Extractor {
			return d.extractor
		},
	}
	return d, deps
}

func TestCoordinator_LifecycleReachesListening(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	d, deps := newTestDeps(ctrl)
	tracker := status.NewTracker()

	// Recovery drains one buffered event, then the listener idles.
	d.reader.EXPECT().ReadSince(gomock.Any(), "asset", int64(0), gomock.Any()).
		Return([]asset.ChangeEvent{{
			Seq: 1, Domain: "asset", Op: asset.OpUpdate, Key: "a-1",
			Payload: map[string]any{"id": "a-1"},
		}}, nil)
	d.reader.EXPECT().ReadSince(gomock.Any(), "asset", int64(1), gomock.Any()).
		Return(nil, nil).AnyTimes()
	d.writer.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	d.writer.EXPECT().Commit(gomock.Any()).Return(nil)

	listening := make(chan struct{})
	var once bool
	d.notifier.EXPECT().Wait(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (bool, error) {
			if !once {
				once = true
				close(listening)
			}
			<-ctx.Done()
			return false, nil
		}).AnyTimes()
	d.notifier.EXPECT().Close()

	coord := New(testConfig(), deps, tracker)

	startDone := make(chan error, 1)
	go func() { startDone <- coord.Start(context.Background()) }()

	select {
	case <-listening:
	case <-time.After(5 * time.Second):
		t.Fatal("domain never reached the listening phase")
	}

	st, ok := tracker.Get("asset")
	require.True(t, ok)
	assert.Equal(t, status.PhaseListening, st.Phase)
	assert.Equal(t, int64(1), st.Cursor)
	assert.Equal(t, int64(1), st.Recovered)

	require.NoError(t, coord.Stop())
	select {
	case err := <-startDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not shut down")
	}

	st, _ = tracker.Get("asset")
	assert.Equal(t, status.PhaseStopped, st.Phase)
}

func TestCoordinator_RecoveryFailureMarksDomainFailed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	d, deps := newTestDeps(ctrl)
	tracker := status.NewTracker()

	d.reader.EXPECT().ReadSince(gomock.Any(), "asset", int64(0), gomock.Any()).
		Return(nil, errors.New("buffer table missing"))

	coord := New(testConfig(), deps, tracker)

	// With its only domain failed, Start returns on its own.
	err := coord.Start(context.Background())
	require.NoError(t, err)

	st, ok := tracker.Get("asset")
	require.True(t, ok)
	assert.Equal(t, status.PhaseFailed, st.Phase)
	assert.Contains(t, st.Message, "recovery failed")
}

func TestCoordinator_TriggerFullLoad(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	d, deps := newTestDeps(ctrl)

	ctx := context.Background()
	d.reader.EXPECT().Tail(ctx, "asset").Return(int64(9), nil)
	d.extractor.EXPECT().Scan(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn source.BatchFunc) error {
			return fn(ctx, []asset.Record{{Key: "a-1", Attributes: map[string]any{"id": "a-1"}}})
		})
	d.writer.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	d.writer.EXPECT().Commit(ctx).Return(nil)

	coord := New(testConfig(), deps, status.NewTracker())
	result, err := coord.TriggerFullLoad(ctx, "asset")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, int64(9), result.StartCursor)
	assert.True(t, result.Seeded)

	position, found, err := d.cursors.Load(ctx, "asset")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(9), position)
}

func TestCoordinator_TriggerFullLoad_UnknownDomain(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	_, deps := newTestDeps(ctrl)

	coord := New(testConfig(), deps, status.NewTracker())
	_, err := coord.TriggerFullLoad(context.Background(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestCoordinator_TriggerWindowLoad_InvalidWindow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	_, deps := newTestDeps(ctrl)

	coord := New(testConfig(), deps, status.NewTracker())
	now := time.Now()
	_, err := coord.TriggerWindowLoad(context.Background(), "asset", now, now, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid window")
}

package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"facecam/internal/domain/entity"
	"facecam/internal/infrastructure/storage"
)

type sessionFixture struct {
	src      *fakeSource
	factory  *recordingFactory
	uploader *fakeUploader
	calls    atomic.Int64
	session  *Session
}

func newSessionFixture(t *testing.T, loader loaderFunc, camErr error) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		src:      newFakeSource(entity.Size{Width: 640, Height: 480}, entity.Size{Width: 320, Height: 240}),
		factory:  &recordingFactory{},
		uploader: &fakeUploader{},
	}
	detector := detectorFunc(func(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error) {
		f.calls.Add(1)
		return oneFace(entity.Size{}, entity.Happy).Detections, nil
	})

	deps := SessionDeps{
		Camera:     &fakeCamera{src: f.src, err: camErr},
		Detector:   detector,
		Canvases:   f.factory,
		Gallery:    storage.NewMemoryGallery(),
		Downloader: &fakeDownloader{},
		Uploader:   f.uploader,
		Options:    entity.DefaultDetectorOptions(),
		Interval:   5 * time.Millisecond,
	}
	if loader != nil {
		deps.Loader = loader
	}
	f.session = NewSession(deps)
	t.Cleanup(func() { _ = f.session.Close() })
	return f
}

func TestSession_StartRunsDetection(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	require.NoError(t, f.session.Start(context.Background()))

	require.Eventually(t, func() bool {
		return f.session.Expression() == entity.Happy
	}, time.Second, 5*time.Millisecond)

	st := f.session.Status()
	require.Equal(t, entity.InitReady, st.Models.State)
	require.Equal(t, entity.InitReady, st.Camera.State)
	require.Equal(t, RendererDrawing, st.Overlay)
	require.True(t, st.Polling)
	require.Equal(t, 1, st.Faces)
	require.NotZero(t, st.Seq)
	require.Equal(t, 1, f.factory.Count())
	require.Equal(t, entity.Size{Width: 320, Height: 240}, f.factory.Last().Size())
	require.Equal(t, entity.Size{Width: 320, Height: 240}, st.Display)
}

func TestSession_ModelLoadFailure(t *testing.T) {
	loader := loaderFunc(func(ctx context.Context) error { return errors.New("missing face_detector") })
	f := newSessionFixture(t, loader, nil)

	err := f.session.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "load models")

	st := f.session.Status()
	require.Equal(t, entity.InitFailed, st.Models.State)
	require.Contains(t, st.Models.Error, "missing face_detector")
	require.Equal(t, entity.InitNotStarted, st.Camera.State)
	require.False(t, st.Polling)
	require.Zero(t, f.calls.Load())
}

func TestSession_CameraFailure(t *testing.T) {
	f := newSessionFixture(t, nil, errors.New("permission denied"))

	err := f.session.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "open camera")

	st := f.session.Status()
	require.Equal(t, entity.InitReady, st.Models.State)
	require.Equal(t, entity.InitFailed, st.Camera.State)
	require.Equal(t, RendererUninitialized, st.Overlay)
	require.False(t, st.Polling)
}

func TestSession_RepeatedPlayKeepsOneCanvas(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	require.NoError(t, f.session.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, f.session.OnPlay(context.Background(), f.src))
	}
	require.Equal(t, 1, f.factory.Count())
	require.True(t, f.session.Status().Polling)
}

func TestSession_PlayBeforeModelsLoaded(t *testing.T) {
	f := newSessionFixture(t, nil, nil)

	err := f.session.OnPlay(context.Background(), f.src)
	require.ErrorIs(t, err, ErrModelsNotReady)
	require.Equal(t, RendererBound, f.session.Status().Overlay)
	require.False(t, f.session.Status().Polling)
}

func TestSession_StaleResultDoesNotOverwrite(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	f.session.renderer.Bind(f.src)

	source := entity.Size{Width: 640, Height: 480}
	newer := oneFace(source, entity.Sad)
	newer.Seq = 2
	older := oneFace(source, entity.Angry)
	older.Seq = 1

	// второй вызов завершился раньше первого
	require.True(t, f.session.apply(newer))
	require.False(t, f.session.apply(older))

	require.Equal(t, entity.Sad, f.session.Expression())
	require.Equal(t, uint64(2), f.session.Status().Seq)
	require.Equal(t, entity.Sad, f.session.results.Latest().Dominant())
}

func TestSession_EmptySetClearsExpression(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	f.session.renderer.Bind(f.src)

	set := oneFace(entity.Size{Width: 640, Height: 480}, entity.Surprised)
	set.Seq = 1
	require.True(t, f.session.apply(set))
	require.Equal(t, entity.Surprised, f.session.Expression())

	require.True(t, f.session.apply(entity.ResultSet{Seq: 2, Source: set.Source}))
	require.Equal(t, entity.ExpressionUnset, f.session.Expression())
	require.Zero(t, f.session.Status().Faces)
	require.Equal(t, []string{"clear", "box", "landmarks", "text", "clear"}, f.factory.Last().Ops())
}

func TestSession_SubscribeReceivesUpdates(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	f.session.renderer.Bind(f.src)

	updates, cancel := f.session.Subscribe(4)
	defer cancel()

	set := oneFace(entity.Size{Width: 640, Height: 480}, entity.Fearful)
	set.Seq = 7
	f.session.apply(set)

	select {
	case u := <-updates:
		require.Equal(t, Update{Seq: 7, Expression: entity.Fearful, Faces: 1}, u)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	_, ok := <-updates
	require.False(t, ok)
}

func TestSession_SlowSubscriberDoesNotBlock(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	f.session.renderer.Bind(f.src)

	_, cancel := f.session.Subscribe(1)
	defer cancel()

	source := entity.Size{Width: 640, Height: 480}
	for seq := uint64(1); seq <= 10; seq++ {
		set := oneFace(source, entity.Neutral)
		set.Seq = seq
		require.True(t, f.session.apply(set))
	}
}

func TestSession_StopHaltsDetector(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	require.NoError(t, f.session.Start(context.Background()))
	require.Eventually(t, func() bool { return f.calls.Load() > 0 }, time.Second, 5*time.Millisecond)

	f.session.OnStop()
	stopped := f.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, f.calls.Load())
	require.False(t, f.session.Status().Polling)
}

func TestSession_CloseReleasesSource(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	require.NoError(t, f.session.Start(context.Background()))

	require.NoError(t, f.session.Close())
	require.True(t, f.src.closed)

	_, err := f.session.Capture(context.Background())
	require.ErrorIs(t, err, ErrNotBound)
}

func TestSession_CaptureBeforePlay(t *testing.T) {
	f := newSessionFixture(t, nil, nil)

	_, err := f.session.Capture(context.Background())
	require.ErrorIs(t, err, ErrNotBound)
	require.Zero(t, f.session.Gallery().Len())
}

func TestSession_CaptureAddsToGallery(t *testing.T) {
	f := newSessionFixture(t, nil, nil)
	require.NoError(t, f.session.Start(context.Background()))

	img, err := f.session.Capture(context.Background())
	require.NoError(t, err)
	f.session.Pipeline().Wait()

	require.Equal(t, 640, img.Width)
	require.Equal(t, 480, img.Height)
	require.Equal(t, 1, f.session.Status().Captures)
	require.Len(t, f.uploader.Payloads(), 1)
}

func TestSession_SlowDetectorDoesNotPileUpCalls(t *testing.T) {
	f := newSessionFixture(t, nil, nil)

	// детектор обрабатывает вызовы по одному и медленнее периода опроса
	var mu sync.Mutex
	var active, peak atomic.Int32
	f.session.detector = detectorFunc(func(ctx context.Context, frame image.Image, opts entity.DetectorOptions) ([]entity.Detection, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		time.Sleep(30 * time.Millisecond)
		return nil, nil
	})

	require.NoError(t, f.session.Start(context.Background()))
	time.Sleep(300 * time.Millisecond)

	require.LessOrEqual(t, peak.Load(), int32(DefaultMaxInFlight))
	require.LessOrEqual(t, f.session.Status().InFlight, DefaultMaxInFlight)
	require.NotZero(t, f.session.scheduler.Skipped())

	started := time.Now()
	f.session.OnStop()
	require.Less(t, time.Since(started), time.Second)
}

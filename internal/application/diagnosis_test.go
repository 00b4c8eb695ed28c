package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/infrastructure/storage"
	"leaf-health-bot/internal/infrastructure/vision"
	"leaf-health-bot/internal/report"
)

func encodePNG(t *testing.T, w, h int, fill func(img *image.RGBA)) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 60, G: 140, B: 60, A: 255}), image.Point{}, draw.Src)
	if fill != nil {
		fill(img)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func halfYellow(img *image.RGBA) {
	b := img.Bounds()
	draw.Draw(img, image.Rect(0, 0, b.Dx()/2, b.Dy()), image.NewUniform(color.RGBA{R: 255, G: 255, A: 255}), image.Point{}, draw.Src)
}

func newTestService(opts DiagnosisOptions) (*DiagnosisService, *storage.MemoryDiagnosisStore) {
	users := NewUserService(storage.NewMemoryUserRepository())
	store := storage.NewMemoryDiagnosisStore(0)
	svc := NewDiagnosisService(users, vision.NewDetector(), report.NewDescriber(), store, opts)
	return svc, store
}

// blockingDetector никогда не завершает анализ, пока его не отпустят.
type blockingDetector struct {
	release chan struct{}
}

func (d *blockingDetector) Analyze(img image.Image) *entity.DiagnosisResult {
	<-d.release
	return &entity.DiagnosisResult{Severity: entity.SeverityHealthy}
}

func (d *blockingDetector) Highlight(img image.Image, result *entity.DiagnosisResult) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func TestDiagnosisService_Diagnose(t *testing.T) {
	svc, store := newTestService(DiagnosisOptions{})
	ctx := context.Background()

	out, err := svc.Diagnose(ctx, 1, "leaf.png", encodePNG(t, 100, 100, halfYellow))
	require.NoError(t, err)
	require.Equal(t, "leaf.png", out.Result.ImageID)
	require.Equal(t, entity.SeverityModerate, out.Result.Severity)
	require.True(t, out.Result.HasSymptom(entity.SymptomYellowing))
	require.NotEmpty(t, out.Highlighted)
	require.Contains(t, out.Description, "Severity: Moderate")

	saved, err := store.Get(ctx, 1, "leaf.png")
	require.NoError(t, err)
	require.Same(t, out.Result, saved)
}

func TestDiagnosisService_HealthyLeafHasNoHighlight(t *testing.T) {
	svc, _ := newTestService(DiagnosisOptions{})

	out, err := svc.Diagnose(context.Background(), 1, "green.png", encodePNG(t, 50, 50, nil))
	require.NoError(t, err)
	require.Equal(t, entity.SeverityHealthy, out.Result.Severity)
	require.Empty(t, out.Result.Symptoms)
	require.Nil(t, out.Highlighted)
}

func TestDiagnosisService_GeneratesImageID(t *testing.T) {
	svc, _ := newTestService(DiagnosisOptions{})

	out, err := svc.Diagnose(context.Background(), 1, "", encodePNG(t, 20, 20, nil))
	require.NoError(t, err)
	require.Len(t, out.Result.ImageID, 36)
}

func TestDiagnosisService_DecodeError(t *testing.T) {
	svc, _ := newTestService(DiagnosisOptions{})

	_, err := svc.Diagnose(context.Background(), 1, "bad.jpg", []byte("not an image"))
	require.ErrorIs(t, err, ErrDecode)

	_, err = svc.Diagnose(context.Background(), 1, "empty.jpg", nil)
	require.ErrorIs(t, err, ErrDecode)
}

func TestDiagnosisService_DetectorNotConfigured(t *testing.T) {
	svc := NewDiagnosisService(NewUserService(storage.NewMemoryUserRepository()), nil, nil, nil, DiagnosisOptions{})

	_, err := svc.Diagnose(context.Background(), 1, "x", []byte("x"))
	require.ErrorIs(t, err, ErrDetectorNotConfigured)
}

func TestDiagnosisService_Timeout(t *testing.T) {
	det := &blockingDetector{release: make(chan struct{})}
	defer close(det.release)

	store := storage.NewMemoryDiagnosisStore(0)
	svc := NewDiagnosisService(NewUserService(storage.NewMemoryUserRepository()), det, report.NewDescriber(), store,
		DiagnosisOptions{Timeout: 20 * time.Millisecond})

	_, err := svc.Diagnose(context.Background(), 1, "slow.png", encodePNG(t, 10, 10, nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	list, err := store.List(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDiagnosisService_Downscale(t *testing.T) {
	svc, _ := newTestService(DiagnosisOptions{MaxImageSide: 40})

	out, err := svc.Diagnose(context.Background(), 1, "big.png", encodePNG(t, 160, 80, nil))
	require.NoError(t, err)
	require.Equal(t, 40, out.Result.Width)
	require.Equal(t, 20, out.Result.Height)
}

func TestDiagnosisService_ProcessPhoto(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	users := NewUserService(repo)
	svc := NewDiagnosisService(users, vision.NewDetector(), report.NewDescriber(), storage.NewMemoryDiagnosisStore(0), DiagnosisOptions{})
	ctx := context.Background()

	out, err := svc.ProcessPhoto(ctx, 5, 50, "leaf.png", encodePNG(t, 30, 30, nil))
	require.NoError(t, err)
	require.NotNil(t, out.Result)

	user, err := users.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	// Ошибка декодирования тоже возвращает пользователя в меню.
	_, err = svc.ProcessPhoto(ctx, 5, 50, "bad", []byte("??"))
	require.ErrorIs(t, err, ErrDecode)
	user, err = users.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	_, err = users.StartProcessing(ctx, 5, 50)
	require.NoError(t, err)
	_, err = svc.ProcessPhoto(ctx, 5, 50, "again.png", encodePNG(t, 30, 30, nil))
	require.ErrorIs(t, err, ErrBusy)
}

// Состояние читается из цикла обновлений бота, пока снимок анализируется в горутине.
func TestDiagnosisService_ProcessPhotoConcurrentReads(t *testing.T) {
	users := NewUserService(storage.NewMemoryUserRepository())
	svc := NewDiagnosisService(users, vision.NewDetector(), report.NewDescriber(), storage.NewMemoryDiagnosisStore(0), DiagnosisOptions{})
	ctx := context.Background()
	data := encodePNG(t, 40, 40, halfYellow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_, _ = svc.ProcessPhoto(ctx, 6, 60, "", data)
		}
	}()

	for {
		select {
		case <-done:
			user, err := users.Get(ctx, 6, 60)
			require.NoError(t, err)
			require.False(t, user.IsBusy())
			return
		default:
			user, err := users.Get(ctx, 6, 60)
			require.NoError(t, err)
			_ = user.IsBusy()
		}
	}
}

func TestDiagnosisService_DiagnoseBatch(t *testing.T) {
	svc, store := newTestService(DiagnosisOptions{Workers: 2})
	ctx := context.Background()

	items := svc.DiagnoseBatch(ctx, 9, []Upload{
		{ImageID: "a.png", Data: encodePNG(t, 100, 100, halfYellow)},
		{ImageID: "broken.png", Data: []byte("broken")},
		{ImageID: "c.png", Data: encodePNG(t, 50, 50, nil)},
	})
	require.Len(t, items, 3)

	require.NoError(t, items[0].Err)
	require.Equal(t, "a.png", items[0].ImageID)
	require.Equal(t, entity.SeverityModerate, items[0].Output.Result.Severity)

	require.ErrorIs(t, items[1].Err, ErrDecode)
	require.Nil(t, items[1].Output)

	require.NoError(t, items[2].Err)
	require.Equal(t, entity.SeverityHealthy, items[2].Output.Result.Severity)

	list, err := store.List(ctx, 9)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestDiagnosisService_ProcessBatch(t *testing.T) {
	users := NewUserService(storage.NewMemoryUserRepository())
	svc := NewDiagnosisService(users, vision.NewDetector(), report.NewDescriber(), storage.NewMemoryDiagnosisStore(0), DiagnosisOptions{Workers: 2})
	ctx := context.Background()
	uploads := []Upload{
		{ImageID: "1.png", Data: encodePNG(t, 30, 30, nil)},
		{ImageID: "2.png", Data: encodePNG(t, 30, 30, halfYellow)},
	}

	items, err := svc.ProcessBatch(ctx, 8, 80, uploads)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "1.png", items[0].ImageID)
	require.Equal(t, "2.png", items[1].ImageID)

	user, err := users.Get(ctx, 8, 80)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	_, err = users.StartProcessing(ctx, 8, 80)
	require.NoError(t, err)
	_, err = svc.ProcessBatch(ctx, 8, 80, uploads)
	require.ErrorIs(t, err, ErrBusy)
}

func TestDiagnosisService_HistoryAndReport(t *testing.T) {
	svc, _ := newTestService(DiagnosisOptions{})
	ctx := context.Background()

	_, err := svc.Diagnose(ctx, 4, "first.png", encodePNG(t, 100, 100, halfYellow))
	require.NoError(t, err)
	_, err = svc.Diagnose(ctx, 4, "second.png", encodePNG(t, 40, 40, nil))
	require.NoError(t, err)

	results, sum, err := svc.History(ctx, 4)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 2, sum.Count)
	require.Equal(t, 1, sum.BySeverity[entity.SeverityHealthy])

	md, err := svc.Report(ctx, 4, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(md), "## first.png"))
	require.True(t, strings.Contains(string(md), "## second.png"))

	require.NoError(t, svc.ClearHistory(ctx, 4))
	results, _, err = svc.History(ctx, 4)
	require.NoError(t, err)
	require.Empty(t, results)
}

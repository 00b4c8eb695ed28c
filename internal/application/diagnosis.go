package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
	"leaf-health-bot/internal/log"
	"leaf-health-bot/internal/report"
)

var (
	// ErrDecode: снимок не удалось декодировать
	ErrDecode = errors.New("failed to decode image")
	// ErrDetectorNotConfigured: сервис собран без детектора
	ErrDetectorNotConfigured = errors.New("detector is not configured")
	// ErrBusy: предыдущий снимок пользователя ещё анализируется
	ErrBusy = errors.New("previous image is still being analyzed")
)

// DiagnosisOptions: параметры сервиса диагностики.
type DiagnosisOptions struct {
	Timeout      time.Duration // предел на один анализ целиком, 0 = без ограничения
	MaxImageSide int           // уменьшение больших снимков, 0 = без уменьшения
	Workers      int           // параллельных анализов в DiagnoseBatch, 0 = по одному на снимок
}

type DiagnosisService struct {
	users     *UserService
	detector  port.SymptomDetector
	describer port.DiagnosisDescriber
	store     port.DiagnosisStore
	opts      DiagnosisOptions
}

// DiagnosisOutput содержит диагноз, картинку с подсветкой и текст для пользователя.
type DiagnosisOutput struct {
	Result      *entity.DiagnosisResult
	Highlighted []byte
	Description string
}

// Upload: один снимок для пакетной диагностики.
type Upload struct {
	ImageID string
	Data    []byte
}

// BatchItem: результат диагностики одного снимка из пакета.
type BatchItem struct {
	ImageID string
	Output  *DiagnosisOutput
	Err     error
}

// NewDiagnosisService создаёт сервис, который ведёт снимок от байтов до готового диагноза.
func NewDiagnosisService(users *UserService, detector port.SymptomDetector, describer port.DiagnosisDescriber, store port.DiagnosisStore, opts DiagnosisOptions) *DiagnosisService {
	return &DiagnosisService{
		users:     users,
		detector:  detector,
		describer: describer,
		store:     store,
		opts:      opts,
	}
}

// Diagnose декодирует снимок, анализирует его, сохраняет диагноз в историю пользователя
// и возвращает подсветку и описание. Пустой imageID заменяется случайным.
func (s *DiagnosisService) Diagnose(ctx context.Context, userID int64, imageID string, data []byte) (*DiagnosisOutput, error) {
	if s.detector == nil {
		return nil, ErrDetectorNotConfigured
	}

	img, err := DecodeImage(data, s.opts.MaxImageSide)
	if err != nil {
		return nil, err
	}
	if imageID == "" {
		imageID = uuid.NewString()
	}

	started := time.Now()
	result, err := s.analyze(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", imageID, err)
	}
	result.ImageID = imageID

	log.Infow("image analyzed",
		"user_id", userID,
		"image_id", imageID,
		"severity", result.Severity,
		"percentage", result.Percentage,
		"symptoms", result.Symptoms,
		"elapsed", time.Since(started),
	)

	var highlighted []byte
	if !result.Healthy() {
		highlighted, err = s.detector.Highlight(img, result)
		if err != nil {
			log.Warnf("highlight %s: %v", imageID, err)
		}
	}

	if s.store != nil {
		if err := s.store.Save(ctx, userID, result); err != nil {
			return nil, fmt.Errorf("save diagnosis: %w", err)
		}
	}

	var description string
	if s.describer != nil {
		description = s.describer.Describe(result)
	}

	return &DiagnosisOutput{Result: result, Highlighted: highlighted, Description: description}, nil
}

// ProcessPhoto ведёт пользователя через обработку снимка: состояние «обработка» на время
// анализа, затем возврат в главное меню при любом исходе.
func (s *DiagnosisService) ProcessPhoto(ctx context.Context, userID, chatID int64, imageID string, data []byte) (*DiagnosisOutput, error) {
	if _, err := s.users.StartProcessing(ctx, userID, chatID); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.FinishProcessing(ctx, userID, chatID); err != nil {
			log.Errorf("reset user %d state: %v", userID, err)
		}
	}()

	return s.Diagnose(ctx, userID, imageID, data)
}

// ProcessBatch то же, что ProcessPhoto, для альбома: пользователь занят, пока анализируются все снимки.
func (s *DiagnosisService) ProcessBatch(ctx context.Context, userID, chatID int64, uploads []Upload) ([]BatchItem, error) {
	if _, err := s.users.StartProcessing(ctx, userID, chatID); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.FinishProcessing(ctx, userID, chatID); err != nil {
			log.Errorf("reset user %d state: %v", userID, err)
		}
	}()

	return s.DiagnoseBatch(ctx, userID, uploads), nil
}

// DiagnoseBatch диагностирует независимые снимки параллельно.
// Порядок результатов совпадает с порядком uploads; ошибка одного снимка не влияет на остальные.
func (s *DiagnosisService) DiagnoseBatch(ctx context.Context, userID int64, uploads []Upload) []BatchItem {
	items := make([]BatchItem, len(uploads))

	var g errgroup.Group
	if s.opts.Workers > 0 {
		g.SetLimit(s.opts.Workers)
	}
	for i, u := range uploads {
		i, u := i, u
		g.Go(func() error {
			out, err := s.Diagnose(ctx, userID, u.ImageID, u.Data)
			item := BatchItem{ImageID: u.ImageID, Output: out, Err: err}
			if out != nil {
				item.ImageID = out.Result.ImageID
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	return items
}

// History возвращает сохранённые диагнозы пользователя и сводку по ним.
func (s *DiagnosisService) History(ctx context.Context, userID int64) ([]*entity.DiagnosisResult, report.Summary, error) {
	if s.store == nil {
		return nil, report.Summarize(nil), nil
	}
	results, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, report.Summary{}, err
	}
	return results, report.Summarize(results), nil
}

// Report собирает markdown-отчёт по всей истории пользователя, раздел на снимок.
func (s *DiagnosisService) Report(ctx context.Context, userID int64, now time.Time) ([]byte, error) {
	results, _, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return report.Markdown(now, results), nil
}

// ClearHistory забывает диагнозы пользователя.
func (s *DiagnosisService) ClearHistory(ctx context.Context, userID int64) error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx, userID)
}

// analyze выполняет анализ целиком в пределах таймаута; частичный результат не возвращается.
func (s *DiagnosisService) analyze(ctx context.Context, img image.Image) (*entity.DiagnosisResult, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan *entity.DiagnosisResult, 1)
	go func() {
		done <- s.detector.Analyze(img)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

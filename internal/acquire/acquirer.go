// Package acquire реализует устойчивое получение PDF с карточки документа
// в авторизованной сессии браузера. Несколько независимых стратегий
// пробуются по очереди, пока одна не вернет файл, прошедший проверку.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Request описывает один документ, который нужно получить.
type Request struct {
	Tags            []string // классификация для имени файла (класс, предмет)
	SourceID        string   // идентификатор из текущего адреса, может быть пустым
	DestinationRoot string
}

// ArtifactRecord создается только после успешной проверки и записи файла.
type ArtifactRecord struct {
	Path      string
	SizeBytes int64
	Strategy  StrategyKind
}

type Config struct {
	Artifact Artifact

	// DownloadEndpoint адрес выгрузки, абсолютный или относительно текущей страницы.
	DownloadEndpoint string
	IDField          string
	TokenField       string

	// TriggerSelector видимый элемент, по клику на который сайт отдает файл.
	TriggerSelector string
	ViewerSelectors []string
	SaveShortcut    string

	DirectReplayTimeout   time.Duration
	NativeDownloadTimeout time.Duration
	ViewerSettleTimeout   time.Duration
	ViewerProbeTimeout    time.Duration
	ViewerDownloadTimeout time.Duration
	ResourceFetchTimeout  time.Duration
	ReplicationTimeout    time.Duration
}

var DefaultViewerSelectors = []string{
	"#download",
	"#secondaryDownload",
	"button[data-l10n-id='pdfjs-download-button']",
	"button[data-l10n-id='download']",
	"cr-icon-button#download",
	"a[download]",
	"button[title*='Download' i]",
	"button[aria-label*='Download' i]",
	"button[title*='Скачать' i]",
	"a:has-text('Скачать')",
}

// DefaultSaveShortcut сочетание клавиш сохранения для текущей платформы.
func DefaultSaveShortcut() string {
	if runtime.GOOS == "darwin" {
		return "Meta+KeyS"
	}
	return "Control+KeyS"
}

// StrategyFunc одна техника получения байтов. Никогда не паникует наружу:
// любой исход выражается через Outcome.
type StrategyFunc func(ctx context.Context, page Page, req Request) Outcome

type Strategy struct {
	Kind    StrategyKind
	Timeout time.Duration
	Run     StrategyFunc
}

type Acquirer struct {
	cfg        Config
	log        *zap.Logger
	resolver   Resolver
	strategies []Strategy
}

type Option func(*Acquirer)

func WithClock(now func() time.Time) Option {
	return func(a *Acquirer) {
		a.resolver.Now = now
	}
}

// WithStrategies заменяет стандартную цепочку стратегий.
func WithStrategies(strategies ...Strategy) Option {
	return func(a *Acquirer) {
		a.strategies = strategies
	}
}

func New(cfg Config, log *zap.Logger, opts ...Option) *Acquirer {
	if cfg.Artifact.MIME == "" && len(cfg.Artifact.Magic) == 0 {
		cfg.Artifact = PDF
	}
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.TokenField == "" {
		cfg.TokenField = "token"
	}
	if len(cfg.ViewerSelectors) == 0 {
		cfg.ViewerSelectors = DefaultViewerSelectors
	}
	if cfg.SaveShortcut == "" {
		cfg.SaveShortcut = DefaultSaveShortcut()
	}
	if cfg.DirectReplayTimeout == 0 {
		cfg.DirectReplayTimeout = 30 * time.Second
	}
	if cfg.NativeDownloadTimeout == 0 {
		cfg.NativeDownloadTimeout = 5 * time.Second // на этом пути загрузка стартует сразу
	}
	if cfg.ViewerSettleTimeout == 0 {
		cfg.ViewerSettleTimeout = 10 * time.Second
	}
	if cfg.ViewerProbeTimeout == 0 {
		cfg.ViewerProbeTimeout = 10 * time.Second
	}
	if cfg.ViewerDownloadTimeout == 0 {
		cfg.ViewerDownloadTimeout = 30 * time.Second
	}
	if cfg.ResourceFetchTimeout == 0 {
		cfg.ResourceFetchTimeout = 30 * time.Second
	}
	if cfg.ReplicationTimeout == 0 {
		cfg.ReplicationTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	a := &Acquirer{
		cfg:      cfg,
		log:      log,
		resolver: NewResolver(cfg.Artifact.Extension, time.Now),
	}
	a.strategies = a.defaultStrategies()

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Resolve возвращает путь, под которым будет сохранен документ запроса.
func (a *Acquirer) Resolve(req Request) string {
	return a.resolver.Resolve(req.DestinationRoot, req.Tags, req.SourceID)
}

// Acquire пробует стратегии по порядку, каждую не больше одного раза, и
// останавливается на первом проверенном результате. Ошибка означает, что
// документ надо пропустить, а не останавливать весь прогон. Вызовы на одной
// странице должны идти последовательно.
func (a *Acquirer) Acquire(ctx context.Context, page Page, req Request) (record *ArtifactRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Непредвиденная ошибка при получении документа", zap.Any("panic", r))
			record = nil
			err = fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()

	path := a.Resolve(req)
	log := a.log.With(zap.String("path", path), zap.Strings("tags", req.Tags), zap.String("source_id", req.SourceID))

	failures := make([]error, 0, len(a.strategies))
	for _, strategy := range a.strategies {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}

		outcome := a.attempt(ctx, page, req, strategy)
		if outcome.Status != OutcomeSuccess {
			failures = append(failures, outcome.Err)
			continue
		}

		if !a.cfg.Artifact.Validate(outcome.Data, outcome.ContentType) {
			verr := &StrategyError{
				Kind:     FailureValidation,
				Strategy: strategy.Kind,
				Message:  fmt.Sprintf("%d байт, Content-Type %q", outcome.Len(), outcome.ContentType),
			}
			log.Warn("Данные не прошли проверку", zap.String("strategy", strategy.Kind.String()), zap.Error(verr))
			failures = append(failures, verr)
			continue
		}

		saved, perr := a.persist(path, outcome.Data, strategy.Kind)
		if perr != nil {
			log.Error("Ошибка сохранения документа", zap.String("strategy", strategy.Kind.String()), zap.Error(perr))
			return nil, perr
		}

		log.Info("Документ сохранен",
			zap.String("strategy", strategy.Kind.String()),
			zap.Int64("size", saved.SizeBytes))
		return saved, nil
	}

	log.Warn("Не удалось получить документ ни одной стратегией", zap.Int("attempts", len(failures)))
	return nil, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(failures...))
}

func (a *Acquirer) attempt(ctx context.Context, page Page, req Request, strategy Strategy) (outcome Outcome) {
	started := time.Now()

	sctx := ctx
	if strategy.Timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, strategy.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(strategy.Kind, "паника", fmt.Errorf("%w: %v", ErrUnexpected, r))
		}
		if outcome.Status != OutcomeSuccess && outcome.Err == nil {
			outcome.Err = &StrategyError{Kind: FailureUnexpected, Strategy: strategy.Kind, Message: "нет причины отказа"}
		}

		if outcome.Status == OutcomeFailed && outcome.Err != nil &&
			outcome.Err.Kind != FailureTimeout && errors.Is(sctx.Err(), context.DeadlineExceeded) {
			outcome.Err.Kind = FailureTimeout
		}

		fields := []zap.Field{
			zap.String("strategy", strategy.Kind.String()),
			zap.String("outcome", outcome.Status.String()),
			zap.Duration("elapsed", time.Since(started)),
		}
		switch outcome.Status {
		case OutcomeSuccess:
			a.log.Debug("Стратегия вернула данные", append(fields, zap.Int("bytes", outcome.Len()))...)
		case OutcomeNotApplicable:
			a.log.Debug("Стратегия неприменима", append(fields, zap.Error(outcome.Err))...)
		default:
			a.log.Warn("Стратегия не сработала", append(fields,
				zap.String("reason", outcome.Err.Kind.String()),
				zap.Error(outcome.Err))...)
		}
	}()

	return strategy.Run(sctx, page, req)
}

// persist пишет файл через временный файл в том же каталоге, поэтому
// неудачная запись не оставляет обрезанный документ, а повторная заменяет старый.
func (a *Acquirer) persist(path string, data []byte, kind StrategyKind) (*ArtifactRecord, error) {
	if err := a.resolver.Ensure(path); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("ошибка установки прав: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("ошибка записи: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("ошибка записи: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("ошибка переименования: %w", err)
	}

	return &ArtifactRecord{
		Path:      path,
		SizeBytes: int64(len(data)),
		Strategy:  kind,
	}, nil
}

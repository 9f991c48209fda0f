package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docFetcher/internal/acquire"
	"docFetcher/internal/browser"
	"docFetcher/internal/config"
	"docFetcher/internal/database"
	"docFetcher/internal/portal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type acquireOptions struct {
	tags      []string
	sourceID  string
	root      string
	detailURL string
	filters   map[string]string
	item      int
}

func (a *App) acquireCmd() *cobra.Command {
	opts := &acquireOptions{}

	cmd := &cobra.Command{
		Use:   "acquire --tag <t>... [--id <source>] [--root <dir>] [--url <detail>] [--item <n>]",
		Short: "Скачивает PDF с карточки документа",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAcquire(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.tags, "tag", nil, "Тег имени файла, можно указать несколько раз")
	flags.StringVar(&opts.sourceID, "id", "", "Идентификатор документа, по умолчанию из адреса карточки")
	flags.StringVar(&opts.root, "root", "", "Каталог выгрузки, по умолчанию DOWNLOAD_ROOT")
	flags.StringVar(&opts.detailURL, "url", "", "Адрес карточки, по умолчанию PORTAL_DETAIL_URL")
	flags.StringToStringVar(&opts.filters, "filter", nil, "Фильтр карточки key=value, дополняет PORTAL_FILTERS")
	flags.IntVar(&opts.item, "item", -1, "Номер элемента списка с нуля, по умолчанию по рабочему дню")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

// itemIndex возвращает элемент списка для выбора или -1, если выбирать не нужно.
func (o *acquireOptions) itemIndex(p config.Portal, today time.Time) int {
	if o.item >= 0 {
		return o.item
	}
	if p.ItemSelector == "" || p.BaseDate.IsZero() {
		return -1
	}
	return portal.BusinessDayIndex(p.BaseDate, today, p.DayOffset)
}

// resolveDetailURL добавляет к адресу карточки фильтры из конфигурации и
// флагов, флаги важнее. Пустой адрес значит, что переходить не нужно.
func (o *acquireOptions) resolveDetailURL(p config.Portal) (string, error) {
	base := o.detailURL
	if base == "" {
		base = p.DetailURL
	}
	if base == "" {
		return "", nil
	}

	filters := make(map[string]string, len(p.Filters)+len(o.filters))
	for k, v := range p.Filters {
		filters[k] = v
	}
	for k, v := range o.filters {
		filters[k] = v
	}
	return portal.DetailURL(base, filters)
}

func (o *acquireOptions) request(cfg *config.Cfg, pageURL string) acquire.Request {
	req := acquire.Request{
		Tags:            o.tags,
		SourceID:        o.sourceID,
		DestinationRoot: o.root,
	}
	if req.SourceID == "" {
		req.SourceID = portal.SourceIdentifier(pageURL, cfg.Portal.SourceParam)
	}
	if req.DestinationRoot == "" {
		req.DestinationRoot = cfg.Acquire.DestinationRoot
	}
	return req
}

func (a *App) runAcquire(ctx context.Context, opts *acquireOptions) error {
	journal, closeJournal, err := a.openJournal()
	if err != nil {
		return fmt.Errorf("журнал выгрузок: %w", err)
	}
	defer closeJournal()

	br := browser.New(browser.Config{
		Headless:     a.cfg.Browser.Headless,
		UserDataDir:  a.cfg.Browser.UserDataDir,
		BrowsersPath: a.cfg.Browser.BrowsersPath,
		Display:      a.cfg.Browser.Display,
		Timeout:      a.cfg.Browser.Timeout,
	})
	if err := br.Launch(ctx); err != nil {
		return fmt.Errorf("запуск браузера: %w", err)
	}
	defer func() {
		if err := br.Close(); err != nil {
			a.log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}()

	page, err := br.Page()
	if err != nil {
		return err
	}

	creds := portal.Credentials{
		LoginURL:         a.cfg.Portal.LoginURL,
		Username:         a.cfg.Portal.Username,
		Password:         a.cfg.Portal.Password,
		UsernameSelector: a.cfg.Portal.UsernameSelector,
		PasswordSelector: a.cfg.Portal.PasswordSelector,
		SubmitSelector:   a.cfg.Portal.SubmitSelector,
	}
	if creds.Configured() {
		if err := portal.SignIn(ctx, page, creds, a.log.Logger); err != nil {
			return err
		}
	}

	detailURL, err := opts.resolveDetailURL(a.cfg.Portal)
	if err != nil {
		return err
	}
	if detailURL != "" {
		if err := portal.OpenDetail(ctx, page, detailURL, a.log.Logger); err != nil {
			return err
		}
	}

	if index := opts.itemIndex(a.cfg.Portal, a.now()); index >= 0 {
		if err := portal.SelectItem(ctx, page, a.cfg.Portal.ItemSelector, index); err != nil {
			return err
		}
	} else if opts.item < 0 && a.cfg.Portal.ItemSelector != "" && !a.cfg.Portal.BaseDate.IsZero() {
		a.log.Warn("Текущая дата раньше базовой, элемент списка не выбран")
	}

	req := opts.request(a.cfg, page.URL())
	record, err := acquire.New(a.cfg.AcquireConfig(), a.log.Logger).Acquire(ctx, page, req)
	a.record(journal, database.NewAcquisition(req, record, err))

	if err != nil {
		if errors.Is(err, acquire.ErrExhausted) {
			a.log.Warn("Документ пропущен", zap.Strings("tags", req.Tags), zap.Error(err))
			return nil
		}
		return err
	}

	a.log.Info("Готово",
		zap.String("path", record.Path),
		zap.Int64("size", record.SizeBytes),
		zap.String("strategy", record.Strategy.String()))
	return nil
}

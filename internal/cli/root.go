// Package cli команды docFetcher.
package cli

import (
	"context"
	"time"

	"docFetcher/internal/config"
	"docFetcher/internal/database"
	"docFetcher/internal/logger"
	"docFetcher/internal/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	cfg *config.Cfg
	log *logger.Zap
	now func() time.Time
}

func New(cfg *config.Cfg, log *logger.Zap) *App {
	return &App{cfg: cfg, log: log, now: time.Now}
}

func (a *App) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docFetcher",
		Short:         "Выгрузка PDF документов из веб-портала",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(a.acquireCmd(), a.historyCmd())
	return root
}

func (a *App) Execute(ctx context.Context) error {
	return a.RootCmd().ExecuteContext(ctx)
}

// openJournal подключает журнал выгрузок. Без настроенной БД возвращает nil.
func (a *App) openJournal() (*database.AcquisitionRepository, func(), error) {
	if !a.cfg.Database.Enabled() {
		return nil, func() {}, nil
	}

	if err := migrations.Run(a.cfg, a.log); err != nil {
		return nil, nil, err
	}

	db, err := database.New(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}

	return database.NewAcquisitionRepository(db.DB), func() { db.Close(a.log) }, nil
}

func (a *App) record(journal *database.AcquisitionRepository, row *database.Acquisition) {
	if journal == nil {
		return
	}
	if err := journal.Create(row); err != nil {
		a.log.Error("Ошибка записи в журнал", zap.Error(err))
	}
}

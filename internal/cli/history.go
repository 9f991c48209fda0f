package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [--limit <n>]",
		Short: "Показывает последние записи журнала выгрузок",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Database.Enabled() {
				return fmt.Errorf("журнал недоступен: DB_HOST не задан")
			}

			journal, closeJournal, err := a.openJournal()
			if err != nil {
				return err
			}
			defer closeJournal()

			rows, err := journal.ListRecent(limit)
			if err != nil {
				return fmt.Errorf("чтение журнала: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ВРЕМЯ\tТЕГИ\tID\tСТАТУС\tСТРАТЕГИЯ\tПУТЬ / ПРИЧИНА")
			for _, row := range rows {
				detail := row.Path
				if detail == "" {
					detail = row.Reason
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					row.CreatedAt.Format("2006-01-02 15:04"), row.Tags, row.SourceID, row.Status, row.Strategy, detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Количество записей")
	return cmd
}

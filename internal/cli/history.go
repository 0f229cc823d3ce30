package cli

import (
	"fmt"
	"io"

	"foozam/internal/history"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type historyList []history.Entry

func (l historyList) Text(w io.Writer) {
	if len(l) == 0 {
		fmt.Fprintln(w, "No scans yet.")
		return
	}
	for _, e := range l {
		star := " "
		if e.IsFavorite {
			star = "*"
		}
		fmt.Fprintf(w, "%s %s  %-24s %-8s %s\n", star, e.CreatedAt.Format("2006-01-02"), e.DishName, e.ConfidenceBucket, e.ID)
	}
}

type statsView struct {
	*history.Stats
}

func (s statsView) Text(w io.Writer) {
	fmt.Fprintf(w, "Scans:     %d\n", s.TotalScans)
	fmt.Fprintf(w, "Dishes:    %d\n", s.UniqueFoods)
	fmt.Fprintf(w, "Origins:   %d\n", s.UniqueOrigins)
	fmt.Fprintf(w, "Favorites: %d\n", s.Favorites)
	for i, f := range s.TopFoods {
		fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, f.Food, f.Count)
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var favorites bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your past scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.app
			ctx, session, err := app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := history.NewService(history.NewClient(app.api)).Fetch(ctx, session.UserID)
			if err != nil {
				return WrapExitError(ExitFailure, "history unavailable", err)
			}
			if favorites {
				kept := entries[:0]
				for _, e := range entries {
					if e.IsFavorite {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			return output(rootOpts, cmd).Success(historyList(entries))
		},
	}
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only show favorites")
	return cmd
}

// NewFavoriteCommand creates the favorite command.
func NewFavoriteCommand(rootOpts *RootOptions) *cobra.Command {
	var on, off bool
	cmd := &cobra.Command{
		Use:   "favorite <entry-id>",
		Short: "Toggle the favorite mark on a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if on && off {
				return NewExitError(ExitCommandError, "--on and --off are mutually exclusive")
			}
			app := rootOpts.app
			ctx, session, err := app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			svc := history.NewService(history.NewClient(app.api))
			if _, err := svc.Fetch(ctx, session.UserID); err != nil {
				return WrapExitError(ExitFailure, "history unavailable", err)
			}

			var entry history.Entry
			switch {
			case on, off:
				entry, err = svc.SetFavorite(ctx, args[0], on)
			default:
				entry, err = svc.ToggleFavorite(ctx, args[0])
			}
			if err != nil {
				if errors.Is(err, history.ErrNotFound) {
					return NewExitError(ExitCommandError, "no history entry "+args[0])
				}
				return WrapExitError(ExitFailure, "favorite not updated", err)
			}
			return output(rootOpts, cmd).Success(historyList{entry})
		},
	}
	cmd.Flags().BoolVar(&on, "on", false, "mark as favorite")
	cmd.Flags().BoolVar(&off, "off", false, "remove the favorite mark")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your scan statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.app
			ctx, session, err := app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := history.NewService(history.NewClient(app.api)).Stats(ctx, session.UserID)
			if err != nil {
				return WrapExitError(ExitFailure, "stats unavailable", err)
			}
			return output(rootOpts, cmd).Success(statsView{stats})
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"morelikethis/internal/imdbid"
	"morelikethis/internal/media"
	"morelikethis/internal/recommend"
)

var errNoTMDBKey = errors.New("no TMDB key configured; set tmdb.api_key or export TMDB_API_KEY")

type aiFlags struct {
	kind   string
	count  int
	filter string
	model  string
	json   bool
}

func (f aiFlags) parseKind() (media.Kind, error) {
	if strings.TrimSpace(f.kind) == "" {
		return media.KindUnknown, nil
	}
	kind := media.ParseKind(f.kind)
	if !kind.Valid() {
		return media.KindUnknown, fmt.Errorf("invalid --type %q (want movie or series)", f.kind)
	}
	return kind, nil
}

func (f aiFlags) ai() recommend.AI {
	ai := recommend.AI{Model: strings.TrimSpace(f.model), Count: f.count}
	if strings.TrimSpace(f.filter) != "" {
		ai.Filter = media.ParseContentFilter(f.filter)
	}
	return ai
}

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var flags aiFlags

	cmd := &cobra.Command{
		Use:   "recommend <imdb-id>",
		Short: "Recommend titles similar to an IMDb title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if !imdbid.Valid(id) {
				return fmt.Errorf("invalid IMDb id %q", id)
			}
			kind, err := flags.parseKind()
			if err != nil {
				return err
			}
			return ctx.withPipeline("stderr", func(p *pipeline) error {
				if p.cfg.TMDB.APIKey == "" {
					return errNoTMDBKey
				}
				result, ok := p.service.TitleRecommendations(cmd.Context(), recommend.TitleRequest{
					ExternalID: id,
					Kind:       kind,
					Keys:       p.keys(),
					AI:         flags.ai(),
				})
				if !ok {
					return fmt.Errorf("title %s could not be resolved on TMDB", imdbid.Base(id))
				}
				if flags.json {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recommendations for %s (%s, %s)\n", result.SourceTitle, result.ExternalID, result.Kind.Label())
				if p.cfg.Gemini.APIKey == "" {
					fmt.Fprintln(out, "No Gemini key configured; set gemini.api_key or export GEMINI_API_KEY.")
				}
				printEntries(out, result.Entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "type", "t", "", "Media type (movie or series); defaults to the resolved title's type")
	cmd.Flags().IntVarP(&flags.count, "count", "n", 0, "Number of suggestions to request (1-30)")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "Content filter: same or all")
	cmd.Flags().StringVar(&flags.model, "model", "", "Gemini model override")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output as JSON")
	return cmd
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var flags aiFlags

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List acclaimed titles without a seed title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := flags.parseKind()
			if err != nil {
				return err
			}
			return ctx.withPipeline("stderr", func(p *pipeline) error {
				if p.cfg.TMDB.APIKey == "" {
					return errNoTMDBKey
				}
				if p.cfg.Gemini.APIKey == "" {
					return errors.New("no Gemini key configured; set gemini.api_key or export GEMINI_API_KEY")
				}
				result := p.service.GeneralRecommendations(cmd.Context(), recommend.GeneralRequest{
					Kind: kind,
					Keys: p.keys(),
					AI:   flags.ai(),
				})
				if flags.json {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Must-watch titles (%s)\n", result.Kind.Label())
				printEntries(out, result.Entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "type", "t", "", "Media type (movie or series); defaults to movie")
	cmd.Flags().IntVarP(&flags.count, "count", "n", 0, "Number of suggestions to request (1-30)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Gemini model override")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output as JSON")
	return cmd
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "similar <imdb-id>",
		Short: "List TMDB's similar titles for an IMDb title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if !imdbid.Valid(id) {
				return fmt.Errorf("invalid IMDb id %q", id)
			}
			return ctx.withPipeline("stderr", func(p *pipeline) error {
				if p.cfg.TMDB.APIKey == "" {
					return errNoTMDBKey
				}
				result, ok := p.service.SimilarTitles(cmd.Context(), id, p.cfg.TMDB.APIKey)
				if !ok {
					return fmt.Errorf("title %s could not be resolved on TMDB", imdbid.Base(id))
				}
				if asJSON {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Similar to %s (%s)\n", result.SourceTitle, result.ExternalID)
				printEntries(out, result.Entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printEntries(out io.Writer, entries []media.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No titles found")
		return
	}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		year := ""
		if entry.Year > 0 {
			year = strconv.Itoa(entry.Year)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.Title,
			year,
			string(entry.Kind),
			entry.ExternalID,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Year", "Type", "IMDb"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

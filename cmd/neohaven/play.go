package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/neo-haven/internal/config"
	"github.com/talgya/neo-haven/internal/engine"
	"github.com/talgya/neo-haven/internal/social"
)

func runPlay(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(out, "NEO HAVEN - Mayor's Office")
	fmt.Fprintln(out, "Type a decree and press enter. 'quit' leaves office early.")
	fmt.Fprintln(out)
	printMetrics(out, s.orch.Snapshot().Metrics, nil)

	sc := bufio.NewScanner(in)
	for {
		st := s.orch.Snapshot()
		if st.Over() {
			printVerdict(out, st)
			return nil
		}
		fmt.Fprintf(out, "\n[%s turn] > ", humanize.Ordinal(st.Metrics.Turn))
		if !sc.Scan() {
			return sc.Err()
		}
		action := strings.TrimSpace(sc.Text())
		if action == "quit" {
			return nil
		}

		res, err := s.orch.SubmitTurn(ctx, action)
		switch {
		case errors.Is(err, engine.ErrEmptyAction):
			fmt.Fprintln(out, "The council waits for a decree.")
			continue
		case err != nil:
			return err
		}
		printTurn(out, res)
	}
}

func printTurn(out io.Writer, res engine.Outcome) {
	fmt.Fprintf(out, "\n%s\n\n", res.Result.Narrative)
	printMetrics(out, res.State.Metrics, &res.Deltas)

	if len(res.Result.AgentSamples) > 0 {
		fmt.Fprintln(out, "\nVoices from the street:")
		for _, a := range res.Result.AgentSamples {
			fmt.Fprintf(out, "  %s: %q (%s)\n", a.Name, a.Thought, a.Action)
		}
	}

	fmt.Fprintln(out, "\nDistricts:")
	for _, d := range social.SummarizeAll(res.State.Citizens, social.Filter{}) {
		if d.Count == 0 {
			fmt.Fprintf(out, "  %-16s empty\n", d.District)
			continue
		}
		fmt.Fprintf(out, "  %-16s %3d residents  happiness %5.1f  wealth $%s  leaning %s\n",
			d.District, d.Count, *d.MeanHappiness, humanize.Commaf(float64(int64(*d.MeanWealth))), *d.DominantPolitics)
	}
}

func printMetrics(out io.Writer, m engine.Metrics, d *engine.MetricDeltas) {
	change := func(v float64) string {
		if d == nil || v == 0 {
			return ""
		}
		return fmt.Sprintf(" (%+.1f)", v)
	}
	var dd engine.MetricDeltas
	if d != nil {
		dd = *d
	}
	fmt.Fprintf(out, "  Approval     %5.1f%%%s\n", m.GovApproval, change(dd.GovApproval))
	fmt.Fprintf(out, "  Happiness    %5.1f%s\n", m.AvgHappiness, change(dd.AvgHappiness))
	fmt.Fprintf(out, "  Unemployment %5.1f%%%s\n", m.Unemployment, change(dd.Unemployment))
	fmt.Fprintf(out, "  Crime        %5.1f%s\n", m.CrimeRate, change(dd.CrimeRate))
	fmt.Fprintf(out, "  GDP          $%sM%s\n", humanize.Commaf(m.GDP), change(dd.GDP))
	fmt.Fprintf(out, "  Population   %s%s\n", humanize.Comma(int64(m.Population)), change(dd.Population))
}

func printVerdict(out io.Writer, st engine.State) {
	fmt.Fprintln(out)
	switch st.Status {
	case engine.Won:
		fmt.Fprintf(out, "RE-ELECTED. Neo Haven trusts you with %.1f%% approval.\n", st.Metrics.GovApproval)
	default:
		fmt.Fprintf(out, "IMPEACHED. Approval ended at %.1f%% after %d decrees.\n", st.Metrics.GovApproval, len(st.History))
	}
}

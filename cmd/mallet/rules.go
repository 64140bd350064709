package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/config"
	"github.com/chris-regnier/mallet/internal/lint"
)

func newRulesCmd() *cobra.Command {
	var (
		onlyEnabled bool
		doc         bool
	)
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the available rules or document one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, _, err := newAnalyzer(cfg, analyzerOptions{noCache: true})
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return listRules(cmd.OutOrStdout(), a.Rules(), onlyEnabled)
			}
			info, ok := a.Rule(args[0])
			if !ok {
				return fmt.Errorf("unknown rule %q", args[0])
			}
			md := ruleDoc(info, cfg)
			if !doc && isTerminal(os.Stdout) {
				md, err = renderMarkdown(md, terminalWidth(os.Stdout))
				if err != nil {
					return err
				}
			}
			_, err = io.WriteString(cmd.OutOrStdout(), md)
			return err
		},
	}
	cmd.Flags().BoolVar(&onlyEnabled, "enabled", false, "List only the rules the configuration runs")
	cmd.Flags().BoolVar(&doc, "doc", false, "Print the rule documentation as raw Markdown")
	return cmd
}

func init() {
	rootCmd.AddCommand(newRulesCmd())
}

func listRules(w io.Writer, infos []analyzer.RuleInfo, onlyEnabled bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENABLED\tCORRECTABLE\tKIND\tSEVERITY\tLANGUAGES")
	for _, info := range infos {
		if onlyEnabled && !info.Enabled {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.ID, yesNo(info.Enabled), yesNo(info.Correctable), info.Kind, info.Severity, languages(info.Languages))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func languages(langs []string) string {
	if len(langs) == 0 {
		return "all"
	}
	return strings.Join(langs, ", ")
}

// ruleDoc renders a rule's description and examples as Markdown.
func ruleDoc(info analyzer.RuleInfo, cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", info.Name)
	fmt.Fprintf(&b, "%s\n\n", info.Summary)
	fmt.Fprintf(&b, "* **Identifier:** `%s`\n", info.ID)
	fmt.Fprintf(&b, "* **Enabled:** %s\n", yesNo(info.Enabled))
	fmt.Fprintf(&b, "* **Opt-in:** %s\n", yesNo(info.OptIn))
	fmt.Fprintf(&b, "* **Correctable:** %s\n", yesNo(info.Correctable))
	fmt.Fprintf(&b, "* **Kind:** %s\n", info.Kind)
	fmt.Fprintf(&b, "* **Severity:** %s\n", cfg.RuleSeverity(info.ID).Or(info.Severity).Or(lint.SeverityWarning))
	fmt.Fprintf(&b, "* **Languages:** %s\n", languages(info.Languages))

	section := func(title string, codes []string) {
		if len(codes) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n", title)
		for _, code := range codes {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", strings.TrimRight(code, "\n"))
		}
	}
	var non, trig, corr []string
	for _, ex := range info.NonTriggering {
		non = append(non, ex.Code)
	}
	for _, ex := range info.Triggering {
		trig = append(trig, ex.Code)
	}
	for _, c := range info.Corrections {
		corr = append(corr, strings.TrimRight(c.Before.Code, "\n")+"\n// becomes\n"+c.After)
	}
	section("Non Triggering Examples", non)
	section("Triggering Examples", trig)
	section("Corrections", corr)
	return b.String()
}

func renderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

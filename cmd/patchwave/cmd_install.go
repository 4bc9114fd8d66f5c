package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchwave/patchwave/internal/domain"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Ensure every catalog object exists on the endpoint",
	Long: `Processes the catalog in order and creates whatever is missing.
Objects that already exist are left exactly as they are, so re-running
install against a provisioned endpoint changes nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd, domain.ModeInstall)
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Tear down every catalog object, in reverse order",
	Long: `Processes the catalog in reverse order and removes each object.
Groups that still have active associations are skipped and reported as
blocked; everything else is still attempted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd, domain.ModeUninstall)
	},
}

func runProvision(cmd *cobra.Command, mode domain.Mode) error {
	ctx := cmd.Context()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	app, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.shutdown()

	var report domain.RunReport
	switch mode {
	case domain.ModeInstall:
		report, err = app.provision.Install(ctx, catalog)
	case domain.ModeUninstall:
		report, err = app.provision.Uninstall(ctx, catalog)
	}
	if err != nil {
		return err
	}

	printReport(cmd, report)
	if report.Failed() {
		return fmt.Errorf("%d object(s) failed", report.Tally().Failed)
	}
	return nil
}

func printReport(cmd *cobra.Command, report domain.RunReport) {
	out := cmd.OutOrStdout()

	for _, e := range report.Ensures {
		if e.Err != "" {
			fmt.Fprintf(out, "%-16s %s/%s (%s)\n", e.Status, e.Kind, e.Name, e.Err)
			continue
		}
		fmt.Fprintf(out, "%-16s %s/%s\n", e.Status, e.Kind, e.Name)
	}
	for _, r := range report.Removes {
		if r.Err != "" {
			fmt.Fprintf(out, "%-16s %s/%s (%s)\n", r.Status, r.Kind, r.Name, r.Err)
			continue
		}
		fmt.Fprintf(out, "%-16s %s/%s\n", r.Status, r.Kind, r.Name)
	}
	for _, p := range report.PhaseErrs {
		fmt.Fprintf(out, "phase-failed     rule/%s -> %s (%s)\n", p.RuleName, p.TargetGroup, p.Err)
	}

	fmt.Fprintln(out)
	byKind := report.TallyByKind()
	for _, kind := range []domain.ObjectKind{domain.KindGroup, domain.KindPackage, domain.KindRule} {
		t, ok := byKind[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%-8s %s\n", kind, formatTally(t))
	}
	fmt.Fprintf(out, "%-8s %s\n", "total", formatTally(report.Tally()))
}

func formatTally(t domain.Tally) string {
	return fmt.Sprintf("created %d, already present %d, removed %d, not found %d, blocked %d, failed %d",
		t.Created, t.AlreadyPresent, t.Removed, t.NotFound, t.Blocked, t.Failed)
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
	"github.com/MahdiBaghbani/containers-sub001/internal/diag"
	"github.com/MahdiBaghbani/containers-sub001/internal/docs"
	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
	"github.com/MahdiBaghbani/containers-sub001/internal/tlsgen"
)

var (
	headingColor = color.New(color.FgHiWhite, color.Bold)
	builtColor   = color.New(color.FgGreen)
	skippedColor = color.New(color.FgYellow)
	failedColor  = color.New(color.FgRed)
	pendingColor = color.New(color.FgHiBlack)
	mutedColor   = color.New(color.FgHiBlack)
)

func statusColor(st orchestrator.Status) *color.Color {
	switch st {
	case orchestrator.StatusBuilt:
		return builtColor
	case orchestrator.StatusSkipped:
		return skippedColor
	case orchestrator.StatusFailed:
		return failedColor
	default:
		return pendingColor
	}
}

func renderOrder(w io.Writer, order []dag.Node) {
	headingColor.Fprintf(w, "Build order (%d nodes):\n", len(order))
	for i, n := range order {
		fmt.Fprintf(w, "%3d. %s\n", i+1, n.Key())
	}
}

func renderHashes(w io.Writer, order []dag.Node, hashes map[dag.Node]string) {
	width := 0
	for _, n := range order {
		if l := len(n.Key()); l > width {
			width = l
		}
	}
	for _, n := range order {
		fmt.Fprintf(w, "%-*s  %s\n", width, n.Key(), hashes[n])
	}
}

func renderSummary(w io.Writer, s *orchestrator.Summary) {
	headingColor.Fprintf(w, "Run %s\n", s.RunID)
	for _, o := range s.Outcomes {
		statusColor(o.Status).Fprintf(w, "  %-7s", o.Status)
		fmt.Fprintf(w, "  %s", o.Node.Key())
		if o.Duration > 0 {
			mutedColor.Fprintf(w, "  (%s)", o.Duration.Round(time.Millisecond))
		}
		if o.Reason != "" {
			mutedColor.Fprintf(w, "  %s", o.Reason)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d built, %d skipped, %d failed, %d pending in %s\n",
		s.Built, s.Skipped, s.Failed, s.Pending, s.Duration.Round(time.Millisecond))
}

func renderFailureLine(s *orchestrator.Summary) string {
	var failed []string
	for _, o := range s.Outcomes {
		if o.Status == orchestrator.StatusFailed {
			failed = append(failed, o.Node.Key())
		}
	}
	return fmt.Sprintf("build failed for %d node(s): %s", len(failed), strings.Join(failed, ", "))
}

func renderList(w io.Writer, infos []app.ServiceInfo) {
	for _, info := range infos {
		headingColor.Fprintln(w, info.Name)
		if info.FixedVersion != "" {
			fmt.Fprintf(w, "  version: %s (fixed)\n", info.FixedVersion)
		}
		for _, v := range info.Versions {
			line := "  " + v.Name
			if v.Latest {
				line += builtColor.Sprint("  latest")
			}
			if len(v.Tags) > 0 {
				line += mutedColor.Sprintf("  tags: %s", strings.Join(v.Tags, ", "))
			}
			fmt.Fprintln(w, line)
		}
		if len(info.Platforms) > 0 {
			var names []string
			for _, p := range info.Platforms {
				if p == info.DefaultPlatform {
					p += " (default)"
				}
				names = append(names, p)
			}
			fmt.Fprintf(w, "  platforms: %s\n", strings.Join(names, ", "))
		}
	}
}

func renderCerts(w io.Writer, result *tlsgen.Result) {
	for _, name := range result.Created {
		builtColor.Fprintf(w, "created  %s\n", name)
	}
	for _, name := range result.Reused {
		mutedColor.Fprintf(w, "reused   %s\n", name)
	}
	if len(result.Created) == 0 && len(result.Reused) == 0 {
		fmt.Fprintln(w, "nothing to provision")
	}
}

func renderFindings(w io.Writer, findings []docs.Finding) {
	for _, f := range findings {
		c := skippedColor
		if f.Severity == docs.SeverityError {
			c = failedColor
		}
		c.Fprintln(w, f.String())
	}
	if len(findings) == 0 {
		builtColor.Fprintln(w, "documentation clean")
	}
}

func renderDiag(w io.Writer, r *diag.Report) {
	headingColor.Fprintln(w, "Disk")
	fmt.Fprintf(w, "  services dir  %s  %d files, %s\n", r.ServicesDir.Path, r.ServicesDir.Files, r.ServicesDir.HumanSize())
	if r.CacheDir != nil {
		fmt.Fprintf(w, "  cache dir     %s  %d files, %s\n", r.CacheDir.Path, r.CacheDir.Files, r.CacheDir.HumanSize())
	}
	fmt.Fprintf(w, "  volume        %s  %s free of %s (%.1f%% used)\n",
		r.Volume.Path, r.Volume.HumanFree(), r.Volume.HumanTotal(), r.Volume.UsedPercent)

	headingColor.Fprintln(w, "Builder")
	if r.BuilderOK {
		builtColor.Fprintln(w, "  reachable")
	} else {
		failedColor.Fprintf(w, "  unreachable: %s\n", r.BuilderError)
	}
}

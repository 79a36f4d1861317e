package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/linuxautomation/autokit/pkg/cleanup"
	"github.com/linuxautomation/autokit/pkg/fileops"
	"github.com/linuxautomation/autokit/pkg/sysops"
)

const rule = "================================================================================"

var (
	title   = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed, color.Bold)
	faint   = color.New(color.FgHiBlack)
	warning = color.New(color.FgYellow)
)

func renderText(w io.Writer, v interface{}) error {
	switch r := v.(type) {
	case cleanup.Result:
		return cleanupText(w, r)
	case *cleanup.Result:
		return cleanupText(w, *r)
	case fileops.OrganizeResult:
		return organizeText(w, r)
	case fileops.CleanupFilesResult:
		return oldFilesText(w, r)
	case fileops.CleanupDirsResult:
		return emptyDirsText(w, r)
	case fileops.PermissionsResult:
		_, err := fmt.Fprintf(w, "Changed permissions to %s on %d path(s), %d error(s)\n", r.Mode, r.Changed, r.Errors)
		return err
	case []fileops.LargeFile:
		return largeFilesText(w, r)
	case sysops.CommandResult:
		return commandText(w, r)
	case sysops.DiskUsage:
		_, err := fmt.Fprintf(w, "Disk usage of %s: %s, %s free\n", r.Path, r, units.BytesSize(float64(r.Free)))
		return err
	case sysops.ProcessInfo:
		return processText(w, r)
	case sysops.Report:
		return systemText(w, r)
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, r.String())
		return err
	default:
		_, err := fmt.Fprintf(w, "%+v\n", v)
		return err
	}
}

func cleanupText(w io.Writer, r cleanup.Result) error {
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString(title.Sprint("CLEANUP REPORT"))
	if r.DryRun {
		b.WriteString(warning.Sprint(" (dry run)"))
	}
	b.WriteString("\n" + rule + "\n")

	ops := r.Operations
	if ops.OldFiles != nil {
		fmt.Fprintf(&b, "Old files deleted: %d\n", ops.OldFiles.Deleted)
		fmt.Fprintf(&b, "Errors during deletion: %d\n", ops.OldFiles.Errors)
		if ops.OldFiles.FreedBytes > 0 {
			fmt.Fprintf(&b, "Space freed: %s\n", units.BytesSize(float64(ops.OldFiles.FreedBytes)))
		}
	}
	if ops.EmptyDirs != nil {
		fmt.Fprintf(&b, "Empty directories removed: %d\n", ops.EmptyDirs.Removed)
		fmt.Fprintf(&b, "Errors during removal: %d\n", ops.EmptyDirs.Errors)
	}
	if ops.Organize != nil {
		fmt.Fprintf(&b, "Files organized: %d\n", ops.Organize.Organized)
		fmt.Fprintf(&b, "Errors during organization: %d\n", ops.Organize.Errors)
	}
	if ops.DiskUsage != nil {
		fmt.Fprintf(&b, "Disk usage: %s\n", ops.DiskUsage)
	}
	if r.Success {
		b.WriteString(good.Sprint("Status: success") + "\n")
	} else {
		b.WriteString(bad.Sprintf("Status: failed (%s)", r.Error) + "\n")
	}
	b.WriteString(rule + "\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func organizeText(w io.Writer, r fileops.OrganizeResult) error {
	return detailsText(w, r.Details, fmt.Sprintf("Organized %d file(s), %d error(s)", r.Organized, r.Errors), r.DryRun)
}

func oldFilesText(w io.Writer, r fileops.CleanupFilesResult) error {
	return detailsText(w, r.Details,
		fmt.Sprintf("Deleted %d old file(s) (%s), %d error(s)", r.Deleted, units.BytesSize(float64(r.FreedBytes)), r.Errors),
		r.DryRun)
}

func emptyDirsText(w io.Writer, r fileops.CleanupDirsResult) error {
	return detailsText(w, r.Details, fmt.Sprintf("Removed %d empty director(ies), %d error(s)", r.Removed, r.Errors), r.DryRun)
}

func detailsText(w io.Writer, details []string, summary string, dryRun bool) error {
	var b strings.Builder
	for _, d := range details {
		b.WriteString("  " + d + "\n")
	}
	if dryRun {
		summary += warning.Sprint(" (dry run)")
	}
	b.WriteString(summary + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func largeFilesText(w io.Writer, files []fileops.LargeFile) error {
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, "No large files found")
		return err
	}
	table := uitable.New()
	table.MaxColWidth = 100
	table.AddRow("SIZE", "PATH")
	for _, f := range files {
		table.AddRow(units.HumanSize(float64(f.Size)), f.Path)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func commandText(w io.Writer, r sysops.CommandResult) error {
	var b strings.Builder
	b.WriteString(r.Output)
	if r.Output != "" && !strings.HasSuffix(r.Output, "\n") {
		b.WriteString("\n")
	}
	if r.Error != "" {
		b.WriteString(faint.Sprint(strings.TrimRight(r.Error, "\n")) + "\n")
	}
	status := good.Sprint("ok")
	if !r.Success {
		status = bad.Sprint("failed")
	}
	fmt.Fprintf(&b, "%s: %s (exit code %d, %s)\n", r.Command, status, r.ReturnCode, r.Duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}

func processText(w io.Writer, r sysops.ProcessInfo) error {
	if !r.Found {
		_, err := fmt.Fprintf(w, "No process matching %q\n", r.Query)
		return err
	}
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("PID", "USER", "NAME", "COMMAND")
	for _, p := range r.Processes {
		table.AddRow(p.PID, p.User, p.Name, p.Cmdline)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func systemText(w io.Writer, r sysops.Report) error {
	var b strings.Builder
	b.WriteString(title.Sprint("SYSTEM REPORT") + " " + faint.Sprint(r.Timestamp.Format(time.RFC3339)) + "\n")

	table := uitable.New()
	if r.Host != nil {
		table.AddRow("Hostname:", r.Host.Hostname)
		table.AddRow("OS:", strings.TrimSpace(r.Host.OS+" "+r.Host.Platform+" "+r.Host.PlatformVersion))
		table.AddRow("Kernel:", r.Host.KernelVersion)
		table.AddRow("Uptime:", units.HumanDuration(r.Host.Uptime))
	}
	if r.Disk != nil {
		table.AddRow("Disk ("+r.Disk.Path+"):", r.Disk.String())
	}
	if len(table.Rows) > 0 {
		b.WriteString(table.String() + "\n")
	}
	for _, e := range r.Errors {
		b.WriteString(bad.Sprint("error: ") + e + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

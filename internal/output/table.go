package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jbweber/makehd/internal/provision"
)

// TableFormatter formats results as human-readable key/value tables.
type TableFormatter struct {
	// NoHeaders omits the header row of list tables.
	NoHeaders bool
}

// FormatReport formats a run report as one field per line.
func (f *TableFormatter) FormatReport(r *provision.Report) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	status := "Succeeded"
	if r.Error != "" {
		status = "Failed"
	}

	_, _ = fmt.Fprintf(w, "RUN\t%s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "STATUS\t%s\n", status)
	_, _ = fmt.Fprintf(w, "IMAGE\t%s\n", r.Image)
	_, _ = fmt.Fprintf(w, "SIZE\t%s\n", sizeWithGeometry(r.SizeBytes, r.SectorCount, r.SectorSize))
	_, _ = fmt.Fprintf(w, "LOOP DEVICE\t%s\n", orDash(r.LoopDevice))
	_, _ = fmt.Fprintf(w, "PARTITION\t%s\n", orDash(r.PartitionDevice))
	_, _ = fmt.Fprintf(w, "FILESYSTEM\t%s\n", orDash(r.Identity))

	copied := "skipped (no source tree)"
	if r.SourcePresent {
		copied = fmt.Sprintf("%d files from %s", r.FilesCopied, r.SourceDir)
	}
	_, _ = fmt.Fprintf(w, "POPULATED\t%s\n", copied)

	usage := "-"
	if r.Usage != nil {
		usage = fmt.Sprintf("%s used of %s (%.0f%%)",
			humanize.IBytes(r.Usage.Used), humanize.IBytes(r.Usage.Total), r.Usage.UsePercent())
	}
	_, _ = fmt.Fprintf(w, "USAGE\t%s\n", usage)
	_, _ = fmt.Fprintf(w, "DURATION\t%s\n", formatDuration(r.Duration))

	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "ERROR\t%s\n", r.Error)
	}
	_ = w.Flush()

	if len(r.Teardown) > 0 {
		buf.WriteString("\n")
		buf.WriteString(f.teardownTable(r.Teardown))
	}

	return buf.String(), nil
}

// FormatPlan formats a dry run with the partition script.
func (f *TableFormatter) FormatPlan(p *provision.Plan) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "IMAGE\t%s\n", p.Image)
	_, _ = fmt.Fprintf(w, "SIZE\t%s\n", sizeWithGeometry(p.SizeBytes, p.SectorCount, p.SectorSize))

	existing := "none or matching"
	if p.Mismatch != nil {
		existing = fmt.Sprintf("%s, confirmation required", humanize.IBytes(uint64(p.Mismatch.Existing)))
	}
	_, _ = fmt.Fprintf(w, "EXISTING\t%s\n", existing)
	_, _ = fmt.Fprintf(w, "MOUNT DIR\t%s\n", p.MountDir)

	source := fmt.Sprintf("%s (absent, skipped)", p.SourceDir)
	if p.Populate {
		source = p.SourceDir
	}
	_, _ = fmt.Fprintf(w, "SOURCE\t%s\n", source)
	_, _ = fmt.Fprintf(w, "MISSING\t%s\n", orDash(strings.Join(p.Missing, ", ")))

	stages := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		stages[i] = string(s)
	}
	_, _ = fmt.Fprintf(w, "STAGES\t%s\n", strings.Join(stages, " -> "))
	_ = w.Flush()

	buf.WriteString("\nPartition script:\n")
	for _, line := range strings.Split(strings.TrimRight(p.Script, "\n"), "\n") {
		buf.WriteString("  " + line + "\n")
	}

	return buf.String(), nil
}

// FormatTeardown formats release steps as a table.
func (f *TableFormatter) FormatTeardown(steps []provision.TeardownStep) (string, error) {
	if len(steps) == 0 {
		return "Nothing to release\n", nil
	}
	return f.teardownTable(steps), nil
}

func (f *TableFormatter) teardownTable(steps []provision.TeardownStep) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "STEP\tTARGET\tRESULT")
	}
	for _, s := range steps {
		result := "ok"
		if !s.OK() {
			result = s.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Target, result)
	}

	_ = w.Flush()
	return buf.String()
}

func sizeWithGeometry(size int64, sectors, sectorSize uint64) string {
	if size <= 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%d sectors of %d bytes)", humanize.IBytes(uint64(size)), sectors, sectorSize)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration formats a run duration compactly.
// Examples: "850ms", "42s", "3m12s", "1h5m"
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds%60)
	}

	return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
}

// internal/report/report.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
)

// Meta describes the run for the report header and filename tags.
type Meta struct {
	DryRun      bool
	Force       bool
	OrderStatus string
}

// Writer persists one plain-text report per run under Dir. The artifact is
// operator-facing only; nothing parses it back.
type Writer struct {
	Dir string
	Now func() time.Time // test seam, defaults to time.Now
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Filename builds message_report[_dry_run][_force][_status_<S>]_<DD-MM-YY_HH-MM-SS>.txt.
// Second-granularity timestamps plus the tags keep names collision-free in
// practice.
func (w *Writer) Filename(meta Meta, at time.Time) string {
	parts := []string{"message_report"}
	if meta.DryRun {
		parts = append(parts, "dry_run")
	}
	if meta.Force {
		parts = append(parts, "force")
	}
	if meta.OrderStatus != "" {
		parts = append(parts, "status_"+meta.OrderStatus)
	}
	parts = append(parts, at.Format("02-01-06_15-04-05"))
	return strings.Join(parts, "_") + ".txt"
}

// Write renders the run report and returns its path.
func (w *Writer) Write(res *dispatch.Result, meta Meta) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}

	at := w.now()
	path := filepath.Join(w.Dir, w.Filename(meta, at))

	var b strings.Builder
	rule := strings.Repeat("=", 80)
	line := strings.Repeat("-", 80)

	b.WriteString(rule + "\n")
	b.WriteString("MOJO WHATSAPP MESSAGE REPORT\n")
	b.WriteString("Generated: " + at.Format("2006-01-02 15:04:05") + "\n")
	if meta.DryRun {
		b.WriteString("Mode: DRY RUN (no messages actually sent)\n")
	} else {
		b.WriteString("Mode: LIVE RUN\n")
	}
	if meta.Force {
		b.WriteString("WARNING: FORCE MODE ENABLED - Including previously messaged recipients\n")
	}
	b.WriteString(rule + "\n\n")

	if meta.OrderStatus != "" {
		b.WriteString("MESSAGE SENT TO:\n")
		b.WriteString("  Orders with status: " + meta.OrderStatus + "\n\n")
	}

	b.WriteString("DETAILED MESSAGE LOG:\n")
	b.WriteString(line + "\n")
	for i, out := range res.Outcomes {
		fmt.Fprintf(&b, "Message %d:\n", i+1)
		fmt.Fprintf(&b, "  Order ID: %s\n", out.OrderID)
		fmt.Fprintf(&b, "  Recipient: %s\n", out.Recipient)
		fmt.Fprintf(&b, "  Phone Number: %s\n", out.PhoneNumber)
		fmt.Fprintf(&b, "  Status: %s\n", out.Status)
		if out.MessageSID != nil {
			fmt.Fprintf(&b, "  Message SID: %s\n", *out.MessageSID)
		}
		if out.Error != nil {
			fmt.Fprintf(&b, "  Error: %s\n", *out.Error)
		}
		fmt.Fprintf(&b, "  Timestamp: %s\n", out.Timestamp.Format(time.RFC3339))
		b.WriteString(line + "\n")
	}

	b.WriteString("\nSUMMARY:\n")
	fmt.Fprintf(&b, "Total unique recipients: %d\n", res.Summary.Total)
	fmt.Fprintf(&b, "Successful: %d\n", res.Summary.Successful)
	fmt.Fprintf(&b, "Failed: %d\n", res.Summary.Failed)
	fmt.Fprintf(&b, "Time elapsed: %.2f seconds\n", res.Summary.Elapsed.Seconds())

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// package formatter renders the rotation to various formats (CSV, Markdown, plain text) and a one-line ticker
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/samber/lo"
)

// RotationRow is one singer in a [RotationExport].
type RotationRow struct {
	SingerID int64
	Position int
	Singer   string
	Current  bool
	Regular  bool
	Wait     time.Duration
	Sung     int
	Unsung   int
	NextSong string
}

// RotationExport is a rendered-ready view of the rotation and its wait times.
type RotationExport struct {
	Rows        []RotationRow
	Total       time.Duration
	GeneratedAt time.Time
}

// BuildRotationExport collects the rotation, each singer's next song and the wait-time estimate.
func BuildRotationExport(session *rotation.Session, now time.Time) (*RotationExport, error) {
	singers, err := session.Rotation().Singers()
	if err != nil {
		return nil, err
	}

	waits, err := session.Waits()
	if err != nil {
		return nil, err
	}

	export := &RotationExport{Total: waits.Total, GeneratedAt: now}
	for _, singer := range singers {
		row := RotationRow{SingerID: singer.ID, Position: singer.Position, Singer: singer.Name, Regular: singer.Regular}

		if w, ok := waits.For(singer.ID); ok {
			row.Current, row.Wait, row.Sung, row.Unsung = w.Current, w.Wait, w.Sung, w.Unsung
		}

		entry, err := session.Rotation().NextUnplayedSong(singer.ID)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			if song, err := session.Catalog().Song(entry.SongID); err == nil {
				row.NextSong = song.Display()
			}
		}

		export.Rows = append(export.Rows, row)
	}

	return export, nil
}

// WaitLabel renders a row's wait column.
func (r RotationRow) WaitLabel() string {
	if r.Current {
		return fmt.Sprintf("singing (%d sung, %d left)", r.Sung, r.Unsung)
	}
	return shared.FormatDuration(r.Wait)
}

// ExportToCSV converts a RotationExport to CSV with columns: Position, Singer, Current, Regular, Wait, Sung, Unsung, Next Song
func ExportToCSV(export *RotationExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Singer", "Current", "Regular", "Wait", "Sung", "Unsung", "Next Song"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range export.Rows {
		record := []string{
			strconv.Itoa(row.Position + 1),
			row.Singer,
			strconv.FormatBool(row.Current),
			strconv.FormatBool(row.Regular),
			shared.FormatDuration(row.Wait),
			strconv.Itoa(row.Sung),
			strconv.Itoa(row.Unsung),
			row.NextSong,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a RotationExport to a Markdown table
func ExportToMarkdown(export *RotationExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Rotation\n\n")
	buf.WriteString(fmt.Sprintf("**Singers**: %d\n", len(export.Rows)))
	buf.WriteString(fmt.Sprintf("**Rotation length**: %s\n", shared.FormatDuration(export.Total)))
	if !export.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Generated**: %s\n", export.GeneratedAt.Format(time.Kitchen)))
	}
	buf.WriteString("\n| # | Singer | Wait | Next Song |\n|---|---|---|---|\n")

	for _, row := range export.Rows {
		name := escapeCell(row.Singer)
		if row.Current {
			name = "**" + name + "**"
		}
		if row.Regular {
			name += " ★"
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", row.Position+1, name, row.WaitLabel(), escapeCell(row.NextSong)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a RotationExport to plain text format
func ExportToText(export *RotationExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Rotation: %d singers, %s per lap\n\n", len(export.Rows), shared.FormatDuration(export.Total)))

	for _, row := range export.Rows {
		marker := " "
		if row.Current {
			marker = ">"
		}
		line := fmt.Sprintf("%s %2d. %-20s %s", marker, row.Position+1, row.Singer, row.WaitLabel())
		if row.NextSong != "" {
			line += "  " + row.NextSong
		}
		buf.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	return buf.Bytes(), nil
}

// Ticker renders a one-line "up next" string listing up to n singers after the current one.
func Ticker(export *RotationExport, n int) string {
	if len(export.Rows) == 0 || n <= 0 {
		return "Rotation is empty"
	}

	_, cur, found := lo.FindIndexOf(export.Rows, func(r RotationRow) bool { return r.Current })
	if !found {
		cur = -1
	}

	var next []string
	for i := 1; i <= len(export.Rows) && len(next) < n; i++ {
		row := export.Rows[(cur+i+len(export.Rows))%len(export.Rows)]
		if row.Current {
			continue
		}
		next = append(next, row.Singer)
	}

	if len(next) == 0 {
		return "Up next: nobody"
	}
	return "Up next: " + strings.Join(next, ", ")
}

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat accepts csv, md/markdown and txt/text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "", "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Render encodes export in format.
func Render(export *RotationExport, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export)
	case Text:
		return ExportToText(export)
	default:
		return nil, errors.New("unsupported format")
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to rotation.{csv,md,txt} as the filename.
func WriteExport(export *RotationExport, format Format, path string) (string, error) {
	if path == "" {
		path = "rotation." + map[Format]string{CSV: "csv", Markdown: "md", Text: "txt"}[format]
	}

	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// QueueLines renders a singer's queue as numbered lines, marking played songs.
func QueueLines(entries []*models.QueueEntry, songs rotation.Catalog) []string {
	return lo.Map(entries, func(e *models.QueueEntry, i int) string {
		title := fmt.Sprintf("song #%d", e.SongID)
		if song, err := songs.Song(e.SongID); err == nil {
			title = song.Display()
		}

		line := fmt.Sprintf("%2d. [%d] %s", i+1, e.ID, title)
		if e.KeyChange != 0 {
			line += fmt.Sprintf(" (key %+d)", e.KeyChange)
		}
		if e.Played {
			line += " ✓"
		}
		return line
	})
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

package app

import (
	"fmt"
	"os"
	"strings"

	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/ui"
)

// diagnose prints what harbomux sees from where it runs. It never fails: a
// probe that errors is reported as a row.
func (d *Dispatcher) diagnose(copyReport bool) {
	report := d.buildReport()
	fmt.Fprint(d.deps.Stdout, report.Render(d.theme, d.deps.Width()))

	if !copyReport {
		return
	}
	if err := d.deps.CopyToClipboard(report.Plain()); err != nil {
		log.WarningLog.Printf("failed to copy report: %v", err)
		fmt.Fprintln(d.deps.Stderr, d.errTheme.Warning.Render("Could not copy the report: "+err.Error()))
		return
	}
	fmt.Fprintln(d.deps.Stdout, d.theme.Muted.Render("Report copied to the clipboard."))
}

func (d *Dispatcher) buildReport() ui.Report {
	rows := []ui.ReportRow{
		{Label: "context", Value: d.deps.Classifier.Classify().String()},
		d.sentinelRow(),
		d.sessionDirRow(),
		{Label: "server", Value: d.deps.Server.Label()},
	}
	rows = append(rows, d.serverRows()...)
	rows = append(rows,
		ui.ReportRow{Label: "executable", Value: d.deps.Executable},
		ui.ReportRow{Label: "tmux", Value: d.deps.Config.TmuxBinary},
		fileRow("config", d.deps.ConfigPath),
		fileRow("rc file", d.deps.RcPath),
		ui.ReportRow{Label: "log", Value: log.FilePath()},
	)
	return ui.Report{Title: "harbomux " + d.deps.Version, Rows: rows}
}

func (d *Dispatcher) sentinelRow() ui.ReportRow {
	raw, present := d.deps.Store.Lookup(sentinel.HarbomuxVar)
	state := sentinel.Parse(raw, present)
	row := ui.ReportRow{Label: "sentinel", Value: state.String()}
	switch state {
	case sentinel.Ready:
		row.Level = ui.LevelOK
	case sentinel.PreSetup:
		row.Value += " (setup has not finished)"
		row.Level = ui.LevelWarn
	case sentinel.Unknown:
		row.Value = fmt.Sprintf("unrecognized value %q", raw)
		row.Level = ui.LevelWarn
	}
	return row
}

func (d *Dispatcher) sessionDirRow() ui.ReportRow {
	dir := d.deps.SessionDir
	if dir == nil || !dir.Marked() {
		return ui.ReportRow{Label: "in session dir", Value: "false"}
	}
	return ui.ReportRow{
		Label: "in session dir",
		Value: fmt.Sprintf("true (%s)", dir.Root()),
		Level: ui.LevelOK,
	}
}

func (d *Dispatcher) serverRows() []ui.ReportRow {
	running, err := d.deps.Server.IsRunning()
	if err != nil {
		return []ui.ReportRow{{Label: "server running", Value: err.Error(), Level: ui.LevelFail}}
	}
	if !running {
		return []ui.ReportRow{{Label: "server running", Value: "no"}}
	}

	rows := []ui.ReportRow{{Label: "server running", Value: "yes", Level: ui.LevelOK}}
	sessions, err := d.deps.Server.Sessions()
	if err != nil {
		return append(rows, ui.ReportRow{Label: "sessions", Value: err.Error(), Level: ui.LevelFail})
	}
	now := d.deps.Now()
	descriptions := make([]string, 0, len(sessions))
	for _, s := range sessions {
		desc := fmt.Sprintf("%s (created %s", s.Name, ui.FormatAge(s.Created, now))
		if s.Attached {
			desc += ", attached"
		}
		descriptions = append(descriptions, desc+")")
	}
	return append(rows, ui.ReportRow{Label: "sessions", Value: strings.Join(descriptions, ", ")})
}

func fileRow(label, path string) ui.ReportRow {
	if path == "" {
		return ui.ReportRow{Label: label, Value: "unknown", Level: ui.LevelWarn}
	}
	if _, err := os.Stat(path); err != nil {
		return ui.ReportRow{Label: label, Value: path + " (missing)"}
	}
	return ui.ReportRow{Label: label, Value: path, Level: ui.LevelOK}
}

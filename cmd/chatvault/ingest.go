package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"chatvault/internal/contentstore"
	"chatvault/internal/ingest"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

func ingestCommand(c *cli.Context) error {
	cfg := configFrom(c)
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one path is required", 2)
	}

	allowPartial := cfg.AllowPartial
	if c.IsSet("allow-partial") {
		allowPartial = c.Bool("allow-partial")
	}
	if c.Bool("strict") {
		allowPartial = false
	}

	db, err := openDatabase(c.Context, cfg, c.String("schema"))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	content, err := contentstore.New(cfg.AttachmentsPath)
	if err != nil {
		return err
	}

	repos := db.Repos()
	importer := ingest.NewImporter(db, repos.Jobs, content)
	res, err := importer.Ingest(c.Context, paths, ingest.Options{
		PlatformHint: c.String("platform-hint"),
		AllowPartial: allowPartial,
		Location:     cfg.Location,
	})
	if res != nil {
		fmt.Fprintln(c.App.Writer, renderReport(res))
	}
	if err != nil {
		return err
	}
	if !res.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

// renderReport formats an import result for the terminal.
func renderReport(res *ingest.Result) string {
	row := func(label string, value int) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(strconv.Itoa(value)))
	}

	status := okStyle
	switch {
	case len(res.Errors) > 0 && res.FilesProcessed > 0:
		status = warnStyle
	case len(res.Errors) > 0:
		status = errorStyle
	}

	lines := []string{
		titleStyle.Render("Import " + res.JobID),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Status"), status.Render(string(res.Status))),
		row("Files total", res.FilesTotal),
		row("Files processed", res.FilesProcessed),
		row("Files skipped", res.FilesSkipped),
		row("Threads created", res.ThreadsCreated),
		row("Threads updated", res.ThreadsUpdated),
		row("Messages created", res.MessagesCreated),
		row("Attachments saved", res.AttachmentsSaved),
	}
	if len(res.Errors) > 0 {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("%d error(s):", len(res.Errors))))
		for _, e := range res.Errors {
			lines = append(lines, errorStyle.Render("  "+strings.TrimSpace(e)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/encore/internal/upload"
)

// SubmitFunc runs one pipeline submission, reporting on progress.
type SubmitFunc func(ctx context.Context, progress chan<- upload.ProgressUpdate) (*upload.Result, error)

// UploadModel shows the weighted progress of one submission and its outcome.
type UploadModel struct {
	ctx          context.Context
	title        string
	submit       SubmitFunc
	progressChan chan upload.ProgressUpdate
	done         chan uploadComplete
	update       upload.ProgressUpdate
	bar          progress.Model
	result       *upload.Result
	err          error
	finished     bool
	quit         key.Binding
}

// NewUploadModel creates a progress view for submit.
func NewUploadModel(ctx context.Context, title string, submit SubmitFunc) *UploadModel {
	return &UploadModel{
		ctx:    ctx,
		title:  title,
		submit: submit,
		bar:    progress.New(progress.WithDefaultGradient()),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "enter"), key.WithHelp("q", "quit")),
	}
}

// Result returns the submission outcome once the view has finished.
func (m *UploadModel) Result() (*upload.Result, error) {
	return m.result, m.err
}

// Init starts the submission.
func (m *UploadModel) Init() tea.Cmd {
	m.progressChan = make(chan upload.ProgressUpdate, 64)
	m.done = make(chan uploadComplete, 1)

	go func() {
		result, err := m.submit(m.ctx, m.progressChan)
		m.done <- uploadComplete{result, err}
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

// Update handles incoming messages and updates the model state.
func (m *UploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(msg.Width-10, 10)
		return m, nil

	case tea.KeyMsg:
		if m.finished && key.Matches(msg, m.quit) {
			return m, tea.Quit
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgUploadProgress:
			m.update = msg.data.(upload.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgUploadComplete:
			data := msg.data.(uploadComplete)
			m.result, m.err = data.result, data.err
			m.finished = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *UploadModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			r := <-m.done
			return uploadCompleteMsg(r.result, r.err)
		}
		return uploadProgressMsg(update)
	}
}

// View renders the progress bar while running and the outcome afterwards.
func (m *UploadModel) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	if !m.finished {
		b.WriteString(m.bar.ViewAs(m.update.Percent / 100))
		b.WriteString("\n")
		b.WriteString(styles.help.Render(m.update.Message))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(RenderOutcome(m.result, m.err))
	b.WriteString("\n")
	return b.String()
}

// RenderOutcome describes a finished submission, listing blobs left without a record.
func RenderOutcome(result *upload.Result, err error) string {
	var b strings.Builder

	if err == nil {
		b.WriteString(styles.ok.Render("✓ Upload complete"))
		if result != nil {
			fmt.Fprintf(&b, "\n  %s/%s", result.Collection, result.RecordID)
		}
		return b.String()
	}

	b.WriteString(styles.err.Render("✗ " + upload.Message(err)))
	if result == nil {
		return b.String()
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(&b, "\n  removed %d uploaded file(s)", len(result.Removed))
	}
	if len(result.Orphans) > 0 {
		b.WriteString("\n" + styles.warn.Render(fmt.Sprintf("  %d file(s) left in storage:", len(result.Orphans))))
		for _, p := range result.Orphans {
			fmt.Fprintf(&b, "\n    • %s", p)
		}
	}
	return b.String()
}

// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "initializing…"
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.vp.View())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(m.renderComposer())

	base := sb.String()
	if m.app.Overlay != nil {
		return m.renderOverlay(base)
	}
	return base
}

func (m *Model) renderHeader() string {
	title := "sgpt │ " + m.app.SessionID
	return m.styles.header.Render(util.TruncateWidth(title, m.width))
}

func (m *Model) renderStatus() string {
	status := m.app.Status
	if m.app.Streaming {
		status = m.spin.View() + " " + status
	}
	return m.styles.status.Render(util.TruncateWidth(status, m.width))
}

// renderComposer draws the input line with a block cursor at the rune
// the cursor sits on.
func (m *Model) renderComposer() string {
	prompt := "> "
	if m.ed.Multiline() {
		prompt = "… "
	}

	line := []rune(m.ed.Line())
	cur := m.ed.Cursor()

	var sb strings.Builder
	sb.WriteString(m.styles.prompt.Render(prompt))
	sb.WriteString(string(line[:cur]))
	if cur < len(line) {
		sb.WriteString(m.styles.cursor.Render(string(line[cur])))
		sb.WriteString(string(line[cur+1:]))
	} else {
		sb.WriteString(m.styles.cursor.Render(" "))
	}
	return sb.String()
}

func (m *Model) renderOverlay(base string) string {
	o := m.app.Overlay

	var title, body string
	loading := false
	switch o := o.(type) {
	case ExecResultOverlay:
		title, body = o.Title, o.Body
	case DescriptionOverlay:
		title, body = o.Title, o.Body
	case StreamingDescriptionOverlay:
		title, body = o.Title, o.Body
		loading = o.Loading
	}

	maxWidth := m.width - 8
	if maxWidth < 20 {
		maxWidth = 20
	}

	var sb strings.Builder
	sb.WriteString(m.styles.header.Render(util.TruncateWidth(title, maxWidth)))
	sb.WriteString("\n\n")
	if body != "" {
		sb.WriteString(wrapText(body, maxWidth))
	}
	if loading {
		sb.WriteString("\n\n")
		sb.WriteString(m.spin.View())
		sb.WriteString(" describing…")
	} else {
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.faint.Render("press any key to dismiss"))
	}

	box := m.styles.overlay.Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// HISTORY RENDERING
// =============================================================================

// refreshViewport rebuilds the history pane content.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.renderMessages())
	if follow {
		m.vp.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	var sb strings.Builder
	width := m.vp.Width
	if width <= 0 {
		width = 80
	}

	for _, msg := range m.app.VisibleMessages() {
		sb.WriteString(m.renderMessage(msg, width))
		sb.WriteString("\n")
	}

	if m.app.Streaming {
		sb.WriteString(m.styles.botLabel.Render("assistant"))
		sb.WriteString("\n")
		if resp := m.app.Response(); resp != "" {
			sb.WriteString(wrapText(resp, width))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m *Model) renderMessage(msg llm.Message, width int) string {
	var sb strings.Builder
	switch msg.Role {
	case llm.RoleUser:
		sb.WriteString(m.styles.userLabel.Render("you"))
	default:
		sb.WriteString(m.styles.botLabel.Render("assistant"))
	}
	sb.WriteString("\n")

	content := msg.Content
	if msg.Role == llm.RoleAssistant {
		content = m.highlightCodeBlocks(content)
	}
	sb.WriteString(wrapText(content, width))
	sb.WriteString("\n")
	return sb.String()
}

// highlightCodeBlocks runs fenced code blocks through chroma, leaving
// the surrounding prose untouched.
func (m *Model) highlightCodeBlocks(content string) string {
	if !strings.Contains(content, "```") {
		return content
	}

	var out strings.Builder
	rest := content
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		rest = rest[start+3:]

		lang := "text"
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(rest[:nl]); tag != "" {
				lang = tag
			}
			rest = rest[nl+1:]
		}

		end := strings.Index(rest, "```")
		var code string
		if end < 0 {
			code = rest
			rest = ""
		} else {
			code = rest[:end]
			rest = rest[end+3:]
		}

		var hl strings.Builder
		if err := quick.Highlight(&hl, code, lang, "terminal256", m.styles.chromaTheme); err != nil {
			out.WriteString(code)
		} else {
			out.WriteString(hl.String())
		}
		if end < 0 {
			break
		}
	}
	return out.String()
}

// wrapText hard-wraps text to the given display width, preserving
// existing newlines. Lines already containing ANSI escapes are passed
// through untouched.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		if strings.ContainsRune(line, '\x1b') || runewidth.StringWidth(line) <= width {
			out.WriteString(line)
			continue
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	var out strings.Builder
	col := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if col+w > width {
			out.WriteString("\n")
			col = 0
		}
		out.WriteRune(r)
		col += w
	}
	return out.String()
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/pipeline"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// inspectColumns are the table headers for a node row.
var inspectColumns = []string{"", "Node", "Type", "Label", "Pos", "Next", "Children", "Parent", "Fault"}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain bool
		lf    layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect <flow.xml|graph.json>",
		Short: "Browse the nodes of a flow and their relationships",
		Long: `Browse the nodes of a flow and their relationships.

Shows every node with its grid position and the relations derived by the
normalizer: next node, branch children, parent branch and fault target.
Press enter on a node to list its outgoing connectors.

With --plain (or when stdout is not a terminal) the table is printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			lf.apply(cmd, &opts.Layout)
			l, err := c.inspectLayout(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			model := newInspectModel(l)
			if plain || !isTerminal(c.Out) {
				fmt.Fprintln(c.Out, model.table(0, len(model.nodes), -1))
				return nil
			}
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithOutput(c.Out)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the table instead of starting the browser")
	addLayoutFlags(cmd, &lf)

	return cmd
}

func (c *CLI) inspectLayout(ctx context.Context, input string, opts pipeline.Options) (layout.Layout, error) {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return layout.Layout{}, err
	}
	defer runner.Close()

	g, _, err := c.loadGraph(ctx, runner, input, &opts)
	if err != nil {
		return layout.Layout{}, err
	}
	return runner.Layout(ctx, g, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// =============================================================================
// inspectModel - Interactive node browser
// =============================================================================

// inspectModel is the bubbletea model for browsing a laid out flow.
type inspectModel struct {
	title    string
	nodes    []flow.Node
	outgoing map[string][]flow.Edge
	orphans  int

	cursor int
	offset int
	height int
	detail bool
}

func newInspectModel(l layout.Layout) inspectModel {
	m := inspectModel{
		title:    l.Metadata.Label,
		nodes:    l.Nodes,
		outgoing: make(map[string][]flow.Edge, len(l.Nodes)),
		orphans:  len(l.Orphans),
		height:   15,
	}
	if m.title == "" {
		m.title = l.Metadata.APIName
	}
	for _, e := range l.Edges {
		m.outgoing[e.Source] = append(m.outgoing[e.Source], e)
	}
	return m
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			m.detail = !m.detail
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-12, 5)
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ connectors  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.nodes))
	b.WriteString(m.table(m.offset, end, m.cursor))
	b.WriteString("\n")

	status := fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes))
	if m.orphans > 0 {
		status += fmt.Sprintf("  %d unreachable", m.orphans)
	}
	b.WriteString(listDimStyle.Render(status))

	if m.detail && m.cursor < len(m.nodes) {
		b.WriteString("\n\n")
		b.WriteString(m.connectors(m.nodes[m.cursor].ID))
	}
	return b.String()
}

// table renders nodes[start:end]; cursor is an absolute index or -1.
func (m inspectModel) table(start, end, cursor int) string {
	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		rows = append(rows, append([]string{marker}, nodeRow(m.nodes[i])...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(inspectColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			idx := start + row
			if idx >= end {
				return lipgloss.NewStyle()
			}
			n := m.nodes[idx]
			base := lipgloss.NewStyle()
			switch {
			case col == 2:
				base = typeStyle(n.Type)
			case n.IsFaultPath:
				base = StyleFault
			case col >= 4:
				base = base.Foreground(colorGray)
			}
			if idx == cursor {
				base = base.Bold(true)
			}
			return base
		})
	return t.Render()
}

// connectors lists the outgoing edges of id.
func (m inspectModel) connectors(id string) string {
	edges := m.outgoing[id]
	if len(edges) == 0 {
		return listDimStyle.Render("  no outgoing connectors")
	}
	var b strings.Builder
	for _, e := range edges {
		label := e.Label
		if label == "" {
			label = "—"
		}
		fmt.Fprintf(&b, "  %s %s %s %s\n",
			StyleValue.Render(label),
			listDimStyle.Render(iconArrow),
			StyleValue.Render(e.Target),
			listDimStyle.Render("("+string(e.Type)+")"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// nodeRow formats a node for the table.
func nodeRow(n flow.Node) []string {
	pos := "—"
	if n.Positioned {
		pos = fmt.Sprintf("%g,%g", n.X, n.Y)
	}
	return []string{
		n.ID,
		string(n.Type),
		n.DisplayLabel(),
		pos,
		orDash(n.Next),
		orDash(strings.Join(n.Children, ", ")),
		orDash(n.Parent),
		orDash(n.Fault),
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

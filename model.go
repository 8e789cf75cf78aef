package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const (
	programFile = "hhl_circuit.msgpack"
	qasmFile    = "hhl_circuit.qasm"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusInputParam
)

// runDoneMsg carries the outcome of an asynchronous sampling run.
type runDoneMsg struct {
	report *Report
	err    error
}

// Model represents the TUI application state.
type Model struct {
	cfg    Config
	alg    *Algorithm
	engine Sampler
	rng    *rand.Rand
	logger zerolog.Logger

	view     circuitView
	circuit  *Circuit
	moments  []Moment
	expected [3]float64

	cursorQubit   int
	cursorStep    int
	viewStartStep int // First moment currently visible in the view
	width         int
	height        int
	qasmView      viewport.Model
	spinner       spinner.Model
	focus         focus
	statusMsg     string // transient status message (e.g. save confirmation)

	running   bool
	cancel    context.CancelFunc
	direct    *Report
	amplified *Report
	runErr    error

	// Menu state
	menuCat  int
	menuItem int

	// Parameter input state
	editField  paramField
	paramInput string
}

func initialModel(cfg Config, engine Sampler, rng *rand.Rand, logger zerolog.Logger) (Model, error) {
	m := Model{
		cfg:      cfg,
		engine:   engine,
		rng:      rng,
		logger:   logger,
		qasmView: viewport.New(40, 20),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activeGateStyle)),
		focus:    focusCircuit,
	}
	if err := m.rebuild(); err != nil {
		return m, err
	}
	return m, nil
}

// rebuild synthesizes the algorithm from the current configuration.
func (m *Model) rebuild() error {
	p, err := m.cfg.Params()
	if err != nil {
		return err
	}
	alg, err := NewAlgorithm(p)
	if err != nil {
		return err
	}
	m.alg = alg
	m.direct, m.amplified, m.runErr = nil, nil, nil
	if m.expected, err = alg.ExpectedObservables(); err != nil {
		m.logger.Warn().Err(err).Msg("no classical reference solution")
	}
	m.setView(m.view)
	m.logger.Info().
		Int("register_size", p.RegisterSize).
		Float64("t", p.T).
		Float64("c", p.C).
		Int("ops", alg.Circuit().Len()).
		Msg("circuit synthesized")
	return nil
}

// setView switches the displayed circuit.
func (m *Model) setView(v circuitView) {
	m.view = v
	switch v {
	case viewMeasured:
		m.circuit = m.alg.MeasureCircuit(m.alg.Circuit())
	case viewDiffusion:
		m.circuit = m.alg.DiffusionOperator()
	case viewAmplified:
		c, err := m.alg.AmplitudeAmplification(1)
		if err != nil {
			m.statusMsg = err.Error()
			c = m.alg.Circuit()
		}
		m.circuit = c
	default:
		m.circuit = m.alg.Circuit()
	}
	m.moments = Moments(m.circuit)
	m.qasmView.SetContent(m.circuit.ToQASM())
	m.qasmView.GotoTop()
	m.cursorQubit = min(m.cursorQubit, m.alg.NumQubits()-1)
	m.cursorStep = min(m.cursorStep, max(len(m.moments)-1, 0))
	m.viewStartStep = min(m.viewStartStep, m.cursorStep)
}

// amplifiedEstimates matches the amplified run to the shot budget of a
// direct run: shots·p, with p from the last direct report.
func amplifiedEstimates(shots int, direct *Report) int {
	if direct == nil {
		return shots
	}
	return max(int(float64(shots)*direct.SuccessProbability()), 1)
}

// startRun launches a sampling run in the background.
func (m *Model) startRun(mode Mode) tea.Cmd {
	if m.running {
		m.statusMsg = "A run is already in progress"
		return nil
	}
	est := NewEstimator(m.alg, m.engine,
		WithRand(rand.New(rand.NewPCG(m.rng.Uint64(), m.rng.Uint64()))),
		WithLogger(m.logger),
		WithWorkers(m.cfg.Workers),
	)
	shots := m.cfg.Shots
	if mode == ModeAmplified {
		shots = amplifiedEstimates(m.cfg.Shots, m.direct)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.runErr = nil
	m.statusMsg = fmt.Sprintf("Sampling %s with %d shots", mode, shots)

	run := func() tea.Msg {
		defer cancel()
		var r *Report
		var err error
		if mode == ModeAmplified {
			r, err = est.SimulateWithAmplification(ctx, shots)
		} else {
			r, err = est.SimulateWithoutAmplification(ctx, shots)
		}
		return runDoneMsg{report: r, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) save() {
	b, err := MarshalProgram(m.circuit)
	if err == nil {
		err = os.WriteFile(programFile, b, 0644)
	}
	if err == nil {
		err = os.WriteFile(qasmFile, []byte(m.circuit.ToQASM()), 0644)
	}
	if err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	m.statusMsg = fmt.Sprintf("Saved %s and %s", programFile, qasmFile)
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		qasmW := max(msg.Width/3-6, 20)
		circH := msg.Height - controlsHeight - resultsHeight - 6
		m.qasmView.Width = qasmW
		m.qasmView.Height = max(circH-4, 4)

	case spinner.TickMsg:
		if m.running {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case runDoneMsg:
		m.running = false
		m.cancel = nil
		m.runErr = msg.err
		if msg.report != nil {
			if msg.report.Mode == ModeAmplified {
				m.amplified = msg.report
			} else {
				m.direct = msg.report
			}
			m.statusMsg = fmt.Sprintf("Finished %s run in %s", msg.report.Mode, msg.report.Elapsed.Round(1e6))
		}
		if msg.err != nil {
			m.statusMsg = "Run failed"
			if errors.Is(msg.err, context.Canceled) {
				m.statusMsg = "Run cancelled"
			}
		}

	case tea.KeyMsg:
		key := msg.String()
		if m.focus != focusInputParam {
			m.statusMsg = ""
		}

		if key == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				if m.cancel != nil {
					m.cancel()
				}
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
			case "ctrl+s":
				m.save()
			case "esc":
				if m.cancel != nil {
					m.cancel()
				}
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.alg.NumQubits()-1 {
					m.cursorQubit++
				}
			case "left", "h":
				if m.cursorStep > 0 {
					m.cursorStep--
					if m.cursorStep < m.viewStartStep {
						m.viewStartStep = m.cursorStep
					}
				}
			case "right", "l":
				if m.cursorStep < len(m.moments)-1 {
					m.cursorStep++
				}
			case "home":
				m.cursorStep, m.viewStartStep = 0, 0
			case "end":
				m.cursorStep = max(len(m.moments)-1, 0)
			case "v":
				m.setView((m.view + 1) % (viewAmplified + 1))
			case "m", "enter":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "r":
				cmds = append(cmds, m.startRun(ModeDirect))
			case "A":
				cmds = append(cmds, m.startRun(ModeAmplified))
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(runMenu[m.menuCat].items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(runMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				cmds = append(cmds, m.selectMenuItem(runMenu[m.menuCat].items[m.menuItem]))
			}

		case focusInputParam:
			switch key {
			case "esc":
				m.paramInput = ""
				m.focus = focusMenu
			case "backspace":
				if len(m.paramInput) > 0 {
					r := []rune(m.paramInput)
					m.paramInput = string(r[:len(r)-1])
				}
			case "enter":
				m.applyParam()
			default:
				if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
					m.paramInput += string(msg.Runes)
				}
			}

		case focusQASM:
			switch key {
			case "tab", "esc":
				m.focus = focusCircuit
			default:
				var cmd tea.Cmd
				m.qasmView, cmd = m.qasmView.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) selectMenuItem(item menuItem) tea.Cmd {
	switch item.action {
	case actionPreset:
		prev := m.cfg
		m.cfg = m.cfg.withPreset(presets[item.preset])
		if err := m.rebuild(); err != nil {
			m.cfg = prev
			m.statusMsg = err.Error()
			return nil
		}
		m.statusMsg = "Loaded " + presets[item.preset].name
	case actionView:
		m.setView(item.view)
	case actionEdit:
		m.editField = item.field
		m.paramInput = m.cfg.fieldValue(item.field)
		m.focus = focusInputParam
		return nil
	case actionRun:
		m.focus = focusCircuit
		return m.startRun(item.mode)
	}
	m.focus = focusCircuit
	return nil
}

// applyParam validates the edited field and resynthesizes.
func (m *Model) applyParam() {
	next, err := m.cfg.withField(m.editField, m.paramInput)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	prev := m.cfg
	m.cfg = next
	if err := m.rebuild(); err != nil {
		m.cfg = prev
		m.statusMsg = err.Error()
		return
	}
	m.paramInput = ""
	m.focus = focusCircuit
	m.statusMsg = "Parameters updated"
}

// ──────────────────────────── View ────────────────────────────

const (
	controlsHeight = 4
	resultsHeight  = 14
)

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	circuitWidth := m.width - qasmWidth - 4
	circuitHeight := max(m.height-controlsHeight-resultsHeight-6, 8)

	circuitPanel := m.renderCircuitPanel(circuitWidth, circuitHeight)
	qasmPanel := m.renderQASMPanel(qasmWidth, circuitHeight)
	resultsPanel := m.renderResultsPanel(m.width-4, resultsHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, qasmPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, resultsPanel, controlsPanel)

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusInputParam:
		frame = overlayAt(frame, m.renderParamInput(), 2, 2)
	}
	return frame
}

// renderCircuitPanel renders the circuit diagram panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("HHL Circuit · %s", m.view)))
	p := m.alg.Params()
	sb.WriteString(dimStyle.Render(fmt.Sprintf("   n=%d  t=%s  C=%s  |b>=%s  ops=%d",
		p.RegisterSize, formatParam(p.T), formatParam(p.C), FormatPrep(p.InputPrep), m.circuit.Len())))
	sb.WriteString("\n\n")

	availWidth := width - labelVisualW - 4
	maxSteps := max(availWidth/cellW, 1)

	startStep := m.viewStartStep
	if m.cursorStep >= startStep+maxSteps {
		startStep = m.cursorStep - maxSteps + 1
	}
	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing moments %d–%d of %d\n", startStep, min(startStep+maxSteps, len(m.moments))-1, len(m.moments))
	}

	labels := qubitLabels(p.RegisterSize)
	sb.WriteString(renderCircuit(m.moments, labels, circuitWindow{
		start:       startStep,
		steps:       maxSteps,
		cursorStep:  m.cursorStep,
		cursorQubit: m.cursorQubit,
		showCursor:  m.focus == focusCircuit || m.focus == focusMenu,
	}))

	fmt.Fprintf(&sb, "\n  Moment %d, %s", m.cursorStep, labels[m.cursorQubit])
	if m.cursorStep < len(m.moments) {
		if op, ok := m.moments[m.cursorStep].OpAt(m.cursorQubit); ok {
			fmt.Fprintf(&sb, ": %s", describeOp(op))
		}
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderQASMPanel renders the read-only QASM view.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "OpenQASM 3"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmView.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderResultsPanel shows the classical solution and the latest reports.
func (m Model) renderResultsPanel(width, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Results"))
	fmt.Fprintf(&sb, "   expected  X=%s  Y=%s  Z=%s\n",
		formatReference(m.expected[0]), formatReference(m.expected[1]), formatReference(m.expected[2]))

	if m.running {
		sb.WriteString(m.spinner.View() + " sampling…\n")
	}
	if m.runErr != nil {
		sb.WriteString(errorStyle.Render(m.runErr.Error()) + "\n")
	}

	var reports []string
	for _, r := range []*Report{m.direct, m.amplified} {
		if r != nil {
			reports = append(reports, renderReport(m.expected, r))
		}
	}
	if len(reports) == 0 && !m.running {
		sb.WriteString(dimStyle.Render("Press r for direct sampling, A for amplified sampling."))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, spaced(reports)...))

	return resultStyle.Width(width).Height(height).Render(sb.String())
}

func spaced(blocks []string) []string {
	out := make([]string, 0, 2*len(blocks))
	for i, b := range blocks {
		if i > 0 {
			out = append(out, "    ")
		}
		out = append(out, b)
	}
	return out
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Qubit  ←→/hl Moment  Home/End  v View  Tab QASM")
	sb.WriteString("\n")
	sb.WriteString(activeGateStyle.Render("Actions:  "))
	sb.WriteString("m Menu  r Direct run  A Amplified run  Esc Cancel  ^S Save  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// renderParamInput renders parameter input overlay.
func (m Model) renderParamInput() string {
	var sb strings.Builder
	var hint string
	for _, cat := range runMenu {
		for _, item := range cat.items {
			if item.action == actionEdit && item.field == m.editField {
				sb.WriteString(titleStyle.Render(item.name))
				hint = item.paramHint
			}
		}
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Value: %s_", m.paramInput)
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Example: " + hint))
	if m.statusMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(truncate(m.statusMsg, 60)))
	}
	return menuBorderStyle.Render(sb.String())
}

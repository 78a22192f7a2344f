package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-bingo/internal/card"
	"go-bingo/internal/config"
	"go-bingo/internal/game"
	"go-bingo/internal/logging"
	"go-bingo/internal/state"
	"go-bingo/internal/stats"
	"go-bingo/internal/transport"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	noticeLifetime = 6 * time.Second
	maxNotices     = 3
)

type shownNotice struct {
	game.Notice
	at time.Time
}

type LocalState struct {
	ctx    context.Context
	engine *game.Engine
	input  textinput.Model

	row, col int

	countdown game.CountdownTick
	selection game.SelectionTick
	nextCall  game.NextCallTick
	elapsed   time.Duration
	lastDraw  *game.NumberDrawn
	attempt   int
	notices   []shownNotice
	now       time.Time
}

type TickMsg time.Time

// UpdatesMsg carries a batch drained from the engine.
type UpdatesMsg []game.Update

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdates(e *game.Engine) tea.Cmd {
	return func() tea.Msg {
		<-e.Notify()
		return UpdatesMsg(e.DrainUpdates())
	}
}

func initialModel(ctx context.Context, engine *game.Engine) *LocalState {
	gen := engine.Generator()

	ti := textinput.New()
	ti.Prompt = "Card #: "
	ti.Placeholder = fmt.Sprintf("%d-%d", gen.Min(), gen.Max())
	ti.CharLimit = len(strconv.Itoa(gen.Max()))
	ti.Width = ti.CharLimit + 1
	ti.Focus()

	return &LocalState{
		ctx:    ctx,
		engine: engine,
		input:  ti,
		row:    card.Size / 2,
		col:    card.Size / 2,
		now:    time.Now(),
	}
}

func (s *LocalState) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForUpdates(s.engine), textinput.Blink)
}

func (s *LocalState) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		s.now = time.Time(msg)
		s.expireNotices()
		return s, tickCmd()
	case UpdatesMsg:
		for _, u := range msg {
			s.apply(u)
		}
		return s, waitForUpdates(s.engine)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// apply keeps the tick values the engine pushes; everything else is read from
// the engine view on render.
func (s *LocalState) apply(u game.Update) {
	switch u := u.(type) {
	case game.PhaseChanged:
		s.countdown = game.CountdownTick{}
		s.selection = game.SelectionTick{}
		s.nextCall = game.NextCallTick{}
		if u.To == state.CardSelection {
			s.input.Reset()
			s.input.Focus()
		} else {
			s.input.Blur()
		}
	case game.RoundReset:
		s.row, s.col = card.Size/2, card.Size/2
		s.elapsed = 0
		s.lastDraw = nil
	case game.CountdownTick:
		s.countdown = u
	case game.SelectionTick:
		s.selection = u
	case game.NextCallTick:
		s.nextCall = u
	case game.ElapsedTick:
		s.elapsed = u.Elapsed
	case game.NumberDrawn:
		s.lastDraw = &u
	case game.ConnectionChanged:
		s.attempt = u.Attempt
	case game.Notice:
		s.notices = append(s.notices, shownNotice{Notice: u, at: s.now})
		if len(s.notices) > maxNotices {
			s.notices = s.notices[len(s.notices)-maxNotices:]
		}
	}
}

func (s *LocalState) expireNotices() {
	kept := s.notices[:0]
	for _, n := range s.notices {
		if s.now.Sub(n.at) < noticeLifetime {
			kept = append(kept, n)
		}
	}
	s.notices = kept
}

func isCardInputKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return false
			}
		}
		return len(msg.Runes) > 0
	}
	return false
}

// Engine errors are already surfaced as notices, so key handlers discard them.
func (s *LocalState) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return s, tea.Quit
	}

	phase := s.engine.Phase()
	if phase == state.CardSelection && isCardInputKey(msg) {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	switch msg.String() {
	case "up":
		s.row = max(s.row-1, 0)
	case "down":
		s.row = min(s.row+1, card.Size-1)
	case "left":
		s.col = max(s.col-1, 0)
	case "right":
		s.col = min(s.col+1, card.Size-1)
	case " ", "x":
		s.markAtCursor()
	case "enter":
		if n, err := strconv.Atoi(s.input.Value()); err == nil {
			_ = s.engine.SelectCard(s.ctx, n)
		}
		s.input.Reset()
	case "q":
		_, _ = s.engine.QuickSelect(s.ctx)
	case "b":
		_ = s.engine.ClaimBingo(s.ctx)
	case "c":
		_ = s.engine.ClearMarks()
	case "a":
		_ = s.engine.SetAutoMark(!s.engine.View().Settings.AutoMark)
	case "j":
		_ = s.engine.JoinGame(s.ctx, 0)
	case "r":
		_ = s.engine.RequestResync(s.ctx)
	}
	return s, nil
}

func (s *LocalState) markAtCursor() {
	if card.IsFree(s.row, s.col) {
		return
	}
	v := s.engine.View()
	if v.Card == nil {
		return
	}
	_ = s.engine.ToggleMark(v.Card.Grid[s.row][s.col])
}

func (s *LocalState) View() string {
	return s.render(s.engine.View())
}

type betFlag float64

func (b *betFlag) String() string {
	return strconv.FormatFloat(float64(*b), 'f', -1, 64)
}

func (b *betFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid bet %q", s)
	}
	if v <= 0 {
		return fmt.Errorf("bet must be positive")
	}
	*b = betFlag(v)
	return nil
}

type flags struct {
	configPath string
	envFile    string
	server     string
	username   string
	bet        betFlag
	logFile    string
}

// overrides applies only the flags that were set on the command line.
func (f *flags) overrides(cfg *config.Config) error {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "server", "s":
			cfg.ServerURL = f.server
		case "user", "u":
			cfg.Username = f.username
		case "bet", "b":
			cfg.BetAmount = float64(f.bet)
		case "log", "l":
			cfg.LogFile = f.logFile
		}
	})
	return cfg.Validate()
}

func engineOptions(cfg *config.Config) game.Options {
	opts := game.DefaultOptions()
	opts.UserID = cfg.UserID
	opts.Username = cfg.Username
	opts.BetAmount = cfg.BetAmount
	opts.CardMin = cfg.Cards.Min
	opts.CardMax = cfg.Cards.Max
	opts.DisplayCap = cfg.DisplayCap
	opts.NextCallInterval = cfg.NextCallInterval
	opts.Reconnect = cfg.Policy()
	return opts
}

func transportConfig(cfg *config.Config) transport.Config {
	tc := transport.DefaultConfig(cfg.ServerURL)
	tc.UserID = cfg.UserID
	tc.Username = cfg.Username
	tc.Policy = cfg.Policy()
	return tc
}

func run(f *flags) error {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return err
	}
	if err := f.overrides(cfg); err != nil {
		return err
	}

	logs, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logs.Close()

	storage, err := stats.NewJSONFileStorage(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to create stats storage: %w", err)
	}
	store, err := stats.Open(storage)
	if err != nil {
		return err
	}

	client := transport.NewClient(transportConfig(cfg), nil)
	engine, err := game.NewEngine(engineOptions(cfg), client, store, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	log.Info().Str("server", cfg.ServerURL).Str("user", cfg.Username).Msg("starting client")

	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error { return engine.Run(gctx, client.Events()) })

	p := tea.NewProgram(initialModel(gctx, engine), tea.WithContext(gctx))
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&f.configPath, "c", "", "Path to a YAML config file (shorthand)")

	flag.StringVar(&f.envFile, "env", ".env", "Path to a dotenv file")

	flag.StringVar(&f.server, "server", "", "Game server websocket URL")
	flag.StringVar(&f.server, "s", "", "Game server websocket URL (shorthand)")

	flag.StringVar(&f.username, "user", "", "Display name")
	flag.StringVar(&f.username, "u", "", "Display name (shorthand)")

	flag.Var(&f.bet, "bet", "Bet amount used when joining a round")
	flag.Var(&f.bet, "b", "Bet amount used when joining a round (shorthand)")

	flag.StringVar(&f.logFile, "log", "", "Write logs to this file")
	flag.StringVar(&f.logFile, "l", "", "Write logs to this file (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fmt.Fprintf(os.Stderr, "   -c, --config=PATH      YAML config file\n")
		fmt.Fprintf(os.Stderr, "       --env=PATH         Dotenv file (default .env)\n")
		fmt.Fprintf(os.Stderr, "   -s, --server=URL       Game server websocket URL\n")
		fmt.Fprintf(os.Stderr, "   -u, --user=NAME        Display name\n")
		fmt.Fprintf(os.Stderr, "   -b, --bet=AMOUNT       Bet amount used when joining a round\n")
		fmt.Fprintf(os.Stderr, "   -l, --log=PATH         Write logs to this file\n")
		fmt.Fprintf(os.Stderr, "   -h, --help             Show this help message\n")
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  arrows move, space mark, b bingo, c clear marks, a auto-mark,\n")
		fmt.Fprintf(os.Stderr, "  digits+enter select card, q quick select, j join, r resync, esc quit\n")
	}

	flag.Parse()

	if err := run(&f); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

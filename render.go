package main

import (
	"fmt"
	"strings"
	"time"

	"go-bingo/internal/card"
	"go-bingo/internal/game"
	"go-bingo/internal/ledger"
	"go-bingo/internal/reconnect"
	"go-bingo/internal/state"

	"github.com/charmbracelet/lipgloss"
)

var (
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // errors, offline
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // marked cells, wins
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // status line
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	cellStyle   = lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
)

const recentShown = 10

var phaseTitles = map[state.Phase]string{
	state.Idle:          "WAITING",
	state.CardSelection: "CARD SELECTION",
	state.Countdown:     "STARTING",
	state.Active:        "LIVE",
	state.Announcing:    "WINNERS",
}

func toSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}

func formatClock(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// formatCalls renders the first n calls of a most-recent-first list.
func formatCalls(calls []ledger.CalledNumber, n int) string {
	if len(calls) > n {
		calls = calls[:n]
	}
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, fmt.Sprintf("%s-%d", c.Letter, c.Number))
	}
	return strings.Join(parts, " ")
}

func (s *LocalState) renderBanner(v game.View) string {
	title := phaseTitles[v.Phase]
	bannerTxt := fmt.Sprintf("┃ BINGO | %s", title)
	if v.GameID != "" {
		bannerTxt += " | GAME: " + v.GameID
	}
	width := card.Size*5 + 2
	if w := lipgloss.Width(bannerTxt); w > width {
		width = w
	}
	bannerTxt += strings.Repeat(" ", width-lipgloss.Width(bannerTxt)+2) + "┃"
	return "┏" + strings.Repeat("━", width+1) + "┓\n" + bannerTxt
}

// RenderBoard draws the card with called, marked and winning cells highlighted.
func (s *LocalState) RenderBoard(v game.View) string {
	if v.Card == nil {
		return dimStyle.Render("No card selected")
	}
	marked := toSet(v.Marked)
	drawn := toSet(v.Drawn)
	var winning map[int]bool
	if v.Pending != nil {
		winning = toSet(v.Pending.Numbers)
	}

	var b strings.Builder
	for _, l := range card.Letters {
		b.WriteString(boldStyle.Inherit(cellStyle).Render(l))
	}
	for r := 0; r < card.Size; r++ {
		b.WriteString("\n")
		for c := 0; c < card.Size; c++ {
			n := v.Card.Grid[r][c]
			text := fmt.Sprint(n)
			style := cellStyle
			switch {
			case card.IsFree(r, c):
				text = "FREE"
				style = style.Inherit(greenStyle)
			case marked[n]:
				style = style.Inherit(greenStyle)
			case drawn[n]:
				style = style.Inherit(scoreStyle)
			}
			if winning[n] || (winning != nil && card.IsFree(r, c)) {
				style = style.Bold(true).Underline(true)
			}
			if v.Phase == state.Active && r == s.row && c == s.col {
				style = style.Inherit(cursorStyle)
			}
			b.WriteString(style.Render(text))
		}
	}
	return b.String()
}

func (s *LocalState) renderPhase(v game.View) string {
	switch v.Phase {
	case state.Idle:
		return "Waiting for the next round. Press j to join."
	case state.CardSelection:
		line := s.input.View()
		if v.Card != nil {
			line += fmt.Sprintf("  selected #%d", v.Card.Number)
		}
		if s.selection.Closed {
			return line + "  " + redStyle.Render("selection closed")
		}
		return line + fmt.Sprintf("  %ds left", s.selection.SecondsLeft)
	case state.Countdown:
		msg := s.countdown.Message
		if msg == "" {
			msg = "Game starting"
		}
		return fmt.Sprintf("%s in %d", msg, s.countdown.Seconds)
	case state.Active:
		next := fmt.Sprintf("%ds", s.nextCall.SecondsLeft)
		if s.nextCall.SecondsLeft == 0 {
			next = "calling..."
		}
		line := fmt.Sprintf("CALLS: %d | NEXT: %s | TIME: %s", v.Calls, next, formatClock(s.elapsed))
		if s.lastDraw != nil {
			line = boldStyle.Render(fmt.Sprintf("%s-%d", s.lastDraw.Call.Letter, s.lastDraw.Call.Number)) + " | " + line
		}
		if recent := formatCalls(v.Recent, recentShown); recent != "" {
			line += "\n" + dimStyle.Render(recent)
		}
		switch {
		case v.Claim == game.ClaimPending:
			line += "\n" + scoreStyle.Render("Claim submitted, waiting for confirmation")
		case v.Claim == game.ClaimConfirmed:
			line += "\n" + greenStyle.Render("BINGO confirmed!")
		case v.Pending != nil:
			line += "\n" + greenStyle.Render(fmt.Sprintf("BINGO available (%s). Press b to claim!", v.Pending.Kind))
		}
		return line
	case state.Announcing:
		if len(v.Winners) == 0 {
			return "Round over. No winners."
		}
		lines := []string{"Winners:"}
		for _, w := range v.Winners {
			lines = append(lines, fmt.Sprintf("  * %s card #%d %s %.2f", w.Username, w.CardNumber, w.Pattern, w.PrizeAmount))
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func (s *LocalState) renderConnection(v game.View) string {
	switch v.Connection {
	case reconnect.Connected:
		return greenStyle.Render("online")
	case reconnect.Offline:
		return redStyle.Render("offline (r to retry)")
	case reconnect.Reconnecting:
		return scoreStyle.Render(fmt.Sprintf("reconnecting #%d", s.attempt))
	}
	return scoreStyle.Render(v.Connection.String())
}

func (s *LocalState) renderNotices() string {
	lines := make([]string, 0, len(s.notices))
	for _, n := range s.notices {
		style := dimStyle
		switch n.Level {
		case game.NoticeSuccess:
			style = greenStyle
		case game.NoticeWarning:
			style = scoreStyle
		case game.NoticeError:
			style = redStyle
		}
		lines = append(lines, style.Render(n.Message))
	}
	return strings.Join(lines, "\n")
}

// renderHistory lists recent rounds and best wins, like a high score table.
func renderHistory(v game.View) string {
	if len(v.PastRounds) == 0 {
		return ""
	}
	lines := []string{"Recent rounds:"}
	for _, r := range v.PastRounds {
		result := "lost"
		if r.Won {
			result = greenStyle.Render(fmt.Sprintf("won %.2f", r.Prize))
		}
		lines = append(lines, fmt.Sprintf("  * %s card #%d %s", r.GameID, r.CardNumber, result))
	}
	if len(v.TopWins) > 0 {
		lines = append(lines, "Top wins:")
		for _, r := range v.TopWins {
			lines = append(lines, fmt.Sprintf("  * %.2f %s on %s", r.Prize, r.Pattern, r.At.Format("2006-01-02 15:04")))
		}
	}
	return strings.Join(lines, "\n")
}

func (s *LocalState) render(v game.View) string {
	customBorder := lipgloss.ThickBorder()
	customBorder.Top = "═"
	customBorder.TopLeft = "┃"
	customBorder.TopRight = "┃"

	borderStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Border(customBorder).
		Width(card.Size*5 + 2)

	display := s.renderBanner(v) + "\n" + borderStyle.Render(s.RenderBoard(v))

	autoMark := "off"
	if v.Settings.AutoMark {
		autoMark = "on"
	}
	statusLine := fmt.Sprintf("PLAYERS: %d | POOL: %.2f | AUTO: %s | ", v.PlayerCount, v.PrizePool, autoMark)
	display += "\n" + scoreStyle.Render(statusLine) + s.renderConnection(v)
	display += "\n\n" + s.renderPhase(v)

	st := v.Stats
	display += "\n\n" + dimStyle.Render(fmt.Sprintf("Played %d | Won %d | Win rate %d%% | Streak %d (best %d) | Winnings %.2f",
		st.GamesPlayed, st.GamesWon, st.WinRate(), st.CurrentStreak, st.BestStreak, st.TotalWinnings))

	if v.Phase == state.Idle || v.Phase == state.Announcing {
		if history := renderHistory(v); history != "" {
			display += "\n\n" + history
		}
	}

	if notices := s.renderNotices(); notices != "" {
		display += "\n\n" + notices
	}
	return display + "\n"
}

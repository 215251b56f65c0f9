package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/hexcore/types"
)

// renderStatusBar produces a full-width inverted status line showing
// the turn counter, side to play with its controller, kernel phase and
// unit count.
func (m Model) renderStatusBar() string {
	k := m.kernel
	side := k.CurrentSidePlaying()

	left := fmt.Sprintf(" Turn %d | Side %d/%d (%s) | %s",
		k.TurnNumber(), side, k.NTeams(), k.SideController(side), k.Phase())

	right := fmt.Sprintf("Units: %d ", k.Game().Units.Len())
	if r := k.SideResult(side); r != types.ResultNone {
		right = fmt.Sprintf("%s | %s", r, right)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

package notify

import (
	"fmt"
	"strings"

	"github.com/ternarybob/specto/internal/models"
)

// maxReasons caps how many verdict reasons a BUY notification carries.
const maxReasons = 3

// FormatAnalysis builds the per-symbol result message. BUY results carry the
// verdict detail; everything else stays terse. Scan and retry cycles share
// this layout so a BUY always reads the same in the chat.
func FormatAnalysis(a models.SymbolAnalysis) string {
	switch a.Status {
	case models.StatusBuy:
		var b strings.Builder
		fmt.Fprintf(&b, "🟢 BUY %s (%s) %s\n", a.Symbol, a.Company, a.Date)
		fmt.Fprintf(&b, "Prediction: %s, confidence %.0f%%, direction score %.1f/10", a.Prediction, a.Confidence*100, a.DirectionScore)
		reasons := a.Reasons
		if len(reasons) > maxReasons {
			reasons = reasons[:maxReasons]
		}
		for _, reason := range reasons {
			fmt.Fprintf(&b, "\n• %s", reason)
		}
		return b.String()
	case models.StatusNoAction:
		return fmt.Sprintf("⚪ %s %s: no action", a.Symbol, a.Date)
	case models.StatusPending:
		return fmt.Sprintf("⏳ %s %s: transcript pending", a.Symbol, a.Date)
	default:
		return fmt.Sprintf("🔴 %s %s: %s", a.Symbol, a.Date, a.Error)
	}
}

package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/dexsniper/internal/domain"
)

// Console implementa ports.TradeReporter escribiendo a un io.Writer.
// Cada token se imprime una sola vez.
type Console struct {
	out io.Writer

	mu   sync.Mutex
	seen map[string]bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout)
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, seen: make(map[string]bool)}
}

// RecordTrade imprime el resultado de una posición cerrada.
func (c *Console) RecordTrade(_ context.Context, s domain.TradeSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[s.TokenAddress] {
		return nil
	}
	c.seen[s.TokenAddress] = true

	fmt.Fprintf(c.out, "[%s] %s %s age %.2f→%.2fm held %.2fm liq $%.0f buys %d price %.3g→%.3g ROI %s\n",
		s.RecordedAt.Local().Format("15:04:05"),
		roiIcon(s.ROI),
		shortAddr(s.TokenAddress),
		s.EntryAge, s.ExitAge, s.HoldingMinutes,
		s.InitialLiquidity, s.Buys24h,
		s.EntryPrice, s.ExitPrice,
		fmtPct(s.ROI),
	)
	return nil
}

// PrintTrades imprime la tabla completa de resúmenes.
func (c *Console) PrintTrades(trades []domain.TradeSummary) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "No trades recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Token", "Entry age", "Exit age", "Held", "Liquidity", "Buys 24h", "Entry", "Exit", "ROI")
	for i, s := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			s.RecordedAt.Local().Format(time.DateTime),
			shortAddr(s.TokenAddress),
			fmt.Sprintf("%.2fm", s.EntryAge),
			fmt.Sprintf("%.2fm", s.ExitAge),
			fmt.Sprintf("%.2fm", s.HoldingMinutes),
			fmt.Sprintf("$%.0f", s.InitialLiquidity),
			fmt.Sprintf("%d", s.Buys24h),
			fmt.Sprintf("%.4g", s.EntryPrice),
			fmt.Sprintf("%.4g", s.ExitPrice),
			fmtPct(s.ROI),
		)
	}
	table.Render()
}

// PrintAnalysis imprime el resumen agregado.
func (c *Console) PrintAnalysis(a domain.TradeAnalysis) {
	fmt.Fprintln(c.out, "\n=== Trade analysis ===")
	if a.TotalTrades == 0 {
		fmt.Fprintln(c.out, "No trades recorded")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	rows := [][2]string{
		{"Total trades", fmt.Sprintf("%d", a.TotalTrades)},
		{"Profitable", fmt.Sprintf("%d", a.ProfitableTrades)},
		{"Unprofitable", fmt.Sprintf("%d", a.UnprofitableTrades)},
		{"Win rate", fmt.Sprintf("%.1f%%", a.WinRate)},
		{"Total ROI", fmtPct(a.TotalROI)},
		{"Average ROI", fmtPct(a.AverageROI)},
		{"ROI std dev", fmt.Sprintf("%.2f", a.ROIStdDev)},
		{"Best trade", fmtPct(a.BestTradeROI)},
		{"Worst trade", fmtPct(a.WorstTradeROI)},
		{"Avg holding", fmt.Sprintf("%.2fm", a.AverageHolding)},
		{"Total volume", fmt.Sprintf("%.4f SOL", a.TotalVolume)},
		{"Avg trade size", fmt.Sprintf("%.4f SOL", a.AverageTradeSize)},
	}
	for _, r := range rows {
		table.Append(r[0], r[1])
	}
	table.Render()
}

// PrintBalances imprime el wallet simulado, tokens ordenados por dirección.
func (c *Console) PrintBalances(b domain.Balances) {
	fmt.Fprintf(c.out, "\nSOL balance: %.6f\n", b.Base)
	if len(b.Tokens) == 0 {
		return
	}

	addrs := make([]string, 0, len(b.Tokens))
	for addr := range b.Tokens {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	table := tablewriter.NewWriter(c.out)
	table.Header("Token", "Quantity")
	for _, addr := range addrs {
		table.Append(addr, fmt.Sprintf("%.0f", b.Tokens[addr]))
	}
	table.Render()
}

// --- helpers ---

func roiIcon(roi float64) string {
	if roi >= 0 {
		return "[+]"
	}
	return "[-]"
}

func fmtPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// shortAddr acorta una dirección base58 a "abcd…wxyz".
func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

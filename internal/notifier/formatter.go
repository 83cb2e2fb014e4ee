package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockLens/internal/analysis"
	"StockLens/internal/anomaly"
	"StockLens/internal/model"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
)

const maxListed = 5

// FormatAnalysisReport formats one symbol's analysis into a Telegram message.
func FormatAnalysisReport(rep *analysis.Report) string {
	var b strings.Builder

	last, _ := rep.Series.Last()
	b.WriteString(fmt.Sprintf("📊 <b>StockLens</b> | %s | %s\n\n", rep.Symbol, last.Time.Format(model.DateLayout)))

	b.WriteString(fmt.Sprintf("收盘价: %s", num(last.Close)))
	if prev, ok := previousClose(rep.Series); ok && prev != 0 && model.IsDefined(last.Close) {
		b.WriteString(fmt.Sprintf(" (%+.2f%%)", (last.Close-prev)/prev*100))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("成交量: %s\n", volume(last.Volume)))
	b.WriteString(fmt.Sprintf("区间: %s ~ %s (%d 个交易日)\n",
		rep.Start.Format(model.DateLayout), rep.End.Format(model.DateLayout), rep.Series.Len()))
	if r := rep.YearRange; r.Days > 0 {
		b.WriteString(fmt.Sprintf("52周高低: %s / %s (位置 %.0f%%)\n", num(r.High), num(r.Low), r.Position*100))
	}
	b.WriteString("\n")

	b.WriteString("📈 <b>指标最新值:</b>\n")
	for _, name := range rep.Derived.Names() {
		v, at, ok := rep.Derived.Latest(name)
		if !ok {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", name))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %s", name, num(v)))
		if !at.Equal(last.Time) {
			b.WriteString(fmt.Sprintf(" (%s)", at.Format(model.DateLayout)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("🧭 <b>信号解读:</b>\n")
	b.WriteString(fmt.Sprintf("  RSI: %s\n", rep.Interpretation.RSI))
	b.WriteString(fmt.Sprintf("  MACD: %s\n", rep.Interpretation.MACD))
	b.WriteString(fmt.Sprintf("  趋势: %s\n\n", rep.Interpretation.Trend))

	b.WriteString(formatAnomalyList(rep.Strategy, rep.Anomalies))

	if len(rep.Headlines) > 0 {
		b.WriteString("\n📰 <b>新闻:</b>\n")
		for i, a := range rep.Headlines {
			if i == 3 {
				break
			}
			b.WriteString(fmt.Sprintf("  • %s\n", link(a)))
		}
	}
	return b.String()
}

// FormatComparison formats a multi-symbol comparison: a trend line per symbol
// followed by each symbol's last observations.
func FormatComparison(cmp *analysis.Comparison) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚖️ <b>对比</b> | %s ~ %s\n\n",
		cmp.Start.Format(model.DateLayout), cmp.End.Format(model.DateLayout)))

	for _, s := range cmp.Summaries {
		b.WriteString(fmt.Sprintf("<b>%s</b>: %s → %s (%+.2f%%)\n", s.Symbol, num(s.First), num(s.Last), s.ChangePct))
		b.WriteString(fmt.Sprintf("  RSI %s | MACD %s | %s\n", s.Interpretation.RSI, s.Interpretation.MACD, s.Interpretation.Trend))
	}

	for _, tail := range cmp.Tails {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> 最近 %d 日:\n<pre>", tail.Symbol, len(tail.Rows)))
		for _, r := range tail.Rows {
			b.WriteString(fmt.Sprintf("%s %10s %14s\n", r.Time.Format(model.DateLayout), num(r.Close), volume(r.Volume)))
		}
		b.WriteString("</pre>")
	}

	if cmp.Failed != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ 部分标的加载失败: %s\n", html.EscapeString(cmp.Failed.Error())))
	}
	return b.String()
}

// FormatAnomalies formats the flagged observations of one symbol.
func FormatAnomalies(symbol model.Symbol, strategy anomaly.Strategy, series *model.PriceSeries, pts []model.Anomaly) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>异常检测</b> | %s | %s\n", symbol, strategy))
	if series != nil {
		b.WriteString(fmt.Sprintf("样本: %d 个交易日\n", series.Len()))
	}
	b.WriteString("\n")
	b.WriteString(formatAnomalyList(strategy, pts))
	return b.String()
}

func formatAnomalyList(strategy anomaly.Strategy, pts []model.Anomaly) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>异常点 (%s):</b> %d\n", strategy, len(pts)))
	start := 0
	if len(pts) > maxListed {
		start = len(pts) - maxListed
		b.WriteString(fmt.Sprintf("  … 仅显示最近 %d 个\n", maxListed))
	}
	for _, p := range pts[start:] {
		b.WriteString(fmt.Sprintf("  %s 收盘 %s", p.Date.Format(model.DateLayout), num(p.Close)))
		if model.IsDefined(p.Score) {
			b.WriteString(fmt.Sprintf(" score %.3f", p.Score))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatNews lists headlines with their age relative to now.
func FormatNews(symbol model.Symbol, articles []news.Article, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📰 <b>%s 最新新闻</b>\n\n", symbol))
	if len(articles) == 0 {
		b.WriteString("暂无新闻")
		return b.String()
	}
	for _, a := range articles {
		b.WriteString(fmt.Sprintf("• %s\n", link(a)))
		meta := []string{}
		if a.Source.Name != "" {
			meta = append(meta, html.EscapeString(a.Source.Name))
		}
		if !a.PublishedAt.IsZero() {
			meta = append(meta, humanize.RelTime(a.PublishedAt, now, "ago", "from now"))
		}
		if len(meta) > 0 {
			b.WriteString(fmt.Sprintf("  <i>%s</i>\n", strings.Join(meta, " · ")))
		}
		if a.Description != "" {
			b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(a.Description)))
		}
	}
	return b.String()
}

// FormatHistory lists recorded runs of a symbol.
func FormatHistory(symbol model.Symbol, runs []recorder.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s 历史记录</b>\n\n", symbol))
	if len(runs) == 0 {
		b.WriteString("暂无记录")
		return b.String()
	}
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s (%s): %s | RSI %s %s | %s | 异常 %d\n",
			r.AsOf.Format(model.DateLayout), humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			num(r.Close), num(r.RSI), r.Interpretation.RSI, r.Interpretation.Trend, r.AnomalyCount))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "可用命令:\n" +
		"• /analyze SYMBOL\n" +
		"• /compare SYM1,SYM2[,...]\n" +
		"• /anomalies SYMBOL [zscore|isolation]\n" +
		"• /news SYMBOL\n" +
		"• /history SYMBOL"
}

// FormatError renders a failed command.
func FormatError(action string, err error) string {
	return fmt.Sprintf("❌ %s失败: %s", action, html.EscapeString(err.Error()))
}

func link(a news.Article) string {
	title := html.EscapeString(a.Title)
	if a.URL == "" {
		return title
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(a.URL), title)
}

func num(v float64) string {
	if !model.IsDefined(v) {
		return "n/a"
	}
	return humanize.CommafWithDigits(v, 2)
}

func volume(v float64) string {
	if !model.IsDefined(v) {
		return "n/a"
	}
	return humanize.Comma(int64(math.Round(v)))
}

func previousClose(s *model.PriceSeries) (float64, bool) {
	closes := s.Closes()
	for i := len(closes) - 2; i >= 0; i-- {
		if model.IsDefined(closes[i]) {
			return closes[i], true
		}
	}
	return 0, false
}

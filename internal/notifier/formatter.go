package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"LevelSentinel/internal/model"
)

// FormatLevelReport formats one detection result into a Telegram message.
func FormatLevelReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s 支撑/阻力位</b> | %s\n", html.EscapeString(r.Symbol), html.EscapeString(r.Interval)))
	b.WriteString(fmt.Sprintf("区间: %s ~ %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")))
	if r.Series != nil && r.Series.Len() > 0 {
		last := r.Series.Last()
		b.WriteString(fmt.Sprintf("K线数: %d | 最新收盘: %.2f (%s)\n", r.Series.Len(), last.Close, last.Time.Format("01-02 15:04")))
	}
	b.WriteString(fmt.Sprintf("参数: 回看 %d | 最少触及 %d | 容差 %g\n\n",
		r.Params.LookbackPeriod, r.Params.MinTouch, r.Params.Tolerance))

	var supports, resistances []model.Level
	if r.Levels != nil {
		supports, resistances = r.Levels.Supports, r.Levels.Resistances
	}
	writeLevels(&b, "🟦 <b>支撑位</b>", "未找到支撑位", supports)
	b.WriteString("\n")
	writeLevels(&b, "🟥 <b>阻力位</b>", "未找到阻力位", resistances)

	return b.String()
}

func writeLevels(b *strings.Builder, title, empty string, levels []model.Level) {
	b.WriteString(title + "\n")
	if len(levels) == 0 {
		b.WriteString("  " + empty + "\n")
		return
	}
	for _, lv := range levels {
		b.WriteString(fmt.Sprintf("  %.2f  <i>%s</i>\n", lv.Price, lv.Time.Format("2006-01-02 15:04")))
	}
}

// FormatNoData formats the reply for an empty data range.
func FormatNoData(symbol string, start, end time.Time) string {
	return fmt.Sprintf("⚠️ %s 在 %s ~ %s 区间内没有数据",
		html.EscapeString(symbol), start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// FormatFailure formats an error for the chat.
func FormatFailure(err error) string {
	return fmt.Sprintf("⚠️ 识别失败: %s", html.EscapeString(err.Error()))
}

// FormatParams formats the current detection settings.
func FormatParams(symbol, interval string, p model.Params) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>当前参数</b>\n\n")
	b.WriteString(fmt.Sprintf("标的: %s\n", html.EscapeString(symbol)))
	b.WriteString(fmt.Sprintf("周期: %s\n", html.EscapeString(interval)))
	b.WriteString(fmt.Sprintf("回看周期: %d\n", p.LookbackPeriod))
	b.WriteString(fmt.Sprintf("最少触及次数: %d\n", p.MinTouch))
	b.WriteString(fmt.Sprintf("价格容差: %g\n", p.Tolerance))
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "🤖 <b>LevelSentinel 命令</b>\n\n" +
		"/levels - 立即识别支撑/阻力位\n" +
		"/levels &lt;回看&gt; &lt;最少触及&gt; &lt;容差&gt; - 使用自定义参数识别\n" +
		"/params - 查看当前参数\n" +
		"/help - 显示帮助"
}

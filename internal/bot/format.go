package bot

import (
	"fmt"
	"strings"
	"unicode"

	"habit-planner/internal/model"
	"habit-planner/internal/period"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
	noCategory  = "No category"
)

func formatTask(task model.Task, today model.Date) string {
	var b strings.Builder
	p := period.Of(&task)
	last := p.End.AddDays(-1)

	icon := iconDefault
	switch {
	case !today.Before(p.End):
		icon = iconOverdue
	case last.Equal(today):
		icon = iconDue
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeTitle(task.Name))))
	b.WriteString(fmt.Sprintf("   📊 %s · %s\n", progressLabel(&task), frequencyNoun(task.Frequency)))
	if !today.Before(p.End) {
		b.WriteString(fmt.Sprintf("   ⏰ Period ended %s - <b>overdue</b>\n", last))
	} else {
		b.WriteString(fmt.Sprintf("   ⏰ Until %s\n", last))
	}
	return b.String()
}

func progressLabel(task *model.Task) string {
	if task.Kind == model.KindTimeBased {
		return fmt.Sprintf("%d/%d min", task.CompletedCount, task.Goal)
	}
	return fmt.Sprintf("%d/%d", task.CompletedCount, task.Goal)
}

func goalLabel(kind model.TaskKind, goal int) string {
	if kind == model.KindTimeBased {
		return fmt.Sprintf("%d min", goal)
	}
	if goal == 1 {
		return "once"
	}
	return fmt.Sprintf("%d times", goal)
}

func frequencyNoun(freq model.Frequency) string {
	switch freq {
	case model.FrequencyWeekly:
		return "week"
	case model.FrequencyMonthly:
		return "month"
	default:
		return "day"
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = noCategory
	}
	var icon string
	switch strings.ToLower(base) {
	case "work":
		icon = "💼"
	case "personal":
		icon = "🧩"
	case "fitness":
		icon = "🏃"
	case "learning":
		icon = "🎓"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

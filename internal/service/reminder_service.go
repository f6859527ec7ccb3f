package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"

	"habit-planner/internal/model"
	"habit-planner/internal/period"
	"habit-planner/internal/repository"
)

// Notifier delivers a rendered summary somewhere (a chat, a mailbox).
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	store *repository.Store
}

func NewReminderService(store *repository.Store) *ReminderService {
	return &ReminderService{store: store}
}

// DailySummary lists the active tasks whose current period contains today:
// the ones still open first, then the ones already done. Open tasks whose
// period ended before today are listed as overdue.
func (s *ReminderService) DailySummary(ctx context.Context, today model.Date) (string, error) {
	tasks, err := s.store.Tasks.ListActive(ctx)
	if err != nil {
		return "", err
	}

	categories, err := s.store.Categories.ListAll(ctx)
	if err != nil {
		return "", err
	}
	catNames := make(map[uint]string)
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	var pending, done []model.Task
	for _, task := range tasks {
		p := period.Of(&task)
		switch {
		case task.IsCompleted && p.Contains(today):
			done = append(done, task)
		case !task.IsCompleted && (p.Contains(today) || !today.Before(p.End)):
			pending = append(pending, task)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PeriodEndDate.Before(pending[j].PeriodEndDate)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today))

	builder.WriteString("🔥 <b>In progress</b>\n")
	if len(pending) == 0 {
		builder.WriteString("- nothing open\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatTask(task, catNames, today))
		}
	}

	builder.WriteString("\n✅ <b>Done this period</b>\n")
	if len(done) == 0 {
		builder.WriteString("- nothing yet\n")
	} else {
		for _, task := range done {
			builder.WriteString(formatTask(task, catNames, today))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// SendSummary renders today's summary once and hands it to every notifier.
// Delivery failures are logged and joined into the returned error.
func (s *ReminderService) SendSummary(ctx context.Context, today model.Date, notifiers ...Notifier) error {
	text, err := s.DailySummary(ctx, today)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	var errs []error
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, text); err != nil {
			log.Printf("send summary: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func formatTask(task model.Task, catNames map[uint]string, today model.Date) string {
	var sb strings.Builder

	p := period.Of(&task)
	icon := iconFor(task, p, today)
	title := html.EscapeString(strings.TrimSpace(task.Name))
	sb.WriteString(fmt.Sprintf("%s %s", icon, title))

	if name, ok := catNames[task.CategoryID]; ok {
		trimmed := strings.TrimSpace(name)
		if trimmed != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(trimmed)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n   📊 %s", progressLabel(task)))
	if !task.IsCompleted {
		if today.Before(p.End) {
			daysLeft := period.Period{Start: today, End: p.End}.Days()
			sb.WriteString(fmt.Sprintf(" · until %s, %d day(s) left", p.End.AddDays(-1), daysLeft))
		} else {
			sb.WriteString(fmt.Sprintf(" · period ended %s - <b>overdue</b>", p.End.AddDays(-1)))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}

func iconFor(task model.Task, p period.Period, today model.Date) string {
	switch {
	case task.IsCompleted:
		return "✅"
	case !today.Before(p.End):
		return "⚠️"
	case p.End.AddDays(-1).Equal(today):
		return "⏳"
	default:
		return "🟢"
	}
}

// progressLabel renders "12/30 min" or "3/8".
func progressLabel(task model.Task) string {
	if task.Kind == model.KindTimeBased {
		return fmt.Sprintf("%d/%d min", task.CompletedCount, task.Goal)
	}
	return fmt.Sprintf("%d/%d", task.CompletedCount, task.Goal)
}

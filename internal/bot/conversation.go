package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-planner/internal/model"
	"habit-planner/internal/period"
	"habit-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageKind
	stageFrequency
	stageGoal
	stageCategory
	stageStartDate
	stageDone
)

// conversationState collects a new habit one answer at a time.
type conversationState struct {
	stage     conversationStage
	name      string
	kind      model.TaskKind
	frequency model.Frequency
	goal      int
	category  string
	start     model.Date
}

// advance consumes one answer. It returns a hint for the owner when the
// answer is rejected; the stage is left unchanged in that case.
func (s *conversationState) advance(text string, today model.Date) (hint string) {
	text = strings.TrimSpace(text)
	switch s.stage {
	case stageName:
		if len([]rune(text)) < 2 {
			return "The name needs at least 2 characters."
		}
		s.name = text
		s.stage = stageKind
	case stageKind:
		kind, ok := parseKindInput(text)
		if !ok {
			return "Pick one of the buttons: time based or yes/no."
		}
		s.kind = kind
		s.stage = stageFrequency
	case stageFrequency:
		freq, err := model.ParseFrequency(text)
		if err != nil {
			return "Pick daily, weekly or monthly."
		}
		s.frequency = freq
		s.stage = stageGoal
	case stageGoal:
		goal, err := strconv.Atoi(text)
		if err != nil || goal <= 0 {
			return "The goal must be a positive whole number."
		}
		s.goal = goal
		s.stage = stageCategory
	case stageCategory:
		if len([]rune(text)) < 2 {
			return "The category name needs at least 2 characters."
		}
		s.category = text
		s.stage = stageStartDate
	case stageStartDate:
		if isSkipInput(text) || strings.EqualFold(text, btnToday) || strings.EqualFold(text, "today") {
			s.start = today
		} else {
			start, err := model.ParseDate(text)
			if err != nil {
				return "Use the <code>2025-11-30</code> format or press «Today»."
			}
			s.start = start
		}
		s.stage = stageDone
	}
	return ""
}

func (s *conversationState) input(categoryID uint) service.TaskInput {
	return service.TaskInput{
		Name:       s.name,
		Kind:       s.kind,
		Frequency:  s.frequency,
		Goal:       s.goal,
		CategoryID: categoryID,
		StartDate:  s.start,
	}
}

func (s *conversationState) prompt() (string, interface{}) {
	switch s.stage {
	case stageName:
		return "🆕 New habit.\n<b>Step 1:</b> what should it be called?", cancelKeyboard()
	case stageKind:
		return "<b>Step 2:</b> how is progress measured?", kindKeyboard()
	case stageFrequency:
		return "<b>Step 3:</b> how often does the goal reset?", frequencyKeyboard()
	case stageGoal:
		if s.kind == model.KindTimeBased {
			return "<b>Step 4:</b> how many minutes per period?", cancelKeyboard()
		}
		return "<b>Step 4:</b> how many times per period?", cancelKeyboard()
	case stageCategory:
		return "<b>Step 5:</b> pick a category or type a new one.", categoryKeyboard()
	case stageStartDate:
		return "<b>Step 6:</b> when does the first period start? <code>2025-11-30</code> or «Today».", startKeyboard()
	default:
		return "", nil
	}
}

func (b *Bot) startNewTaskConversation(_ context.Context, msg *tgbotapi.Message) error {
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	state := &conversationState{stage: stageName}
	b.setConversation(msg.From.ID, state)
	text, markup := state.prompt()
	return b.sendWithReplyMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	if hint := state.advance(msg.Text, b.today()); hint != "" {
		_, markup := state.prompt()
		return b.sendWithReplyMarkup(msg.Chat.ID, hint, markup)
	}
	if state.stage != stageDone {
		text, markup := state.prompt()
		return b.sendWithReplyMarkup(msg.Chat.ID, text, markup)
	}

	b.clearConversation(msg.From.ID)
	return b.finishTaskCreation(ctx, msg.Chat.ID, state)
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, state *conversationState) error {
	category, err := b.categorySvc.GetOrCreate(ctx, state.category)
	if err != nil {
		return b.replyError(chatID, "resolve category", err)
	}
	task, err := b.taskSvc.CreateTask(ctx, state.input(category.ID))
	if err != nil {
		return b.replyError(chatID, "create task", err)
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Habit saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Name:</b> %s\n", escape(normalizeTitle(task.Name))))
	summary.WriteString(fmt.Sprintf("• <b>Goal:</b> %s per %s\n", goalLabel(task.Kind, task.Goal), frequencyNoun(task.Frequency)))
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", categoryLabel(category.Name)))
	p := period.Of(task)
	summary.WriteString(fmt.Sprintf("• <b>Period:</b> %s → %s (%d day(s))\n", p.Start, p.End.AddDays(-1), p.Days()))

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func parseKindInput(text string) (model.TaskKind, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	switch value {
	case strings.ToLower(btnKindTime), "time", "time based", "time_based", "minutes":
		return model.KindTimeBased, true
	case strings.ToLower(btnKindYesNo), "yes/no", "yes_no", "count", "times":
		return model.KindYesNo, true
	}
	return "", false
}

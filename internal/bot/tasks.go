package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

const (
	cbAddPrefix     = "add:"
	cbArchivePrefix = "archive:"
)

// quickMinutes is what the list button adds to a timed habit.
const quickMinutes = 15

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, _, err := b.taskSvc.ListTasks(ctx, model.TaskFilter{OpenOnly: true, Page: model.Page{Limit: model.MaxPageLimit}})
	if err != nil {
		return b.replyError(chatID, "list tasks", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No open habits. Add one with /newtask.")
	}

	categories, _, err := b.categorySvc.List(ctx, model.CategoryFilter{Page: model.Page{Limit: model.MaxPageLimit}})
	if err != nil {
		log.Printf("list categories: %v", err)
	}
	catNames := make(map[uint]string)
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	groups := make(map[string][]model.Task)
	var order []string
	for _, task := range tasks {
		name := strings.TrimSpace(catNames[task.CategoryID])
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], task)
	}
	sort.Strings(order)

	today := b.today()
	var builder strings.Builder
	builder.WriteString("📋 <b>Open habits</b>\n")
	builder.WriteString("Use the buttons to add progress or archive a habit.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, name := range order {
		section := groups[name]
		sort.SliceStable(section, func(i, j int) bool {
			if !section[i].PeriodEndDate.Equal(section[j].PeriodEndDate) {
				return section[i].PeriodEndDate.Before(section[j].PeriodEndDate)
			}
			return section[i].ID < section[j].ID
		})

		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", categoryLabel(name)))
		for _, task := range section {
			builder.WriteString(formatTask(task, today))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s #%d · %s", quickLabel(task.Kind), task.ID, shortTitle(task.Name, 20)), fmt.Sprintf("%s%d", cbAddPrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗃 Archive", fmt.Sprintf("%s%d", cbArchivePrefix, task.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

// handleDone counts a YES/NO habit: /done <id> [count].
func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, count, err := parseProgressArgs(msg.CommandArguments(), false)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /done 12 or /done 12 3")
	}
	task, err := b.taskSvc.GetTask(ctx, taskID)
	if err != nil {
		return b.replyError(msg.Chat.ID, "get task", err)
	}
	if task.Kind == model.KindTimeBased {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("#%d is timed. Use /log %d &lt;minutes&gt;.", task.ID, task.ID))
	}
	return b.recordProgress(ctx, msg.Chat.ID, taskID, count, messageEventID(msg))
}

// handleLog adds minutes to a timed habit: /log <id> <minutes>.
func (b *Bot) handleLog(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, minutes, err := parseProgressArgs(msg.CommandArguments(), true)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /log 12 25")
	}
	task, err := b.taskSvc.GetTask(ctx, taskID)
	if err != nil {
		return b.replyError(msg.Chat.ID, "get task", err)
	}
	if task.Kind != model.KindTimeBased {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("#%d counts times. Use /done %d.", task.ID, task.ID))
	}
	return b.recordProgress(ctx, msg.Chat.ID, taskID, minutes, messageEventID(msg))
}

func (b *Bot) handleArchive(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /archive 12")
	}
	return b.askArchiveConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

// recordProgress writes one event for today. eventID comes from the Telegram
// update, so a redelivered update is recognised and not counted twice.
func (b *Bot) recordProgress(ctx context.Context, chatID int64, taskID uint, magnitude int, eventID string) error {
	res, err := b.taskSvc.RecordProgress(ctx, taskID, service.ProgressInput{
		ID:        eventID,
		Date:      b.today(),
		Magnitude: magnitude,
	})
	if err != nil {
		return b.replyError(chatID, "record progress", err)
	}
	return b.sendText(chatID, progressReply(res))
}

func progressReply(res *service.ProgressResult) string {
	task := res.Task
	title := escape(normalizeTitle(task.Name))
	if res.Replayed {
		return fmt.Sprintf("ℹ️ Already counted for «%s».", title)
	}
	text := fmt.Sprintf("📊 «%s»: %s", title, progressLabel(task))
	if res.SpawnedSuccessorID != nil {
		text += fmt.Sprintf("\n🎉 Goal reached! Next period is habit #%d.", *res.SpawnedSuccessorID)
	} else if task.IsCompleted {
		text += "\n✅ Goal reached."
	}
	return text
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbAddPrefix):
		log.Printf("[info] callback add user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbAddPrefix))
		taskID, err := parseTaskID(strings.TrimPrefix(data, cbAddPrefix))
		if err != nil {
			return nil
		}
		task, err := b.taskSvc.GetTask(ctx, taskID)
		if err != nil {
			return b.replyError(cb.Message.Chat.ID, "get task", err)
		}
		return b.recordProgress(ctx, cb.Message.Chat.ID, taskID, quickStep(task.Kind), "tg-cb-"+cb.ID)
	case strings.HasPrefix(data, cbArchivePrefix):
		log.Printf("[info] callback archive request user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbArchivePrefix))
		taskID, err := parseTaskID(strings.TrimPrefix(data, cbArchivePrefix))
		if err != nil {
			return nil
		}
		return b.askArchiveConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID)
	default:
		return nil
	}
}

func (b *Bot) askArchiveConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	task, err := b.taskSvc.GetTask(ctx, taskID)
	if err != nil {
		return b.replyError(chatID, "get task", err)
	}
	if task.IsArchived() {
		return b.sendText(chatID, "This habit is already archived.")
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID})
	text := fmt.Sprintf("Archive «%s» (#%d)? Its history is kept.", escape(normalizeTitle(task.Name)), task.ID)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if err := b.taskSvc.ArchiveTask(ctx, req.taskID); err != nil {
			return b.replyError(msg.Chat.ID, "archive task", err)
		}
		if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("🗃 Habit #%d archived.", req.taskID)); err != nil {
			return err
		}
		return b.sendTaskList(ctx, msg.Chat.ID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel archiving.", confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelReport):
		return true, b.handleReport(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// parseProgressArgs reads "<id> [n]". The amount defaults to 1 unless required.
func parseProgressArgs(args string, requireAmount bool) (uint, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, fmt.Errorf("expected <id> [amount]")
	}
	taskID, err := parseTaskID(fields[0])
	if err != nil {
		return 0, 0, err
	}
	if len(fields) == 1 {
		if requireAmount {
			return 0, 0, fmt.Errorf("amount is required")
		}
		return taskID, 1, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("invalid amount %q", fields[1])
	}
	return taskID, n, nil
}

func messageEventID(msg *tgbotapi.Message) string {
	return fmt.Sprintf("tg-%d-%d", msg.Chat.ID, msg.MessageID)
}

func quickStep(kind model.TaskKind) int {
	if kind == model.KindTimeBased {
		return quickMinutes
	}
	return 1
}

func quickLabel(kind model.TaskKind) string {
	if kind == model.KindTimeBased {
		return fmt.Sprintf("⏱ +%dm", quickMinutes)
	}
	return "➕1"
}

package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/watching"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	got  []watching.Outcome
	fail bool
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(_ context.Context, o watching.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, o)
	if r.fail {
		return errors.New("unreachable")
	}
	return nil
}

func newManager(on ...string) *config.Manager {
	return config.NewManager(&config.Config{Notify: config.Notify{On: on}})
}

func TestShouldNotify(t *testing.T) {
	assert.True(t, ShouldNotify([]string{"failed", "timed_out"}, watching.StatusFailed))
	assert.False(t, ShouldNotify([]string{"failed"}, watching.StatusProcessed))
	assert.True(t, ShouldNotify([]string{"*"}, watching.StatusIgnored))
	assert.False(t, ShouldNotify(nil, watching.StatusFailed))
}

func TestService_FiltersByStatus(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(newManager("failed", "timed_out"), sender)
	require.True(t, svc.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Observe(ctx, watching.Outcome{Path: "/a.md", Status: watching.StatusProcessed})
	svc.Observe(ctx, watching.Outcome{Path: "/b.md", Status: watching.StatusFailed})
	svc.Observe(ctx, watching.Outcome{Path: "/c.md", Status: watching.StatusTimedOut})
	svc.Wait()

	require.Len(t, sender.got, 2)
	paths := []string{sender.got[0].Path, sender.got[1].Path}
	assert.ElementsMatch(t, []string{"/b.md", "/c.md"}, paths)
}

func TestService_SenderErrorsAreNotFatal(t *testing.T) {
	failing := &recordingSender{fail: true}
	ok := &recordingSender{}
	svc := NewService(newManager("*"), failing, ok)

	svc.Observe(context.Background(), watching.Outcome{Status: watching.StatusProcessed})
	svc.Wait()
	assert.Len(t, failing.got, 1)
	assert.Len(t, ok.got, 1)
}

func TestService_DisabledWithoutStatuses(t *testing.T) {
	assert.False(t, NewService(newManager(), &recordingSender{}).Enabled())
	assert.False(t, NewService(newManager("*")).Enabled())
}

func TestWebhook_RendersAndRunsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hook.txt")
	hook, err := NewWebhook(`printf '%s|%s|%s' {{quote .Watcher}} {{quote .Status}} {{quote .File}} > ` + out)
	require.NoError(t, err)

	detected := time.Now()
	err = hook.Send(context.Background(), watching.Outcome{
		Watcher:    "notes",
		Path:       "/inbox/it's done.md",
		Status:     watching.StatusProcessed,
		DetectedAt: detected,
		FinishedAt: detected.Add(2 * time.Second),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "notes|processed|it's done.md", string(data))
}

func TestWebhook_FileNameIsNeverExecuted(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	outcome := watching.Outcome{
		Watcher: "scans",
		Path:    "/inbox/x$(touch injected)`touch injected`.jpg",
		Status:  watching.StatusFailed,
	}

	for name, command := range map[string]string{
		"env":    `printf '%s' "$DROPZONE_WATCHER: $DROPZONE_STATUS $DROPZONE_FILE" > env.txt`,
		"quoted": `printf '%s' {{quote .File}} > quoted.txt`,
	} {
		hook, err := NewWebhook(command)
		require.NoError(t, err, name)
		require.NoError(t, hook.Send(context.Background(), outcome), name)

		data, err := os.ReadFile(filepath.Join(dir, name+".txt"))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "x$(touch injected)`touch injected`.jpg", name)
	}
	assert.NoFileExists(t, filepath.Join(dir, "injected"))
}

func TestWebhook_Errors(t *testing.T) {
	_, err := NewWebhook("echo {{.Broken")
	require.Error(t, err)

	hook, err := NewWebhook("echo nope >&2; exit 1")
	require.NoError(t, err)
	err = hook.Send(context.Background(), watching.Outcome{})
	require.ErrorContains(t, err, "nope")
}

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegram_SendsToChat(t *testing.T) {
	bot := &fakeBot{}
	tg := NewTelegram(bot, 1234)

	err := tg.Send(context.Background(), watching.Outcome{
		Watcher: "ocr",
		Path:    "/inbox/ocr/receipt.png",
		Status:  watching.StatusFailed,
		Error:   "no text recognized",
	})
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)

	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(1234), msg.ChatID)
	assert.Contains(t, msg.Text, "ocr: receipt.png")
	assert.Contains(t, msg.Text, "Error: no text recognized")
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage(watching.Outcome{
		Watcher:    "notes",
		Path:       "/inbox/standup.md",
		Status:     watching.StatusProcessed,
		Summary:    "category: Work",
		OutputPath: "/notes/Work/standup.md",
	})
	assert.Equal(t, "✅ notes: standup.md\nStatus: processed\ncategory: Work\n→ /notes/Work/standup.md", msg)
}

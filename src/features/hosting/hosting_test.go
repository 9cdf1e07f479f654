package hosting

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/metrics"
	"github.com/contre95/dropzone/src/features/watching"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *config.Manager {
	return config.NewManager(&config.Config{
		Server: config.Server{Enabled: true, Port: 3636},
		LLM:    config.LLM{Model: "gpt-4o-mini", APIKey: "sk-secret"},
		Telegram: config.Telegram{
			Enabled:      true,
			Token:        "123:abc",
			AllowedUsers: []string{"alice"},
		},
		Watchers: []config.Watcher{{Name: "notes", Kind: config.KindClassify}},
	})
}

func TestServer_Routes(t *testing.T) {
	srv := NewServer(testManager(), watching.NewService(), metrics.NewService(), nil)

	cases := map[string]int{
		"/health":         http.StatusOK,
		"/api/config":     http.StatusOK,
		"/api/watchers":   http.StatusOK,
		"/metrics":        http.StatusOK,
		"/api/metrics":    http.StatusOK,
		"/api/history":    http.StatusNotFound,
		"/api/watchers/x": http.StatusNotFound,
	}
	for path, want := range cases {
		resp, err := srv.app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err, path)
		assert.Equal(t, want, resp.StatusCode, path)
	}

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "sk-secret")
}

// telegramAPI fakes the Bot API and records the text of every sent message.
type telegramAPI struct {
	mu    sync.Mutex
	texts []string
}

func (a *telegramAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"id": 1, "is_bot": true, "first_name": "Dropzone", "username": "dropzone_bot"},
			})
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			a.mu.Lock()
			a.texts = append(a.texts, r.PostForm.Get("text"))
			a.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{
				"ok":     true,
				"result": map[string]any{"message_id": 1, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
		}
	}
}

func newTestBot(t *testing.T) (*TelegramBot, *telegramAPI) {
	t.Helper()
	api := &telegramAPI{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	bot, err := newTelegramBot(testManager(), srv.URL+"/bot%s/%s", watching.NewService(), metrics.NewService())
	require.NoError(t, err)
	return bot, api
}

func command(user, text string) tgbotapi.Update {
	name, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{UserName: user},
		Chat:     &tgbotapi.Chat{ID: 42},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func TestTelegramBot_RoutesCommandsToFeatures(t *testing.T) {
	bot, api := newTestBot(t)
	assert.Equal(t, "dropzone_bot", bot.API().Self.UserName)

	bot.handleMessage(command("alice", "/stats"))
	bot.handleMessage(command("alice", "/nope"))
	bot.handleMessage(command("alice", "/help"))

	require.Len(t, api.texts, 3)
	assert.Contains(t, api.texts[0], "0 files handled")
	assert.Contains(t, api.texts[1], "Unknown command")
	assert.Contains(t, api.texts[2], "/watchers")
	assert.Contains(t, api.texts[2], "/config")
}

func TestTelegramBot_RejectsUnknownUsers(t *testing.T) {
	bot, api := newTestBot(t)
	bot.handleMessage(command("mallory", "/config"))

	require.Len(t, api.texts, 1)
	assert.Contains(t, api.texts[0], "Unknown user")
}

func TestNewTelegramBot_RequiresToken(t *testing.T) {
	cfg := config.NewManager(&config.Config{Telegram: config.Telegram{Enabled: true}})
	_, err := NewTelegramBot(cfg, watching.NewService(), metrics.NewService())
	require.ErrorContains(t, err, "token")

	cfg = config.NewManager(&config.Config{})
	_, err = NewTelegramBot(cfg, watching.NewService(), metrics.NewService())
	require.ErrorContains(t, err, "disabled")
}

package app

import (
	"context"
	"strconv"
	"time"

	"pure2p/internal/connectivity"
	"pure2p/internal/model"
)

// ChatSummary pairs a contact with its chat row, the per-contact shape
// load_state returns to the UI.
type ChatSummary struct {
	Contact model.Contact
	Chat    model.Chat
}

// State is the snapshot load_state returns at UI startup.
type State struct {
	UID      string
	Chats    []ChatSummary
	Settings model.Settings
}

// ChatView is what open_chat returns: the chat row plus its full
// message history in display order.
type ChatView struct {
	Chat     model.Chat
	Messages []model.Message
}

// Diagnostics is what run_diagnostics returns: per-protocol
// attempted/succeeded/failed, plus a CGNAT advisory.
type Diagnostics struct {
	Attempts []connectivity.Attempt
	Summary  []string
	CGNAT    bool
}

// LoadState implements the UI's load_state.
func (a *App) LoadState() (*State, error) {
	contacts, err := a.store.ListContacts()
	if err != nil {
		return nil, err
	}
	chats, err := a.store.ListChats()
	if err != nil {
		return nil, err
	}
	settings, err := a.store.LoadSettings(a.dataDir)
	if err != nil {
		return nil, err
	}

	chatByUID := make(map[string]model.Chat, len(chats))
	for _, c := range chats {
		chatByUID[c.ContactUID] = c
	}

	summaries := make([]ChatSummary, 0, len(contacts))
	for _, c := range contacts {
		summaries = append(summaries, ChatSummary{Contact: c, Chat: chatByUID[c.UID]})
	}

	return &State{UID: a.identity.UID, Chats: summaries, Settings: *settings}, nil
}

// GenerateShareToken implements the UI's generate_share_token.
func (a *App) GenerateShareToken() (string, error) {
	return a.orch.GenerateShareToken()
}

// ImportContact implements the UI's import_contact.
func (a *App) ImportContact(ctx context.Context, token string) error {
	return a.orch.ImportContact(ctx, token)
}

// SendText implements the UI's send_text.
func (a *App) SendText(ctx context.Context, contactUID, text string) error {
	return a.orch.SendText(ctx, contactUID, text)
}

// DeleteChat implements the UI's delete_chat.
func (a *App) DeleteChat(ctx context.Context, contactUID string) error {
	return a.orch.DeleteChat(ctx, contactUID)
}

// ListChats implements the UI's list_chats.
func (a *App) ListChats() ([]model.Chat, error) {
	return a.store.ListChats()
}

// OpenChat implements the UI's open_chat: the chat row plus its
// message history.
func (a *App) OpenChat(contactUID string) (*ChatView, error) {
	chat, err := a.store.GetChat(contactUID)
	if err != nil {
		return nil, err
	}
	messages, err := a.store.ListMessages(contactUID)
	if err != nil {
		return nil, err
	}
	return &ChatView{Chat: *chat, Messages: messages}, nil
}

// UpdateSetting implements the UI's update_setting. The settings row
// is the only place these values live; they are never read from the
// environment.
func (a *App) UpdateSetting(name, value string) error {
	// Make sure the settings row exists so the update has a row to change.
	if _, err := a.store.LoadSettings(a.dataDir); err != nil {
		return err
	}
	switch name {
	case "retry_interval_minutes":
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return model.NewError(model.KindValidation, "retry_interval_minutes must be an integer", err)
		}
		if err := a.store.UpdateRetryInterval(minutes); err != nil {
			return err
		}
		a.worker.SetInterval(time.Duration(minutes) * time.Minute)
		return nil
	case "notifications_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return model.NewError(model.KindValidation, "notifications_enabled must be a bool", err)
		}
		return a.store.UpdateNotificationsEnabled(enabled)
	default:
		return model.NewError(model.KindValidation, "unknown setting: "+name, nil)
	}
}

// RunDiagnostics implements the UI's run_diagnostics: the outcome of
// the most recent connectivity ladder run, one line per rung, plus a
// CGNAT advisory.
func (a *App) RunDiagnostics() Diagnostics {
	a.mu.Lock()
	attempts := a.lastRun
	a.mu.Unlock()

	cgnat := false
	for _, at := range attempts {
		if at.CGNAT {
			cgnat = true
		}
	}

	return Diagnostics{
		Attempts: attempts,
		Summary:  connectivity.Summary(attempts),
		CGNAT:    cgnat,
	}
}

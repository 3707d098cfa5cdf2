// Package prediction runs the ADMET and binding-affinity models and turns their
// raw output into explanations for the user.
package prediction

import (
	"context"
	"strings"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Task identifies a prediction model.
type Task string

const (
	TaskADMET           Task = "admet_prediction"
	TaskBindingAffinity Task = "binding_affinity"
)

// Tasks lists the tasks in the order their markers are matched.
func Tasks() []Task {
	return []Task{TaskADMET, TaskBindingAffinity}
}

// Marker is the token a chat message carries to request the task.
func (t Task) Marker() string {
	return "@" + string(t)
}

// Label is the human-readable task name used in replies.
func (t Task) Label() string {
	switch t {
	case TaskADMET:
		return "ADMET Prediction"
	case TaskBindingAffinity:
		return "Binding Affinity Prediction"
	default:
		return string(t)
	}
}

// ParseTask accepts a task name, its marker, or the short forms "admet" and "binding".
func ParseTask(s string) (Task, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "@") {
	case "admet", string(TaskADMET):
		return TaskADMET, nil
	case "binding", "affinity", string(TaskBindingAffinity):
		return TaskBindingAffinity, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownTask, "unknown task %q", s)
	}
}

type chatIDKey struct{}

// WithChatID tags ctx with the chat a prediction runs for. Reports and events carry it.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey{}, chatID)
}

// ChatIDFrom returns the chat id set by WithChatID, or "".
func ChatIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(chatIDKey{}).(string)
	return id
}

//Personal.AI order the ending

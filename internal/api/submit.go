package api

import (
	"fmt"
	"net/url"
	"strings"

	"facecast/internal/jobs"
	"facecast/internal/language"
	"facecast/internal/services"
)

// maxTextLength bounds submission text to what the speech vendor accepts in
// a single request.
const maxTextLength = 5000

// SubmitRequest is the wire shape of a workflow submission. SaveResult uses
// a pointer so an omitted field defaults to true rather than false.
type SubmitRequest struct {
	Text          string              `json:"text"`
	ActorID       string              `json:"actor_id"`
	ActorVideoURL string              `json:"actor_video_url"`
	ProjectID     string              `json:"project_id,omitempty"`
	VoiceID       string              `json:"voice_id,omitempty"`
	VoicePreset   string              `json:"voice_preset,omitempty"`
	Language      string              `json:"language,omitempty"`
	ModelID       string              `json:"model_id,omitempty"`
	VoiceSettings *jobs.VoiceSettings `json:"voice_settings,omitempty"`
	SaveResult    *bool               `json:"save_result,omitempty"`
	UserID        string              `json:"user_id,omitempty"`
	WorkspaceID   string              `json:"workspace_id,omitempty"`
}

// Validate checks the submission synchronously. A non-nil error means the
// request never enters the workflow and no job record is created.
func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return validationError("text must not be empty")
	}
	if len(r.Text) > maxTextLength {
		return validationError(fmt.Sprintf("text exceeds %d characters", maxTextLength))
	}
	if strings.TrimSpace(r.ActorID) == "" {
		return validationError("actor_id is required")
	}
	if strings.TrimSpace(r.ActorVideoURL) == "" {
		return validationError("actor_video_url is required")
	}
	if parsed, err := url.Parse(strings.TrimSpace(r.ActorVideoURL)); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validationError("actor_video_url must be an absolute URL")
	}
	if lang := strings.TrimSpace(r.Language); lang != "" && language.ToISO2(lang) == "" {
		return validationError(fmt.Sprintf("unrecognized language %q", lang))
	}
	return nil
}

// ToJobRequest converts a validated submission into the record retained on
// the job, applying defaults for omitted fields.
func (r *SubmitRequest) ToJobRequest() jobs.Request {
	saveResult := true
	if r.SaveResult != nil {
		saveResult = *r.SaveResult
	}
	lang := strings.TrimSpace(r.Language)
	if lang == "" {
		lang = language.DefaultLanguage
	}
	return jobs.Request{
		Text:          strings.TrimSpace(r.Text),
		ActorID:       strings.TrimSpace(r.ActorID),
		ActorVideoURL: strings.TrimSpace(r.ActorVideoURL),
		ProjectID:     strings.TrimSpace(r.ProjectID),
		VoiceID:       strings.TrimSpace(r.VoiceID),
		VoicePreset:   strings.TrimSpace(r.VoicePreset),
		Language:      lang,
		ModelID:       strings.TrimSpace(r.ModelID),
		VoiceSettings: r.VoiceSettings,
		SaveResult:    saveResult,
		UserID:        strings.TrimSpace(r.UserID),
		WorkspaceID:   strings.TrimSpace(r.WorkspaceID),
	}
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "", "submit", message, nil)
}

// Package preferences stores per-user dashboard preferences: theme,
// notification toggles, analysis defaults and interface options.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUserKeyRequired is returned when a store call has no user to key on.
	ErrUserKeyRequired = errors.New("user key is required")

	// ErrInvalidPreferences wraps every validation failure.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Preferences is the full preference document of one user.
type Preferences struct {
	Theme         Theme                   `json:"theme" validate:"required,oneof=light dark system"`
	Notifications NotificationPreferences `json:"notifications"`
	Analysis      AnalysisPreferences     `json:"analysis"`
	Interface     InterfacePreferences    `json:"interface"`
}

type NotificationPreferences struct {
	Email            bool `json:"email"`
	Push             bool `json:"push"`
	CriticalFindings bool `json:"critical_findings"`
	ReportComplete   bool `json:"report_complete"`
}

type AnalysisPreferences struct {
	DefaultConfidenceThreshold float64  `json:"default_confidence_threshold" validate:"gte=0,lte=1"`
	AutoAnnotations            bool     `json:"auto_annotations"`
	PreferredModels            []string `json:"preferred_models" validate:"dive,required"`
}

type InterfacePreferences struct {
	CompactMode           bool   `json:"compact_mode"`
	ShowTutorials         bool   `json:"show_tutorials"`
	DefaultReportTemplate string `json:"default_report_template" validate:"required"`
}

// Defaults returns the preferences of a user who never saved any.
func Defaults() Preferences {
	return Preferences{
		Theme: ThemeLight,
		Notifications: NotificationPreferences{
			Email:            true,
			Push:             true,
			CriticalFindings: true,
			ReportComplete:   true,
		},
		Analysis: AnalysisPreferences{
			DefaultConfidenceThreshold: 0.8,
			AutoAnnotations:            true,
			PreferredModels:            []string{"medical-ai-v2"},
		},
		Interface: InterfacePreferences{
			CompactMode:           false,
			ShowTutorials:         true,
			DefaultReportTemplate: "comprehensive",
		},
	}
}

// Patch is a partial update. Nil fields keep their current value.
type Patch struct {
	Theme         *Theme             `json:"theme,omitempty"`
	Notifications *NotificationPatch `json:"notifications,omitempty"`
	Analysis      *AnalysisPatch     `json:"analysis,omitempty"`
	Interface     *InterfacePatch    `json:"interface,omitempty"`
}

type NotificationPatch struct {
	Email            *bool `json:"email,omitempty"`
	Push             *bool `json:"push,omitempty"`
	CriticalFindings *bool `json:"critical_findings,omitempty"`
	ReportComplete   *bool `json:"report_complete,omitempty"`
}

type AnalysisPatch struct {
	DefaultConfidenceThreshold *float64 `json:"default_confidence_threshold,omitempty"`
	AutoAnnotations            *bool    `json:"auto_annotations,omitempty"`
	PreferredModels            []string `json:"preferred_models,omitempty"`
}

type InterfacePatch struct {
	CompactMode           *bool   `json:"compact_mode,omitempty"`
	ShowTutorials         *bool   `json:"show_tutorials,omitempty"`
	DefaultReportTemplate *string `json:"default_report_template,omitempty"`
}

// Merge applies patch on top of current section by section.
func Merge(current Preferences, patch Patch) Preferences {
	merged := current
	merged.Analysis.PreferredModels = append([]string(nil), current.Analysis.PreferredModels...)

	if patch.Theme != nil {
		merged.Theme = *patch.Theme
	}
	if n := patch.Notifications; n != nil {
		setIf(&merged.Notifications.Email, n.Email)
		setIf(&merged.Notifications.Push, n.Push)
		setIf(&merged.Notifications.CriticalFindings, n.CriticalFindings)
		setIf(&merged.Notifications.ReportComplete, n.ReportComplete)
	}
	if a := patch.Analysis; a != nil {
		setIf(&merged.Analysis.DefaultConfidenceThreshold, a.DefaultConfidenceThreshold)
		setIf(&merged.Analysis.AutoAnnotations, a.AutoAnnotations)
		if a.PreferredModels != nil {
			merged.Analysis.PreferredModels = append([]string(nil), a.PreferredModels...)
		}
	}
	if i := patch.Interface; i != nil {
		setIf(&merged.Interface.CompactMode, i.CompactMode)
		setIf(&merged.Interface.ShowTutorials, i.ShowTutorials)
		setIf(&merged.Interface.DefaultReportTemplate, i.DefaultReportTemplate)
	}
	return merged
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks p against the allowed values.
func Validate(p Preferences) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalidPreferences, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}
	return nil
}

// Record is one stored preference document.
type Record struct {
	UserKey     string      `json:"user_key"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Store defines the interface for preference storage operations.
type Store interface {
	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Get returns the user's preferences, or Defaults when none are stored.
	Get(ctx context.Context, userKey string) (Preferences, error)

	// Save validates and stores the full document, replacing any previous one.
	Save(ctx context.Context, userKey string, prefs Preferences) error

	// Delete removes the user's document. Deleting a missing one is not an error.
	Delete(ctx context.Context, userKey string) error

	// List returns stored records, most recently updated first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every stored document.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON loads documents written by ExportJSON. Users that already
	// have a document are skipped.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version     string    `json:"version"`
	ExportedAt  time.Time `json:"exported_at"`
	Count       int       `json:"count"`
	Preferences []*Record `json:"preferences"`
}

const exportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

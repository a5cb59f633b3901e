package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sadopc/studyr/internal/store"
)

const (
	DefaultFocus = 25 * time.Minute
	DefaultRest  = 5 * time.Minute
)

// HMS is a duration as edited in the settings form.
type HMS struct {
	H int `json:"h"`
	M int `json:"m"`
	S int `json:"s"`
}

func (h HMS) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.H, validation.Min(0), validation.Max(24)),
		validation.Field(&h.M, validation.Min(0), validation.Max(59)),
		validation.Field(&h.S, validation.Min(0), validation.Max(59)),
	)
}

func (h HMS) Duration() time.Duration {
	return time.Duration(h.H)*time.Hour + time.Duration(h.M)*time.Minute + time.Duration(h.S)*time.Second
}

func (h HMS) String() string {
	return fmt.Sprintf("%d:%02d:%02d", h.H, h.M, h.S)
}

// HMSOf splits d into whole hours, minutes and seconds.
func HMSOf(d time.Duration) HMS {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return HMS{H: secs / 3600, M: secs % 3600 / 60, S: secs % 60}
}

// Settings are the user-edited timer and goal values persisted under
// store.KeyTimerSettings.
type Settings struct {
	Focus     HMS     `json:"focus"`
	Rest      HMS     `json:"rest"`
	DailyGoal float64 `json:"dailyGoal"`
}

func DefaultSettings() Settings {
	return Settings{Focus: HMSOf(DefaultFocus), Rest: HMSOf(DefaultRest), DailyGoal: 120}
}

var errZeroLength = errors.New("must be at least one second")

// nonZero rejects a 0:00:00 length.
var nonZero = validation.By(func(v any) error {
	if h, ok := v.(HMS); ok && h.Duration() < time.Second {
		return errZeroLength
	}
	return nil
})

func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Focus, nonZero),
		validation.Field(&s.Rest, nonZero),
		validation.Field(&s.DailyGoal, validation.Min(0.0)),
	)
}

// LoadSettings returns the persisted settings. ok is false when none were saved.
func LoadSettings(ctx context.Context, kv store.KV) (s Settings, ok bool, err error) {
	ok, err = kv.Get(ctx, store.KeyTimerSettings, &s)
	if err != nil {
		return Settings{}, false, fmt.Errorf("load timer settings: %w", err)
	}
	if !ok {
		return DefaultSettings(), false, nil
	}
	if err := s.Validate(); err != nil {
		return DefaultSettings(), false, fmt.Errorf("load timer settings: %w", err)
	}
	return s, true, nil
}

func SaveSettings(ctx context.Context, kv store.KV, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := kv.Set(ctx, store.KeyTimerSettings, s); err != nil {
		return fmt.Errorf("save timer settings: %w", err)
	}
	return nil
}

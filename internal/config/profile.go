package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matheus3301/jobdesk/internal/api"
)

// Environment variables overriding profile fields.
const (
	EnvBaseURL = "JOBDESK_BASE_URL"
	EnvToken   = "JOBDESK_TOKEN"
	EnvUserID  = "JOBDESK_USER_ID"
)

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Endpoints overrides backend routes. Empty fields keep the defaults.
type Endpoints struct {
	Companies     string `toml:"companies,omitempty"`
	JobTypes      string `toml:"job_types,omitempty"`
	Jobs          string `toml:"jobs,omitempty"`
	Notifications string `toml:"notifications,omitempty"`
	UnreadCount   string `toml:"unread_count,omitempty"`
	MarkRead      string `toml:"mark_read,omitempty"`
	MarkAllRead   string `toml:"mark_all_read,omitempty"`
	Delete        string `toml:"delete,omitempty"`
}

// Profile is the per-session configuration.
type Profile struct {
	BaseURL        string    `toml:"base_url" validate:"required,url"`
	Token          string    `toml:"token,omitempty"`
	UserID         int       `toml:"user_id,omitempty" validate:"gte=0"`
	RequestTimeout Duration  `toml:"request_timeout"`
	PollInterval   Duration  `toml:"poll_interval"`
	SearchDebounce Duration  `toml:"search_debounce"`
	RecentLimit    int       `toml:"recent_limit" validate:"gte=1,lte=100"`
	Endpoints      Endpoints `toml:"endpoints"`
}

// DefaultProfile returns a profile with every optional field set.
func DefaultProfile() *Profile {
	return &Profile{
		RequestTimeout: Duration{15 * time.Second},
		PollInterval:   Duration{30 * time.Second},
		SearchDebounce: Duration{300 * time.Millisecond},
		RecentLimit:    10,
	}
}

// LoadProfile reads the profile at path over the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error as long as the environment supplies what is required.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if _, err := toml.DecodeFile(path, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := p.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProfile writes p to path with owner-only permissions.
func SaveProfile(path string, p *Profile) error {
	return write(path, p)
}

// ApplyEnv overrides fields from the environment through lookup.
func (p *Profile) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		p.BaseURL = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		p.Token = v
	}
	if v, ok := lookup(EnvUserID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvUserID, v)
		}
		p.UserID = id
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(Profile)
		if p.RequestTimeout.Duration < time.Second || p.RequestTimeout.Duration > 2*time.Minute {
			sl.ReportError(p.RequestTimeout, "RequestTimeout", "request_timeout", "range_1s_2m", "")
		}
		if p.PollInterval.Duration < time.Second {
			sl.ReportError(p.PollInterval, "PollInterval", "poll_interval", "min_1s", "")
		}
		if p.SearchDebounce.Duration < 0 {
			sl.ReportError(p.SearchDebounce, "SearchDebounce", "search_debounce", "non_negative", "")
		}
	}, Profile{})
	return v
}

// Validate checks field ranges and required values.
func (p *Profile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid profile: %s", strings.Join(msgs, "; "))
}

// ClientOptions maps the profile onto api.Options.
func (p *Profile) ClientOptions() api.Options {
	paths := api.DefaultPaths()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&paths.Companies, p.Endpoints.Companies)
	override(&paths.JobTypes, p.Endpoints.JobTypes)
	override(&paths.Jobs, p.Endpoints.Jobs)
	override(&paths.Notifications, p.Endpoints.Notifications)
	override(&paths.UnreadCount, p.Endpoints.UnreadCount)
	override(&paths.MarkRead, p.Endpoints.MarkRead)
	override(&paths.MarkAllRead, p.Endpoints.MarkAllRead)
	override(&paths.Delete, p.Endpoints.Delete)
	return api.Options{
		BaseURL: p.BaseURL,
		Token:   p.Token,
		Timeout: p.RequestTimeout.Duration,
		Paths:   paths,
	}
}

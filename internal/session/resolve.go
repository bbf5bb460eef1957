package session

import "github.com/matheus3301/jobdesk/internal/config"

const DefaultSessionName = "main"

// Resolve determines the active session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_session
// 3. "main"
func Resolve(flagOverride string) (string, error) {
	name := DefaultSessionName
	if flagOverride != "" {
		name = flagOverride
	} else if cfg, err := config.Load(ConfigPath()); err == nil && cfg.DefaultSession != "" {
		name = cfg.DefaultSession
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/prev/internal/foundation"
)

var (
	themes = foundation.NewNormalizer(map[string]Theme{
		string(ThemeLight):  ThemeLight,
		string(ThemeDark):   ThemeDark,
		string(ThemeSystem): ThemeSystem,
	}, ThemeSystem)
	widths = foundation.NewNormalizer(map[string]ContentWidth{
		string(WidthConstrained): WidthConstrained,
		string(WidthFull):        WidthFull,
	}, WidthConstrained)
)

// FromMap builds a Config from decoded YAML, keeping only values that are
// valid and defaulting the rest.
func FromMap(raw map[string]any) *Config {
	cfg := Default()
	if raw == nil {
		return cfg
	}

	if t, ok := raw["theme"].(string); ok {
		if theme, err := themes.NormalizeWithError(t); err == nil {
			cfg.Theme = theme
		} else {
			slog.Warn("Ignoring invalid theme", slog.String("theme", t))
		}
	}

	if w, ok := raw["contentWidth"].(string); ok {
		cfg.ContentWidth = widths.Normalize(w)
	}

	if list, ok := stringList(raw["hidden"]); ok {
		cfg.Hidden = list
	}

	if order, ok := raw["order"].(map[string]any); ok {
		for key, v := range order {
			if list, ok := stringList(v); ok {
				cfg.Order[key] = list
			}
		}
	}

	if port, ok := intValue(raw["port"]); ok && port > 0 && port < 65536 {
		cfg.Port = port
	}

	if list, ok := stringList(raw["include"]); ok {
		cfg.Include = list
	}

	if tw, ok := raw["tailwind"].(bool); ok {
		cfg.Tailwind = tw
	}

	if cdn, ok := raw["cdn"].(map[string]any); ok {
		if base, ok := cdn["base"].(string); ok && strings.HasPrefix(base, "http") {
			cfg.CDN.Base = strings.TrimSuffix(base, "/")
		}
		if pins, ok := cdn["pins"].(map[string]any); ok {
			cfg.CDN.Pins = map[string]string{}
			for pkg, v := range pins {
				switch v := v.(type) {
				case string:
					cfg.CDN.Pins[pkg] = v
				case int, float64:
					cfg.CDN.Pins[pkg] = fmt.Sprint(v)
				}
			}
		}
	}

	if nats, ok := raw["nats"].(map[string]any); ok {
		if u, ok := nats["url"].(string); ok {
			cfg.NATS.URL = u
		}
		if s, ok := nats["subject"].(string); ok && s != "" {
			cfg.NATS.Subject = s
		}
	}

	if cache, ok := raw["cache"].(map[string]any); ok {
		if days, ok := intValue(cache["maxAgeDays"]); ok && days > 0 {
			cfg.Cache.MaxAgeDays = days
		}
	}

	return cfg
}

// stringList keeps the string elements of a YAML sequence.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// Package template renders action message templates with the Liquid
// template language, so automation configs can interpolate item and
// event fields ({{ item.number }}, {{ event.total | euro }}).
package template

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/osteele/liquid"
)

var (
	engineOnce sync.Once
	engine     *liquid.Engine

	// cache holds parsed templates keyed by their source text; automation
	// configs reuse the same few templates across runs.
	cache sync.Map // map[string]*liquid.Template
)

func getEngine() *liquid.Engine {
	engineOnce.Do(func() {
		engine = liquid.NewEngine()

		engine.RegisterFilter("euro", func(value any) string {
			switch v := value.(type) {
			case float64:
				return fmt.Sprintf("€%.2f", v)
			case int:
				return fmt.Sprintf("€%d,00", v)
			default:
				return fmt.Sprintf("€%v", v)
			}
		})

		engine.RegisterFilter("default", func(value any, fallback string) any {
			if value == nil || fmt.Sprintf("%v", value) == "" {
				return fallback
			}

			return value
		})

		engine.RegisterFilter("date_nl", func(t time.Time) string {
			return t.Format("02-01-2006")
		})
	})

	return engine
}

// Render interpolates the template against the binding map. A plain
// string without Liquid markup passes through unchanged.
func Render(templateStr string, bindings map[string]any) (string, error) {
	if !strings.Contains(templateStr, "{{") && !strings.Contains(templateStr, "{%") {
		return templateStr, nil
	}

	tpl, err := parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	result, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return result, nil
}

// Validate reports whether the template parses, used at automation save
// time so broken templates fail early instead of at 09:00 the next day.
func Validate(templateStr string) error {
	if _, err := parse(templateStr); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	return nil
}

func parse(templateStr string) (*liquid.Template, error) {
	if cached, ok := cache.Load(templateStr); ok {
		return cached.(*liquid.Template), nil
	}

	tpl, err := getEngine().ParseString(templateStr)
	if err != nil {
		return nil, err
	}

	cache.Store(templateStr, tpl)

	return tpl, nil
}

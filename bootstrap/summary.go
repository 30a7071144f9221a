package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/transcribot/component"
)

// Fact is one labelled line of the startup summary, such as the number of
// known accounts.
type Fact struct {
	Key   string
	Label string
	Value any
}

// Summary collects what is shown once the service is up.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	facts           []Fact
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// SetVersion overrides the version shown in the header.
func (s *Summary) SetVersion(v string) {
	s.version = v
}

// AddFact appends a line. key is the structured log field.
func (s *Summary) AddFact(key, label string, value any) {
	s.facts = append(s.facts, Fact{Key: key, Label: label, Value: value})
}

// Facts returns the recorded facts in insertion order.
func (s *Summary) Facts() []Fact {
	return append([]Fact(nil), s.facts...)
}

// Fields returns the facts as log fields.
func (s *Summary) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"version":    s.version,
		"startup_ms": s.startupDuration.Milliseconds(),
	}
	for _, f := range s.facts {
		fields[f.Key] = f.Value
	}
	return fields
}

// Render formats the summary: facts, components with their descriptions,
// routes and live health from registry.
func (s *Summary) Render(ctx context.Context, registry *component.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🚀 %s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.facts) > 0 {
		b.WriteString("\n📋 Status\n")
		for i, f := range s.facts {
			fmt.Fprintf(&b, "   %s %s: %v\n", branch(i, len(s.facts)), f.Label, f.Value)
		}
	}

	if registry == nil {
		b.WriteString("\n")
		return b.String()
	}

	components := registry.All()
	var routes []component.Route
	if len(components) > 0 {
		b.WriteString("\n📦 Components\n")
		for i, c := range components {
			line := c.Name()
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name != "" {
					line = desc.Name
				}
				if desc.Details != "" {
					line += ": " + desc.Details
				}
			}
			fmt.Fprintf(&b, "   %s %s\n", branch(i, len(components)), line)
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(&b, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(&b, "   %s %-7s %s\n", branch(i, len(routes)), r.Method, r.Path)
		}
	}

	health := registry.HealthAll(ctx)
	if len(health) > 0 {
		b.WriteString("\n🏥 Health Check\n")
		healthy := 0
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(&b, "   %s %s %s: %s%s\n", branch(i, len(health)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
			if h.Status == component.StatusHealthy {
				healthy++
			}
		}
		if healthy == len(health) {
			fmt.Fprintf(&b, "\n✅ All components healthy (%d/%d)\n", healthy, len(health))
		} else {
			fmt.Fprintf(&b, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(health))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}

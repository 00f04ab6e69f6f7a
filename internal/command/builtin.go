package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/austinbrady/Assist-sub001/internal/behavior"
	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
	"github.com/austinbrady/Assist-sub001/internal/persona"
	"github.com/austinbrady/Assist-sub001/internal/values"
)

// ---------------------------------------------------------------------------
// Interfaces — kept here so builtin commands avoid importing concrete types.
// ---------------------------------------------------------------------------

// Assistant exposes the per-user insight surfaces commands render.
type Assistant interface {
	SuggestionsFor(ctx context.Context, username string) []pattern.Suggestion
	BehaviorFor(ctx context.Context, username string) *behavior.Analysis
	TraitsFor(ctx context.Context, username string) persona.Traits
	ValuesFor(ctx context.Context, username string) (*values.System, error)
	CharacterFor(ctx context.Context, username string) (*persona.Character, error)
}

// StatusProvider provides adapter connection status.
type StatusProvider interface {
	StatusAll() []gateway.AdapterStatus
}

// ---------------------------------------------------------------------------
// RegisterBuiltins wires up the built-in slash commands.
// ---------------------------------------------------------------------------

// RegisterBuiltins registers /help, /suggestions, /traits, /values,
// /behavior, /character and /status.
func RegisterBuiltins(reg *Registry) {
	reg.Register(helpCommand(reg))
	reg.Register(suggestionsCommand())
	reg.Register(traitsCommand())
	reg.Register(valuesCommand())
	reg.Register(behaviorCommand())
	reg.Register(characterCommand())
	reg.Register(statusCommand())
}

// ---------------------------------------------------------------------------
// /help
// ---------------------------------------------------------------------------

func helpCommand(reg *Registry) *Command {
	return &Command{
		Name:        "help",
		Description: "List all available commands",
		Usage:       "/help",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			cmds := reg.List()
			var b strings.Builder
			b.WriteString("Available commands:\n")
			for _, c := range cmds {
				fmt.Fprintf(&b, "  /%s — %s\n", c.Name, c.Description)
				if c.Usage != "" {
					fmt.Fprintf(&b, "    Usage: %s\n", c.Usage)
				}
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /suggestions
// ---------------------------------------------------------------------------

func suggestionsCommand() *Command {
	return &Command{
		Name:        "suggestions",
		Description: "Show your current proactive suggestions",
		Usage:       "/suggestions",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			suggestions := cc.Engine.SuggestionsFor(ctx, cc.UserName)
			if len(suggestions) == 0 {
				return &CommandResult{Content: "No suggestions right now. Keep chatting and I'll spot patterns."}, nil
			}
			var b strings.Builder
			b.WriteString("Suggestions:\n")
			for _, s := range suggestions {
				fmt.Fprintf(&b, "  %s — %s (confidence %.0f%%)\n", s.Title, s.Message, s.Confidence*100)
			}
			return &CommandResult{Content: b.String(), Data: suggestions}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /traits
// ---------------------------------------------------------------------------

func traitsCommand() *Command {
	return &Command{
		Name:        "traits",
		Description: "Show how my personality is currently tuned for you",
		Usage:       "/traits",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			t := cc.Engine.TraitsFor(ctx, cc.UserName)
			var b strings.Builder
			b.WriteString("Current personality dials:\n")
			fmt.Fprintf(&b, "  kindness:       %.2f\n", t.Kindness)
			fmt.Fprintf(&b, "  directness:     %.2f\n", t.Directness)
			fmt.Fprintf(&b, "  encouragement:  %.2f\n", t.Encouragement)
			fmt.Fprintf(&b, "  accountability: %.2f\n", t.Accountability)
			fmt.Fprintf(&b, "  supportiveness: %.2f\n", t.Supportiveness)
			fmt.Fprintf(&b, "  wisdom focus:   %.2f\n", t.WisdomFocus)
			return &CommandResult{Content: b.String(), Data: t}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /values
// ---------------------------------------------------------------------------

func valuesCommand() *Command {
	return &Command{
		Name:        "values",
		Description: "Show what topics I believe matter to you",
		Usage:       "/values",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			sys, err := cc.Engine.ValuesFor(ctx, cc.UserName)
			if err != nil {
				return nil, err
			}
			high := sortedKeys(sys.HighValueTopics)
			low := sortedKeys(sys.LowValueTopics)
			if len(high) == 0 && len(low) == 0 {
				return &CommandResult{Content: "I'm still learning what matters to you."}, nil
			}
			var b strings.Builder
			if len(high) > 0 {
				b.WriteString("Matters to you: " + strings.Join(high, ", ") + "\n")
			}
			if len(low) > 0 {
				b.WriteString("Rarely comes up: " + strings.Join(low, ", ") + "\n")
			}
			return &CommandResult{Content: b.String(), Data: sys}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /behavior
// ---------------------------------------------------------------------------

func behaviorCommand() *Command {
	return &Command{
		Name:        "behavior",
		Description: "Show my current read of your conversation patterns",
		Usage:       "/behavior",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			analysis := cc.Engine.BehaviorFor(ctx, cc.UserName)
			var b strings.Builder
			fmt.Fprintf(&b, "Risk level: %s\n", analysis.RiskLevel)
			for _, c := range analysis.Concerns {
				fmt.Fprintf(&b, "  concern: %s (%s)\n", c.Type, c.Severity)
			}
			for _, s := range analysis.Strengths {
				fmt.Fprintf(&b, "  strength: %s\n", s)
			}
			return &CommandResult{Content: b.String(), Data: analysis}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /character
// ---------------------------------------------------------------------------

func characterCommand() *Command {
	return &Command{
		Name:        "character",
		Description: "Show your assistant's character sheet",
		Usage:       "/character",
		Handler: func(ctx context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			ch, err := cc.Engine.CharacterFor(ctx, cc.UserName)
			if err != nil {
				return nil, err
			}
			if ch == nil {
				return &CommandResult{Content: "No character yet — send a message first."}, nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "%s (with you since %s)\n", ch.CharacterName, ch.CreatedAt.Format("2006-01-02"))
			fmt.Fprintf(&b, "  conversations: %d\n", ch.Metrics["conversations"])
			fmt.Fprintf(&b, "  study log entries: %d\n", len(ch.StudyLog))
			return &CommandResult{Content: b.String(), Data: ch}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// /status
// ---------------------------------------------------------------------------

func statusCommand() *Command {
	return &Command{
		Name:        "status",
		Description: "Show adapter connection status",
		Usage:       "/status",
		Handler: func(_ context.Context, _ string, cc *CommandContext) (*CommandResult, error) {
			if cc.Status == nil {
				return &CommandResult{Content: "No adapters configured."}, nil
			}
			adapters := cc.Status.StatusAll()
			if len(adapters) == 0 {
				return &CommandResult{Content: "No adapters configured."}, nil
			}
			var b strings.Builder
			b.WriteString("Adapter status:\n")
			for _, a := range adapters {
				state := "disconnected"
				if a.Connected {
					state = "connected"
				}
				fmt.Fprintf(&b, "  %s: %s\n", a.Platform, state)
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

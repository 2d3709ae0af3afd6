// Package interpolate resolves {identifier.path} placeholders in action
// config strings against the current trigger context and the outputs of
// actions already executed in the same run.
//
// Templates are best-effort presentation, not strict contracts: an
// unresolvable placeholder renders as an empty string instead of aborting
// the action. Literal braces are not supported at this layer.
package interpolate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sanketnighot/hookified/pkg/types"
)

// Scope is the resolution namespace for one run:
//
//	trigger.*    -> the trigger context payload
//	actions[N].* -> the Nth prior action's recorded output
//	actionN.*    -> short alias for actions[N].*
//	hookId, runId, timestamp -> builtins, always available
type Scope struct {
	HookId  string
	RunId   string
	OwnerId uint // user owning the hook being run; chained targets must match
	Trigger *types.TriggerContext
	Actions []types.ActionExecutionRecord
	Now     time.Time
	Depth   int // chain-invocation depth of the owning run
}

// ChainDepth returns how many CHAIN hops deep the owning run is.
func (s *Scope) ChainDepth() int { return s.Depth }

// NewScope builds a scope for a run. Actions grows as the pipeline
// progresses; append completed records before resolving the next action.
func NewScope(hookId, runId string, trigger *types.TriggerContext, now time.Time) *Scope {
	return &Scope{HookId: hookId, RunId: runId, Trigger: trigger, Now: now}
}

// Resolve replaces every {path} placeholder in template. Single pass,
// left to right over brace delimiters.
func (s *Scope) Resolve(template string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(template, '{')
		if open < 0 {
			b.WriteString(template)
			return b.String()
		}
		closeIdx := strings.IndexByte(template[open:], '}')
		if closeIdx < 0 {
			b.WriteString(template)
			return b.String()
		}
		b.WriteString(template[:open])
		b.WriteString(s.lookup(template[open+1 : open+closeIdx]))
		template = template[open+closeIdx+1:]
	}
}

// ResolveMap resolves every value of a string map, returning a new map.
func (s *Scope) ResolveMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = s.Resolve(v)
	}
	return out
}

func (s *Scope) lookup(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	switch path {
	case "hookId":
		return s.HookId
	case "runId":
		return s.RunId
	case "timestamp":
		return s.Now.UTC().Format(time.RFC3339)
	}

	head, rest, _ := strings.Cut(path, ".")

	if head == "trigger" {
		if s.Trigger == nil {
			return ""
		}
		return stringify(walk(s.Trigger.Data, rest))
	}

	if idx, ok := actionIndex(head); ok {
		if idx < 0 || idx >= len(s.Actions) {
			return ""
		}
		rec := s.Actions[idx]
		if rest == "" {
			return stringify(rec.Output)
		}
		return stringify(walk(mapAny(rec.Output), rest))
	}

	return ""
}

// actionIndex parses "actions[N]" or the short alias "actionN".
func actionIndex(head string) (int, bool) {
	if strings.HasPrefix(head, "actions[") && strings.HasSuffix(head, "]") {
		n, err := strconv.Atoi(head[len("actions[") : len(head)-1])
		return n, err == nil
	}
	if strings.HasPrefix(head, "action") {
		n, err := strconv.Atoi(head[len("action"):])
		return n, err == nil
	}
	return 0, false
}

// walk descends a dotted path through nested maps. Missing steps return nil.
func walk(data map[string]any, path string) any {
	if path == "" {
		return data
	}
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func mapAny(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; render integers without a fraction.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

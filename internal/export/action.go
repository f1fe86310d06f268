package export

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
)

// Action is a parsed export command line.
type Action struct {
	Name    string
	Debug   bool
	Threads int // 0 selects the machine default
}

// ParseAction parses "<action> [debug] [j<N>]". A bare number is accepted as
// the thread count as well.
func ParseAction(args []string) (Action, error) {
	if len(args) == 0 {
		return Action{}, rkerrors.ValidationFailed("action", "missing action")
	}
	a := Action{Name: args[0]}
	for _, arg := range args[1:] {
		switch {
		case arg == "debug":
			a.Debug = true
		case strings.HasPrefix(arg, "j") && len(arg) > 1:
			n, err := strconv.Atoi(arg[1:])
			if err != nil || n < 1 {
				return Action{}, rkerrors.ValidationFailed("threads", fmt.Sprintf("invalid thread count %q", arg))
			}
			a.Threads = n
		default:
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return Action{}, rkerrors.ValidationFailed("args", fmt.Sprintf("unexpected argument %q", arg))
			}
			a.Threads = n
		}
	}
	return a, nil
}

// Threads returns explicit when positive, otherwise the number of physical
// cores, falling back to logical CPUs. The result is never below 1.
func Threads(explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Kind distinguishes what an action does.
type Kind int

const (
	KindExport Kind = iota + 1
	KindGenerate
)

func (k Kind) String() string {
	switch k {
	case KindExport:
		return "export"
	case KindGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Plan is a resolved action: its kind and the targets it runs, in order.
type Plan struct {
	Kind    Kind
	Targets []string
}

// Resolve maps an action name to the targets it runs.
func Resolve(cfg *config.Config, name string) (Plan, error) {
	if _, ok := cfg.Export.Targets[name]; ok {
		return Plan{Kind: KindExport, Targets: []string{name}}, nil
	}
	if members, ok := cfg.Export.Aliases[name]; ok {
		return Plan{Kind: KindExport, Targets: append([]string(nil), members...)}, nil
	}
	if _, ok := cfg.Generate.Targets[name]; ok {
		return Plan{Kind: KindGenerate, Targets: []string{name}}, nil
	}
	if members, ok := cfg.Generate.Aliases[name]; ok {
		return Plan{Kind: KindGenerate, Targets: append([]string(nil), members...)}, nil
	}
	return Plan{}, rkerrors.UnknownAction(name)
}

package commands

import (
	"regexp"
	"strings"

	"github.com/imamik/shepherd/cmd/shepherd/handlers"
	"github.com/imamik/shepherd/internal/provider"
)

// aliases maps verbs borrowed from virsh, the AWS CLI, vagrant and a few
// other tools onto actions.
var aliases = map[string]provider.Action{
	// virsh
	"list":     provider.ActionStatus,
	"dominfo":  provider.ActionFullStatus,
	"start":    provider.ActionStart,
	"reboot":   provider.ActionRestart,
	"shutdown": provider.ActionStop,
	"destroy":  provider.ActionKill,
	// aws
	"stop":      provider.ActionStop,
	"terminate": provider.ActionKill,
	// vagrant
	"up":     provider.ActionStart,
	"reload": provider.ActionRestart,
	"halt":   provider.ActionStop,
	// other
	"delete": provider.ActionKill,
	"show":   provider.ActionFullStatus,
}

var separators = regexp.MustCompile(`[\s:,]+`)

// ParseArgs splits positional arguments into a host pattern and an action.
//
// Accepted forms are "<pattern> <action>", "<action> <host>..." and the
// lone "list". With exactly two arguments the first one is taken as the
// action when it names one, so "start web" and "web start" both work.
func ParseArgs(args []string) (handlers.Invocation, error) {
	if len(args) == 1 && args[0] == "list" {
		return handlers.Invocation{Pattern: "all", Action: provider.ActionStatus}, nil
	}
	if len(args) < 2 {
		return handlers.Invocation{}, provider.Errorf(provider.KindCommandline, "Invalid command-line arguments.")
	}

	var verb string
	var hosts []string
	switch {
	case len(args) > 2 || isAction(args[0]):
		verb, hosts = args[0], args[1:]
	default:
		verb, hosts = args[1], args[:1]
	}

	action, err := provider.ParseAction(string(resolveAlias(verb)))
	if err != nil {
		return handlers.Invocation{}, err
	}

	pattern := separators.ReplaceAllString(strings.Join(hosts, " "), ":")
	pattern = strings.Trim(pattern, ":")
	if pattern == "" {
		return handlers.Invocation{}, provider.Errorf(provider.KindCommandline, "Invalid command-line arguments.")
	}
	return handlers.Invocation{Pattern: pattern, Action: action}, nil
}

func isAction(word string) bool {
	if _, ok := aliases[word]; ok {
		return true
	}
	return provider.Action(word).Valid()
}

func resolveAlias(word string) provider.Action {
	if a, ok := aliases[word]; ok {
		return a
	}
	return provider.Action(word)
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

// CommandKind selects what a Command does
type CommandKind int

// Commands understood by the Manager
const (
	CommandQueue CommandKind = iota
	CommandUnload
	CommandUnloadNamespace
)

func (k CommandKind) String() string {
	switch k {
	case CommandQueue:
		return "queue"
	case CommandUnload:
		return "unload"
	case CommandUnloadNamespace:
		return "unload namespace"
	}
	return "unknown"
}

// Command is sent from a Proxy to the Manager. Queue uses URL,
// Unload and UnloadNamespace use Target.
type Command struct {
	Kind   CommandKind
	URL    URL
	Target string
}

// QueueCommand loads url
func QueueCommand(url URL) Command {
	return Command{Kind: CommandQueue, URL: url}
}

// UnloadCommand unloads the asset at vpath
func UnloadCommand(vpath string) Command {
	return Command{Kind: CommandUnload, Target: vpath}
}

// UnloadNamespaceCommand unloads every asset under ns
func UnloadNamespaceCommand(ns string) Command {
	return Command{Kind: CommandUnloadNamespace, Target: ns}
}

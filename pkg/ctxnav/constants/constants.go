// Package constants defines shared constants, types, and configuration values
// used throughout the ctxnav navigation engine.
package constants

import (
	"os"
	"strings"
)

// DebugEnvVar is the environment variable that raises the internal log level to debug.
const DebugEnvVar = "CTXNAV_DEBUG"

// IsDebug returns true if CTXNAV_DEBUG is set to a non-empty value.
func IsDebug() bool {
	return os.Getenv(DebugEnvVar) != ""
}

// Hash fragment grammar.
const (
	PendingCreationMarker = "(...)"    // trailing marker of a deferred or async creation target
	DeferredArgument      = "..."      // route argument value signalling a pending creation
	QueryPlaceholder      = ":?query:" // optional query placeholder in route patterns
	LayoutParam           = "layout"   // multi-column layout query parameter
	ActionParam           = "i-action" // in-progress action query parameter
	ActionCreate          = "create"   // value of ActionParam during a creation flow
	AppStateParam         = "sap-iapp-state"
	PreferredModeParam    = "preferredMode"
	PreferredModeCreate   = "create"
)

// CreateActionQuery is the query fragment flagging an in-progress creation flow.
const CreateActionQuery = ActionParam + "=" + ActionCreate

// Draft annotation vocabulary.
const (
	IsActiveEntityProperty = "IsActiveEntity"
	SiblingActiveProperty  = "SiblingEntity/IsActiveEntity"
)

// UIState tracks whether bound data needs a refresh.
type UIState int32

const (
	UIStateClean     UIState = iota // Bindings are current
	UIStateProcessed                // A rebind has started
	UIStateDirty                    // A mutation happened, bindings must be refreshed
)

func (s UIState) GetName() string {
	switch s {
	case UIStateClean:
		return "Clean"
	case UIStateProcessed:
		return "Processed"
	case UIStateDirty:
		return "Dirty"
	default:
		return "Unknown"
	}
}

func (s UIState) String() string {
	return s.GetName()
}

// DraftKind describes the draft annotation of an entity set.
type DraftKind int

const (
	DraftNone DraftKind = iota
	DraftRoot
	DraftNode
)

// IsDraftEnabled returns true for draft roots and draft nodes.
func (d DraftKind) IsDraftEnabled() bool {
	return d == DraftRoot || d == DraftNode
}

func (d DraftKind) GetName() string {
	switch d {
	case DraftNone:
		return "None"
	case DraftRoot:
		return "DraftRoot"
	case DraftNode:
		return "DraftNode"
	default:
		return "Unknown"
	}
}

// ParseDraftKind maps an annotation name ("DraftRoot", "draft_node", ...) to a DraftKind.
func ParseDraftKind(raw string) DraftKind {
	switch strings.ToLower(strings.ReplaceAll(raw, "_", "")) {
	case "draftroot", "root":
		return DraftRoot
	case "draftnode", "node":
		return DraftNode
	default:
		return DraftNone
	}
}

// BindingKind distinguishes the three binding flavours of the data access layer.
type BindingKind int

const (
	BindingContext  BindingKind = iota // single-entity binding
	BindingList                        // collection binding
	BindingProperty                    // scalar property binding
)

func (k BindingKind) GetName() string {
	switch k {
	case BindingContext:
		return "Context"
	case BindingList:
		return "List"
	case BindingProperty:
		return "Property"
	default:
		return "Unknown"
	}
}

// Default layout identifiers of a three-column flexible layout.
const (
	LayoutOneColumn           = "OneColumn"
	LayoutTwoColumnsMid       = "TwoColumnsMidExpanded"
	LayoutThreeColumnsEnd     = "ThreeColumnsEndExpanded"
	LayoutEndColumnFullScreen = "EndColumnFullScreen"
	DefaultRootLayoutLevel    = 0
	DefaultHiddenBindingGroup = "$auto.Heroes"
)

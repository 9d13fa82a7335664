package parser

import "github.com/rasendubi/braindump/ast"

// Mode names a position in the parse-mode state machine: which
// constructs are legal for the current parseElements call to recognize.
type Mode string

const (
	ModeFirstSection  Mode = "first-section"
	ModeSection       Mode = "section"
	ModeItem          Mode = "item"
	ModeNodeProperty  Mode = "node-property"
	ModePlanning      Mode = "planning"
	ModePropertyDraw  Mode = "property-drawer"
	ModeTableRow      Mode = "table-row"
	ModeTopComment    Mode = "top-comment"
	ModeDefault       Mode = ""
)

// nextSiblingMode applies the sibling-transition table: given the mode a
// child was produced under and that child's type, what mode governs the
// next sibling in the same parseElements loop.
func nextSiblingMode(mode Mode, childType ast.NodeType) Mode {
	switch mode {
	case ModeItem:
		return ModeItem
	case ModeNodeProperty:
		return ModeNodeProperty
	case ModeTableRow:
		return ModeTableRow
	case ModePlanning:
		if childType == ast.TypePlanning {
			return ModePropertyDraw
		}
		return ModeDefault
	case ModeTopComment:
		if childType == ast.TypeComment {
			return ModePropertyDraw
		}
		return ModeDefault
	default:
		return ModeDefault
	}
}

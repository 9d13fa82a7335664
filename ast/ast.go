// Package ast defines the node types produced by the org-mode parser.
//
// The type set is closed: every node is one of the variants declared here,
// tagged by Type(). There is deliberately no shared base type carrying
// ContentsBegin/ContentsEnd — each variant declares the fields it needs
// directly, so the struct a consumer receives is exactly the data that
// variant has, no more.
package ast

// NodeType discriminates the closed set of AST node variants.
type NodeType string

const (
	TypeOrgData   NodeType = "org-data"
	TypeHeadline  NodeType = "headline"
	TypeSection   NodeType = "section"
	TypeParagraph NodeType = "paragraph"
	TypePlainList NodeType = "plain-list"
	TypeItem      NodeType = "item"
	TypeLink      NodeType = "link"
	TypeText      NodeType = "text"

	// Extension constructs; not required by the core
	// grammar but wired into the mode table and restriction sets.
	TypeKeyword   NodeType = "keyword"
	TypeComment   NodeType = "comment"
	TypeDrawer    NodeType = "drawer"
	TypePlanning  NodeType = "planning"
	TypeTable     NodeType = "table"
	TypeTableRow  NodeType = "table-row"
	TypeTimestamp NodeType = "timestamp"
	TypeEmphasis  NodeType = "emphasis"
)

// Node is implemented by every AST node. Position fields are byte offsets
// into the buffer passed to Parse.
type Node interface {
	Type() NodeType
	Begin() int
	End() int
}

// Checkbox is the tristate checkbox marker on a list item.
type Checkbox string

const (
	CheckboxOff   Checkbox = "off"
	CheckboxOn    Checkbox = "on"
	CheckboxTrans Checkbox = "trans"
)

// EmphasisMarker names an inline emphasis construct.
type EmphasisMarker string

const (
	EmphasisBold          EmphasisMarker = "bold"
	EmphasisItalic        EmphasisMarker = "italic"
	EmphasisCode          EmphasisMarker = "code"
	EmphasisVerbatim      EmphasisMarker = "verbatim"
	EmphasisStrikethrough EmphasisMarker = "strikethrough"
	EmphasisUnderline     EmphasisMarker = "underline"
)

// ItemDescriptor is a purely locational record produced by the list
// structure scanner (package listscan). It is immutable after scanning and
// is shared by reference (the same slice header) between a plain-list node
// and every item node within it.
type ItemDescriptor struct {
	Begin    int       `json:"begin"`
	Indent   int       `json:"indent"`
	Bullet   string    `json:"bullet"`
	Counter  string    `json:"counter,omitempty"`
	Checkbox *Checkbox `json:"checkbox,omitempty"`
	Tag      string    `json:"tag,omitempty"`
	End      int       `json:"end"`
}

// OrgData is the root of the tree. Children is at most one Section followed
// by zero or more Headlines.
type OrgData struct {
	Kind          NodeType `json:"type"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children"`
}

func NewOrgData(begin, end int) *OrgData {
	return &OrgData{Kind: TypeOrgData, ContentsBegin: begin, ContentsEnd: end}
}
func (n *OrgData) Type() NodeType { return n.Kind }
func (n *OrgData) Begin() int     { return n.ContentsBegin }
func (n *OrgData) End() int       { return n.ContentsEnd }

// Headline carries the title line's parsed pieces plus the contents range
// of the section body that follows it. Children are the Section (if any)
// immediately under the headline, followed by descendant Headlines strictly
// deeper in level.
type Headline struct {
	Kind          NodeType `json:"type"`
	Level         int      `json:"level"`
	RawValue      string   `json:"rawValue"`
	Title         []Node   `json:"title"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children"`
}

func (n *Headline) Type() NodeType { return n.Kind }
func (n *Headline) Begin() int     { return n.ContentsBegin }
func (n *Headline) End() int       { return n.ContentsEnd }

// Section is a run of elements attached to a headline (or the document
// root) that ends at the next headline or buffer end.
type Section struct {
	Kind          NodeType `json:"type"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children"`
}

func (n *Section) Type() NodeType { return n.Kind }
func (n *Section) Begin() int     { return n.ContentsBegin }
func (n *Section) End() int       { return n.ContentsEnd }

// Paragraph is a leaf element whose contents range is parsed as objects.
type Paragraph struct {
	Kind          NodeType `json:"type"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children"`
}

func (n *Paragraph) Type() NodeType { return n.Kind }
func (n *Paragraph) Begin() int     { return n.ContentsBegin }
func (n *Paragraph) End() int       { return n.ContentsEnd }

// PlainList carries the indent column of its first item's bullet and the
// full flat structure vector (shared with every Item beneath it).
type PlainList struct {
	Kind          NodeType         `json:"type"`
	Indent        int              `json:"indent"`
	Structure     []ItemDescriptor `json:"structure"`
	ContentsBegin int              `json:"contentsBegin"`
	ContentsEnd   int              `json:"contentsEnd"`
	Children      []Node           `json:"children"`
}

func (n *PlainList) Type() NodeType { return n.Kind }
func (n *PlainList) Begin() int     { return n.ContentsBegin }
func (n *PlainList) End() int       { return n.ContentsEnd }

// Item is one entry of a PlainList. ContentsBegin/ContentsEnd span the
// item's own content, after the bullet and any checkbox and tag; the start
// of the item line (including indent) and the item's end live in the
// matching ItemDescriptor, reachable via Structure.
type Item struct {
	Kind          NodeType         `json:"type"`
	Indent        int              `json:"indent"`
	Bullet        string           `json:"bullet"`
	Checkbox      *Checkbox        `json:"checkbox,omitempty"`
	Tag           string           `json:"tag,omitempty"`
	Structure     []ItemDescriptor `json:"structure"`
	ContentsBegin int              `json:"contentsBegin"`
	ContentsEnd   int              `json:"contentsEnd"`
	Children      []Node           `json:"children"`
}

func (n *Item) Type() NodeType { return n.Kind }
func (n *Item) Begin() int     { return n.ContentsBegin }
func (n *Item) End() int       { return n.ContentsEnd }

// Link is either a bracket link ([[target]] or [[target][description]]) or
// a plain scheme:path link. Children is non-nil only for the bracket form
// with a description, and holds the description parsed under the `link`
// restriction (forbidding nested links).
type Link struct {
	Kind          NodeType `json:"type"`
	LinkType      string   `json:"linkType"`
	RawLink       string   `json:"rawLink"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children,omitempty"`
}

func (n *Link) Type() NodeType { return n.Kind }
func (n *Link) Begin() int     { return n.ContentsBegin }
func (n *Link) End() int       { return n.ContentsEnd }

// Text is a literal span of input bytes with no further structure.
type Text struct {
	Kind          NodeType `json:"type"`
	Value         string   `json:"value"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
}

func (n *Text) Type() NodeType { return n.Kind }
func (n *Text) Begin() int     { return n.ContentsBegin }
func (n *Text) End() int       { return n.ContentsEnd }

// Keyword is a #+KEY: value line. Value is stored verbatim; affiliated
// keyword value parsing is out of scope.
type Keyword struct {
	Kind          NodeType `json:"type"`
	Key           string   `json:"key"`
	Value         string   `json:"value"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
}

func (n *Keyword) Type() NodeType { return n.Kind }
func (n *Keyword) Begin() int     { return n.ContentsBegin }
func (n *Keyword) End() int       { return n.ContentsEnd }

// Comment is a `# ...` line.
type Comment struct {
	Kind          NodeType `json:"type"`
	Value         string   `json:"value"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
}

func (n *Comment) Type() NodeType { return n.Kind }
func (n *Comment) Begin() int     { return n.ContentsBegin }
func (n *Comment) End() int       { return n.ContentsEnd }

// Drawer is a `:NAME: ... :END:` greater element. For a PROPERTIES drawer,
// Properties holds the parsed key/value pairs and Children is empty;
// otherwise Children holds the elements parsed from the drawer body.
type Drawer struct {
	Kind          NodeType          `json:"type"`
	Name          string            `json:"name"`
	Properties    map[string]string `json:"properties,omitempty"`
	ContentsBegin int               `json:"contentsBegin"`
	ContentsEnd   int               `json:"contentsEnd"`
	Children      []Node            `json:"children,omitempty"`
}

func (n *Drawer) Type() NodeType { return n.Kind }
func (n *Drawer) Begin() int     { return n.ContentsBegin }
func (n *Drawer) End() int       { return n.ContentsEnd }

// Planning is a SCHEDULED:/DEADLINE:/CLOSED: line directly under a headline.
type Planning struct {
	Kind          NodeType   `json:"type"`
	Keyword       string     `json:"keyword"`
	Timestamp     *Timestamp `json:"timestamp,omitempty"`
	ContentsBegin int        `json:"contentsBegin"`
	ContentsEnd   int        `json:"contentsEnd"`
}

func (n *Planning) Type() NodeType { return n.Kind }
func (n *Planning) Begin() int     { return n.ContentsBegin }
func (n *Planning) End() int       { return n.ContentsEnd }

// Table is a run of TableRow elements.
type Table struct {
	Kind          NodeType `json:"type"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
	Children      []Node   `json:"children"`
}

func (n *Table) Type() NodeType { return n.Kind }
func (n *Table) Begin() int     { return n.ContentsBegin }
func (n *Table) End() int       { return n.ContentsEnd }

// TableRow is one `| a | b |` row, or a `|---+---|` separator.
type TableRow struct {
	Kind          NodeType `json:"type"`
	Cells         []string `json:"cells,omitempty"`
	IsSeparator   bool     `json:"isSeparator"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
}

func (n *TableRow) Type() NodeType { return n.Kind }
func (n *TableRow) Begin() int     { return n.ContentsBegin }
func (n *TableRow) End() int       { return n.ContentsEnd }

// Timestamp is an active <...> or inactive [...] org timestamp object.
type Timestamp struct {
	Kind          NodeType `json:"type"`
	Active        bool     `json:"active"`
	Date          string   `json:"date"`
	Time          string   `json:"time,omitempty"`
	Repeat        string   `json:"repeat,omitempty"`
	Warning       string   `json:"warning,omitempty"`
	ContentsBegin int      `json:"contentsBegin"`
	ContentsEnd   int      `json:"contentsEnd"`
}

func (n *Timestamp) Type() NodeType { return n.Kind }
func (n *Timestamp) Begin() int     { return n.ContentsBegin }
func (n *Timestamp) End() int       { return n.ContentsEnd }

// Emphasis is a recursive inline formatting object. Code and Verbatim
// markers are not nestable: their literal content lives in Value and
// Children is left empty.
type Emphasis struct {
	Kind          NodeType       `json:"type"`
	Marker        EmphasisMarker `json:"marker"`
	Value         string         `json:"value,omitempty"`
	ContentsBegin int            `json:"contentsBegin"`
	ContentsEnd   int            `json:"contentsEnd"`
	Children      []Node         `json:"children,omitempty"`
}

func (n *Emphasis) Type() NodeType { return n.Kind }
func (n *Emphasis) Begin() int     { return n.ContentsBegin }
func (n *Emphasis) End() int       { return n.ContentsEnd }

// NonNestableEmphasis reports whether marker's content is stored verbatim
// rather than recursively parsed (code and verbatim spans).
func NonNestableEmphasis(m EmphasisMarker) bool {
	return m == EmphasisCode || m == EmphasisVerbatim
}

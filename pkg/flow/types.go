package flow

// =============================================================================
// Node Types
// =============================================================================

// NodeType classifies a node by the Flow element it was built from.
// The set is closed; every switch over NodeType in this module lists all values.
type NodeType string

const (
	TypeStart          NodeType = "start"
	TypeScreen         NodeType = "screen"
	TypeDecision       NodeType = "decision"
	TypeAssignment     NodeType = "assignment"
	TypeLoop           NodeType = "loop"
	TypeRecordCreate   NodeType = "recordCreate"
	TypeRecordUpdate   NodeType = "recordUpdate"
	TypeRecordLookup   NodeType = "recordLookup"
	TypeRecordDelete   NodeType = "recordDelete"
	TypeAction         NodeType = "action"
	TypeApexAction     NodeType = "apexAction"
	TypeEmailAction    NodeType = "emailAction"
	TypeApprovalAction NodeType = "approvalAction"
	TypeQuickAction    NodeType = "quickAction"
	TypeSubflow        NodeType = "subflow"
	TypeWait           NodeType = "wait"
	TypeCustomError    NodeType = "customError"
	TypeEnd            NodeType = "end"

	// TypeOrphan marks a node the layout could not reach from Start.
	// It only ever appears in layout annotations, never on a built graph.
	TypeOrphan NodeType = "orphan"
)

// Node dimensions in pixels.
const (
	DefaultNodeWidth   = 240.0
	DefaultNodeHeight  = 72.0
	StartNodeHeight    = 64.0
	TriggerStartHeight = 120.0
	DecisionNodeHeight = 80.0
	EndNodeWidth       = 120.0
	EndNodeHeight      = 44.0
)

// Valid reports whether t is a member of the enumeration.
func (t NodeType) Valid() bool {
	switch t {
	case TypeStart, TypeScreen, TypeDecision, TypeAssignment, TypeLoop,
		TypeRecordCreate, TypeRecordUpdate, TypeRecordLookup, TypeRecordDelete,
		TypeAction, TypeApexAction, TypeEmailAction, TypeApprovalAction, TypeQuickAction,
		TypeSubflow, TypeWait, TypeCustomError, TypeEnd, TypeOrphan:
		return true
	default:
		return false
	}
}

// IsBranching reports whether nodes of this type may fan out into several
// forward branches. Start is branching only when it has scheduled paths,
// which depends on the graph, so it returns false here.
func (t NodeType) IsBranching() bool {
	switch t {
	case TypeDecision, TypeWait, TypeLoop:
		return true
	case TypeStart, TypeScreen, TypeAssignment,
		TypeRecordCreate, TypeRecordUpdate, TypeRecordLookup, TypeRecordDelete,
		TypeAction, TypeApexAction, TypeEmailAction, TypeApprovalAction, TypeQuickAction,
		TypeSubflow, TypeCustomError, TypeEnd, TypeOrphan:
		return false
	default:
		return false
	}
}

// IsAction reports whether t is the generic action or one of its variants.
func (t NodeType) IsAction() bool {
	switch t {
	case TypeAction, TypeApexAction, TypeEmailAction, TypeApprovalAction, TypeQuickAction:
		return true
	default:
		return false
	}
}

// IsRecordOperation reports whether t is one of the four record element kinds.
func (t NodeType) IsRecordOperation() bool {
	switch t {
	case TypeRecordCreate, TypeRecordUpdate, TypeRecordLookup, TypeRecordDelete:
		return true
	default:
		return false
	}
}

// Size returns the fixed width and height for nodes of this type.
// detailed selects the taller Start variant that carries trigger details.
func (t NodeType) Size(detailed bool) (w, h float64) {
	switch t {
	case TypeStart:
		if detailed {
			return DefaultNodeWidth, TriggerStartHeight
		}
		return DefaultNodeWidth, StartNodeHeight
	case TypeDecision, TypeWait, TypeLoop:
		return DefaultNodeWidth, DecisionNodeHeight
	case TypeEnd:
		return EndNodeWidth, EndNodeHeight
	case TypeScreen, TypeAssignment,
		TypeRecordCreate, TypeRecordUpdate, TypeRecordLookup, TypeRecordDelete,
		TypeAction, TypeApexAction, TypeEmailAction, TypeApprovalAction, TypeQuickAction,
		TypeSubflow, TypeCustomError, TypeOrphan:
		return DefaultNodeWidth, DefaultNodeHeight
	default:
		return DefaultNodeWidth, DefaultNodeHeight
	}
}

// =============================================================================
// Edge Types
// =============================================================================

// EdgeType classifies a connector.
type EdgeType string

const (
	EdgeNormal   EdgeType = "normal"
	EdgeFault    EdgeType = "fault"
	EdgeLoopNext EdgeType = "loop-next"
	EdgeLoopEnd  EdgeType = "loop-end"
	EdgeFaultEnd EdgeType = "fault-end"
	EdgeGoTo     EdgeType = "goto"
)

// IsFault reports whether the edge is a fault connector.
func (t EdgeType) IsFault() bool { return t == EdgeFault }

// IsFaultLane reports whether the edge belongs to a fault path, either as the
// fault connector itself or as the synthetic End edge that closes the path.
func (t EdgeType) IsFaultLane() bool { return t == EdgeFault || t == EdgeFaultEnd }

// IsForward reports whether placement walks this edge.
func (t EdgeType) IsForward() bool {
	switch t {
	case EdgeNormal, EdgeLoopNext, EdgeLoopEnd, EdgeFaultEnd:
		return true
	case EdgeFault, EdgeGoTo:
		return false
	default:
		return false
	}
}

// Edge kinds. A kind names the connector slot an edge came from and, together
// with an index for the indexed kinds, forms the edge ID discriminator.
const (
	KindNext     = "next"
	KindFault    = "fault"
	KindRule     = "rule"
	KindDefault  = "default"
	KindLoopNext = "loop-next"
	KindLoopEnd  = "loop-end"
	KindEvent    = "event"
	KindPath     = "path"
	KindEnd      = "end"
)

// Well-known IDs and labels.
const (
	StartID = "START"

	LabelFault          = "Fault"
	LabelDefaultOutcome = "Default Outcome"
	LabelDefaultPath    = "Default Path"
	LabelForEach        = "For Each"
	LabelAfterLast      = "After Last"
	LabelRunImmediately = "Run Immediately"
	LabelRunAsync       = "Run Asynchronously"
	LabelEnd            = "End"
)

// =============================================================================
// Graph Records
// =============================================================================

// Node is a single Flow element, or a synthetic Start/End, in the graph.
//
// The relational fields (Next through IsTerminal) are derived by
// transform.Normalize and are empty on a freshly built graph. X and Y are
// center coordinates and are only meaningful when Positioned is true.
type Node struct {
	ID     string         `json:"id" bson:"id" yaml:"id"`
	Type   NodeType       `json:"type" bson:"type" yaml:"type"`
	Label  string         `json:"label" bson:"label" yaml:"label"`
	X      float64        `json:"x" bson:"x" yaml:"x"`
	Y      float64        `json:"y" bson:"y" yaml:"y"`
	Width  float64        `json:"width" bson:"width" yaml:"width"`
	Height float64        `json:"height" bson:"height" yaml:"height"`
	Data   map[string]any `json:"data,omitempty" bson:"data,omitempty" yaml:"data,omitempty"`

	Positioned bool `json:"positioned,omitempty" bson:"positioned,omitempty" yaml:"positioned,omitempty"`

	Next         string   `json:"next,omitempty" bson:"next,omitempty" yaml:"next,omitempty"`
	Children     []string `json:"children,omitempty" bson:"children,omitempty" yaml:"children,omitempty"`
	Parent       string   `json:"parent,omitempty" bson:"parent,omitempty" yaml:"parent,omitempty"`
	ChildIndex   int      `json:"childIndex,omitempty" bson:"childIndex,omitempty" yaml:"childIndex,omitempty"`
	Prev         string   `json:"prev,omitempty" bson:"prev,omitempty" yaml:"prev,omitempty"`
	Fault        string   `json:"fault,omitempty" bson:"fault,omitempty" yaml:"fault,omitempty"`
	IncomingGoTo []string `json:"incomingGoTo,omitempty" bson:"incomingGoTo,omitempty" yaml:"incomingGoTo,omitempty"`
	IsTerminal   bool     `json:"isTerminal,omitempty" bson:"isTerminal,omitempty" yaml:"isTerminal,omitempty"`

	IsFaultPath  bool          `json:"isFaultPath,omitempty" bson:"isFaultPath,omitempty" yaml:"isFaultPath,omitempty"`
	ImplicitEnds []ImplicitEnd `json:"implicitEnds,omitempty" bson:"implicitEnds,omitempty" yaml:"implicitEnds,omitempty"`
}

// ImplicitEnd is an outcome that carries a label but no connector.
// The terminal synthesizer closes each one with its own End node.
type ImplicitEnd struct {
	Discriminator string `json:"discriminator" bson:"discriminator" yaml:"discriminator"`
	Label         string `json:"label" bson:"label" yaml:"label"`
	Default       bool   `json:"default,omitempty" bson:"default,omitempty" yaml:"default,omitempty"`
}

// HasImplicitDefaultEnd reports whether the node has a default outcome label
// without a default connector.
func (n *Node) HasImplicitDefaultEnd() bool {
	for _, ie := range n.ImplicitEnds {
		if ie.Default {
			return true
		}
	}
	return false
}

// DefaultLabel returns the label of the implicit default outcome, if any.
func (n *Node) DefaultLabel() string {
	for _, ie := range n.ImplicitEnds {
		if ie.Default {
			return ie.Label
		}
	}
	return ""
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// IsBranching reports whether the node fans out into ordered children.
// Unlike NodeType.IsBranching it reflects the normalized relations, so a
// Start with scheduled paths counts and a Decision with no branches does not.
func (n *Node) IsBranching() bool { return len(n.Children) > 0 }

// Edge is a directed connector between two nodes.
type Edge struct {
	ID     string   `json:"id" bson:"id" yaml:"id"`
	Source string   `json:"source" bson:"source" yaml:"source"`
	Target string   `json:"target" bson:"target" yaml:"target"`
	Type   EdgeType `json:"type" bson:"type" yaml:"type"`
	Label  string   `json:"label,omitempty" bson:"label,omitempty" yaml:"label,omitempty"`
	IsGoTo bool     `json:"isGoTo,omitempty" bson:"isGoTo,omitempty" yaml:"isGoTo,omitempty"`
	Kind   string   `json:"kind,omitempty" bson:"kind,omitempty" yaml:"kind,omitempty"`
}

// EdgeID builds the deterministic edge identifier {source}-{target}-{discriminator}.
func EdgeID(source, target, discriminator string) string {
	return source + "-" + target + "-" + discriminator
}

// Metadata holds flow-level descriptors. It is passed through untouched.
type Metadata struct {
	Label       string   `json:"label,omitempty" bson:"label,omitempty" yaml:"label,omitempty"`
	APIName     string   `json:"apiName,omitempty" bson:"apiName,omitempty" yaml:"apiName,omitempty"`
	APIVersion  string   `json:"apiVersion,omitempty" bson:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	ProcessType string   `json:"processType,omitempty" bson:"processType,omitempty" yaml:"processType,omitempty"`
	Status      string   `json:"status,omitempty" bson:"status,omitempty" yaml:"status,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Trigger     *Trigger `json:"trigger,omitempty" bson:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Trigger describes how the flow starts.
type Trigger struct {
	Type              string `json:"type,omitempty" bson:"type,omitempty" yaml:"type,omitempty"`
	Object            string `json:"object,omitempty" bson:"object,omitempty" yaml:"object,omitempty"`
	RecordTriggerType string `json:"recordTriggerType,omitempty" bson:"recordTriggerType,omitempty" yaml:"recordTriggerType,omitempty"`
	Frequency         string `json:"frequency,omitempty" bson:"frequency,omitempty" yaml:"frequency,omitempty"`
	StartDate         string `json:"startDate,omitempty" bson:"startDate,omitempty" yaml:"startDate,omitempty"`
	StartTime         string `json:"startTime,omitempty" bson:"startTime,omitempty" yaml:"startTime,omitempty"`
	PathCount         int    `json:"pathCount,omitempty" bson:"pathCount,omitempty" yaml:"pathCount,omitempty"`
}

// IsZero reports whether no trigger detail is set.
func (t *Trigger) IsZero() bool {
	return t == nil || (t.Type == "" && t.Object == "" && t.RecordTriggerType == "" &&
		t.Frequency == "" && t.StartDate == "" && t.StartTime == "" && t.PathCount == 0)
}

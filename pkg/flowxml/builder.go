package flowxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
)

const rootElement = "Flow"

// =============================================================================
// Public API
// =============================================================================

// Build parses a Flow document into a graph.
//
// It returns a *ParseError when data is not well-formed XML and a
// *ValidationError when the root is not a Flow or no start element exists.
// Everything else is tolerated: unknown tags are skipped, connectors without a
// target are dropped, and problems such as duplicate element names are
// reported in Graph.Warnings.
func Build(data []byte) (*flow.Graph, error) {
	return BuildReader(bytes.NewReader(data))
}

// BuildReader parses a Flow document from r. See [Build].
func BuildReader(r io.Reader) (*flow.Graph, error) {
	dec := xml.NewDecoder(r)

	root, err := findRoot(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != rootElement {
		return nil, &ValidationError{Element: root.Name.Local, Reason: "root element must be " + rootElement}
	}

	b := newBuilder()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseError(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := b.decode(dec, t); err != nil {
				return nil, parseError(err)
			}
		case xml.EndElement:
			return b.finish()
		}
	}
}

// BuildFile reads and parses a Flow file. When the document does not name
// itself, Metadata.APIName is taken from the file name.
func BuildFile(path string) (*flow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := Build(data)
	if err != nil {
		return nil, err
	}
	if g.Metadata.APIName == "" {
		g.Metadata.APIName = APINameFromFile(path)
	}
	return g, nil
}

// APINameFromFile derives a flow API name from a metadata file name,
// e.g. "Opportunity_Router.flow-meta.xml" -> "Opportunity_Router".
func APINameFromFile(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{".flow-meta.xml", ".flow", ".xml"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

func findRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, &ParseError{msg: "no root element"}
		}
		if err != nil {
			return xml.StartElement{}, parseError(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func parseError(err error) *ParseError {
	if err == io.EOF {
		return &ParseError{Err: io.ErrUnexpectedEOF}
	}
	if se, ok := err.(*xml.SyntaxError); ok {
		return &ParseError{Line: se.Line, Err: err}
	}
	return &ParseError{Err: err}
}

// =============================================================================
// Builder
// =============================================================================

type builder struct {
	meta     flow.Metadata
	start    *startElement
	startRef string

	nodes    []flow.Node
	edges    []flow.Edge
	seen     map[string]bool
	edgeIDs  map[string]bool
	warnings []string
}

func newBuilder() *builder {
	return &builder{
		seen:    map[string]bool{flow.StartID: true},
		edgeIDs: make(map[string]bool),
	}
}

// decode consumes one top-level child of the Flow element.
func (b *builder) decode(dec *xml.Decoder, se xml.StartElement) error {
	switch se.Name.Local {
	case "start":
		var s startElement
		if err := dec.DecodeElement(&s, &se); err != nil {
			return err
		}
		if b.start == nil {
			b.start = &s
		} else {
			b.warn("multiple start elements, using the first")
		}
		return nil
	case "startElementReference":
		return dec.DecodeElement(&b.startRef, &se)
	case "label":
		return dec.DecodeElement(&b.meta.Label, &se)
	case "apiVersion":
		return dec.DecodeElement(&b.meta.APIVersion, &se)
	case "processType":
		return dec.DecodeElement(&b.meta.ProcessType, &se)
	case "status":
		return dec.DecodeElement(&b.meta.Status, &se)
	case "description":
		return dec.DecodeElement(&b.meta.Description, &se)
	case "fullName":
		return dec.DecodeElement(&b.meta.APIName, &se)

	case "decisions":
		var d decisionElement
		if err := dec.DecodeElement(&d, &se); err != nil {
			return err
		}
		b.addDecision(&d)
	case "loops":
		var l loopElement
		if err := dec.DecodeElement(&l, &se); err != nil {
			return err
		}
		b.addLoop(&l)
	case "waits":
		var w waitElement
		if err := dec.DecodeElement(&w, &se); err != nil {
			return err
		}
		b.addWait(&w)
	case "screens":
		var s screenElement
		if err := dec.DecodeElement(&s, &se); err != nil {
			return err
		}
		b.addLinear(&s.element, flow.TypeScreen, map[string]any{
			"fieldCount": len(s.Fields),
			"allowBack":  s.AllowBack,
			"allowPause": s.AllowPause,
		})
	case "assignments":
		var a assignmentElement
		if err := dec.DecodeElement(&a, &se); err != nil {
			return err
		}
		b.addLinear(&a.element, flow.TypeAssignment, map[string]any{
			"itemCount": len(a.AssignmentItems),
		})
	case "recordCreates", "recordUpdates", "recordLookups", "recordDeletes":
		var r recordElement
		if err := dec.DecodeElement(&r, &se); err != nil {
			return err
		}
		data := map[string]any{"filterCount": len(r.Filters)}
		setString(data, "object", r.Object)
		setString(data, "inputReference", r.InputReference)
		if se.Name.Local == "recordLookups" {
			data["getFirstRecordOnly"] = r.GetFirstRecord
			data["storeOutputAutomatically"] = r.StoreOutputAuto
		}
		b.addLinear(&r.element, recordTypes[se.Name.Local], data)
	case "actionCalls":
		var a actionElement
		if err := dec.DecodeElement(&a, &se); err != nil {
			return err
		}
		data := map[string]any{}
		setString(data, "actionName", a.ActionName)
		setString(data, "actionType", a.ActionType)
		b.addLinear(&a.element, ActionType(a.ActionType), data)
	case "subflows":
		var s subflowElement
		if err := dec.DecodeElement(&s, &se); err != nil {
			return err
		}
		data := map[string]any{}
		setString(data, "flowName", s.FlowName)
		b.addLinear(&s.element, flow.TypeSubflow, data)
	case "customErrors":
		var c customErrorElement
		if err := dec.DecodeElement(&c, &se); err != nil {
			return err
		}
		data := map[string]any{"messageCount": len(c.Messages)}
		if len(c.Messages) > 0 {
			setString(data, "message", c.Messages[0].ErrorMessage)
		}
		b.addLinear(&c.element, flow.TypeCustomError, data)

	default:
		return dec.Skip()
	}
	return nil
}

var recordTypes = map[string]flow.NodeType{
	"recordCreates": flow.TypeRecordCreate,
	"recordUpdates": flow.TypeRecordUpdate,
	"recordLookups": flow.TypeRecordLookup,
	"recordDeletes": flow.TypeRecordDelete,
}

// ActionType maps an actionCalls actionType to the node type used to draw it.
func ActionType(actionType string) flow.NodeType {
	switch actionType {
	case "apex":
		return flow.TypeApexAction
	case "emailSimple", "emailAlert":
		return flow.TypeEmailAction
	case "submit":
		return flow.TypeApprovalAction
	case "quickAction":
		return flow.TypeQuickAction
	default:
		return flow.TypeAction
	}
}

// finish assembles the graph once the Flow element is closed.
func (b *builder) finish() (*flow.Graph, error) {
	start, startEdges, err := b.startNode()
	if err != nil {
		return nil, err
	}

	g := &flow.Graph{
		Nodes:    append([]flow.Node{start}, b.nodes...),
		Edges:    append(startEdges, b.edges...),
		Metadata: b.meta,
	}

	known := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		known[n.ID] = true
	}
	for _, e := range g.Edges {
		if !known[e.Target] {
			b.warn(fmt.Sprintf("%s: connector targets unknown element %q", e.Source, e.Target))
		}
	}
	g.Warnings = b.warnings
	return g, nil
}

func (b *builder) startNode() (flow.Node, []flow.Edge, error) {
	if b.start == nil && strings.TrimSpace(b.startRef) == "" {
		return flow.Node{}, nil, &ValidationError{Element: "start", Reason: "flow has no start element"}
	}

	n := flow.Node{ID: flow.StartID, Type: flow.TypeStart, Label: "Start", Data: map[string]any{}}
	var edges []flow.Edge

	if b.start == nil {
		edges = b.appendEdge(edges, flow.StartID, &connector{TargetReference: b.startRef},
			flow.KindNext, flow.KindNext, flow.EdgeNormal, "")
		n.Width, n.Height = flow.TypeStart.Size(false)
		return n, edges, nil
	}

	s := b.start
	trig := &flow.Trigger{
		Type:              s.TriggerType,
		Object:            s.Object,
		RecordTriggerType: s.RecordTriggerType,
		PathCount:         len(s.ScheduledPaths),
	}
	if s.Schedule != nil {
		trig.Frequency = s.Schedule.Frequency
		trig.StartDate = s.Schedule.StartDate
		trig.StartTime = s.Schedule.StartTime
	}
	if !trig.IsZero() {
		b.meta.Trigger = trig
		setString(n.Data, "triggerType", trig.Type)
		setString(n.Data, "object", trig.Object)
		setString(n.Data, "recordTriggerType", trig.RecordTriggerType)
		setString(n.Data, "frequency", trig.Frequency)
		setString(n.Data, "filterLogic", s.FilterLogic)
		if len(s.Filters) > 0 {
			n.Data["filterCount"] = len(s.Filters)
		}
	}
	n.Label = startLabel(s.TriggerType)
	n.Width, n.Height = flow.TypeStart.Size(!trig.IsZero())

	mainLabel := ""
	if len(s.ScheduledPaths) > 0 {
		mainLabel = flow.LabelRunImmediately
	}
	edges = b.appendEdge(edges, flow.StartID, s.Connector, flow.KindNext, flow.KindNext, flow.EdgeNormal, mainLabel)

	for i, p := range s.ScheduledPaths {
		label := p.Label
		if label == "" {
			label = p.Name
		}
		if p.PathType == "AsyncAfterCommit" {
			label = flow.LabelRunAsync
		}
		disc := fmt.Sprintf("%s-%d", flow.KindPath, i)
		edges = b.appendEdge(edges, flow.StartID, p.Connector, flow.KindPath, disc, flow.EdgeNormal, label)
	}
	return n, edges, nil
}

func startLabel(triggerType string) string {
	switch triggerType {
	case "RecordAfterSave", "RecordBeforeSave", "RecordBeforeDelete":
		return "Record-Triggered Flow"
	case "Scheduled":
		return "Schedule-Triggered Flow"
	case "PlatformEvent":
		return "Platform Event-Triggered Flow"
	default:
		return "Start"
	}
}

// =============================================================================
// Element Translation
// =============================================================================

// addNode registers an element node. It returns false when the element is
// skipped because it has no name or its name is already taken.
func (b *builder) addNode(el *element, typ flow.NodeType, data map[string]any, implicit []flow.ImplicitEnd) bool {
	name := strings.TrimSpace(el.Name)
	if name == "" {
		b.warn(fmt.Sprintf("%s element without a name skipped", typ))
		return false
	}
	if b.seen[name] {
		b.warn(fmt.Sprintf("duplicate element name %q, keeping the first", name))
		return false
	}
	b.seen[name] = true
	if err := errors.ValidateElementName(name); err != nil {
		b.warn(errors.UserMessage(err))
	}

	setString(data, "description", el.Description)
	w, h := typ.Size(false)
	b.nodes = append(b.nodes, flow.Node{
		ID:           name,
		Type:         typ,
		Label:        strings.TrimSpace(el.Label),
		Width:        w,
		Height:       h,
		Data:         data,
		ImplicitEnds: implicit,
	})
	return true
}

func (b *builder) addLinear(el *element, typ flow.NodeType, data map[string]any) {
	if !b.addNode(el, typ, data, nil) {
		return
	}
	b.edges = b.appendEdge(b.edges, el.Name, el.Connector, flow.KindNext, flow.KindNext, flow.EdgeNormal, "")
	b.addFault(el)
}

func (b *builder) addFault(el *element) {
	b.edges = b.appendEdge(b.edges, el.Name, el.FaultConnector, flow.KindFault, flow.KindFault, flow.EdgeFault, flow.LabelFault)
}

func (b *builder) addDecision(d *decisionElement) {
	var implicit []flow.ImplicitEnd
	for i, r := range d.Rules {
		if !hasTarget(r.Connector) {
			implicit = append(implicit, flow.ImplicitEnd{
				Discriminator: fmt.Sprintf("%s-%d", flow.KindRule, i),
				Label:         firstNonEmpty(r.Label, r.Name),
			})
		}
	}
	if !hasTarget(d.DefaultConnector) && d.DefaultConnectorLabel != "" {
		implicit = append(implicit, flow.ImplicitEnd{
			Discriminator: flow.KindDefault,
			Label:         d.DefaultConnectorLabel,
			Default:       true,
		})
	}

	data := map[string]any{"ruleCount": len(d.Rules)}
	setString(data, "defaultLabel", d.DefaultConnectorLabel)
	if !b.addNode(&d.element, flow.TypeDecision, data, implicit) {
		return
	}

	for i, r := range d.Rules {
		disc := fmt.Sprintf("%s-%d", flow.KindRule, i)
		b.edges = b.appendEdge(b.edges, d.Name, r.Connector, flow.KindRule, disc, flow.EdgeNormal, firstNonEmpty(r.Label, r.Name))
	}
	b.edges = b.appendEdge(b.edges, d.Name, d.DefaultConnector, flow.KindDefault, flow.KindDefault, flow.EdgeNormal,
		firstNonEmpty(d.DefaultConnectorLabel, flow.LabelDefaultOutcome))
	b.edges = b.appendEdge(b.edges, d.Name, d.Connector, flow.KindNext, flow.KindNext, flow.EdgeNormal, "")
	b.addFault(&d.element)
}

func (b *builder) addLoop(l *loopElement) {
	data := map[string]any{}
	setString(data, "collectionReference", l.CollectionReference)
	setString(data, "iterationOrder", l.IterationOrder)
	if !b.addNode(&l.element, flow.TypeLoop, data, nil) {
		return
	}
	b.edges = b.appendEdge(b.edges, l.Name, l.NextValueConnector, flow.KindLoopNext, flow.KindLoopNext, flow.EdgeLoopNext, flow.LabelForEach)
	b.edges = b.appendEdge(b.edges, l.Name, l.NoMoreValuesConnector, flow.KindLoopEnd, flow.KindLoopEnd, flow.EdgeLoopEnd, flow.LabelAfterLast)
	b.addFault(&l.element)
}

func (b *builder) addWait(w *waitElement) {
	var implicit []flow.ImplicitEnd
	if !hasTarget(w.DefaultConnector) && w.DefaultConnectorLabel != "" {
		implicit = append(implicit, flow.ImplicitEnd{
			Discriminator: flow.KindDefault,
			Label:         w.DefaultConnectorLabel,
			Default:       true,
		})
	}

	data := map[string]any{"eventCount": len(w.WaitEvents)}
	setString(data, "defaultLabel", w.DefaultConnectorLabel)
	if !b.addNode(&w.element, flow.TypeWait, data, implicit) {
		return
	}

	for i, ev := range w.WaitEvents {
		disc := fmt.Sprintf("%s-%d", flow.KindEvent, i)
		b.edges = b.appendEdge(b.edges, w.Name, ev.Connector, flow.KindEvent, disc, flow.EdgeNormal, firstNonEmpty(ev.Label, ev.Name))
	}
	b.edges = b.appendEdge(b.edges, w.Name, w.DefaultConnector, flow.KindDefault, flow.KindDefault, flow.EdgeNormal,
		firstNonEmpty(w.DefaultConnectorLabel, flow.LabelDefaultPath))
	b.addFault(&w.element)
}

// appendEdge translates a connector into an edge. Connectors without a target
// are dropped. A GoTo marker retypes the edge unless it is a fault edge.
func (b *builder) appendEdge(edges []flow.Edge, source string, c *connector, kind, disc string, typ flow.EdgeType, label string) []flow.Edge {
	if !hasTarget(c) {
		return edges
	}
	source = strings.TrimSpace(source)
	target := strings.TrimSpace(c.TargetReference)
	if target == flow.StartID {
		b.warn(fmt.Sprintf("%s: connector to the start element dropped", source))
		return edges
	}
	if c.IsGoTo && typ != flow.EdgeFault {
		typ = flow.EdgeGoTo
	}
	id := flow.EdgeID(source, target, disc)
	if b.edgeIDs[id] {
		b.warn(fmt.Sprintf("duplicate connector %q dropped", id))
		return edges
	}
	b.edgeIDs[id] = true
	return append(edges, flow.Edge{
		ID:     id,
		Source: source,
		Target: target,
		Type:   typ,
		Label:  label,
		IsGoTo: c.IsGoTo,
		Kind:   kind,
	})
}

func (b *builder) warn(msg string) {
	b.warnings = append(b.warnings, msg)
}

func hasTarget(c *connector) bool {
	return c != nil && strings.TrimSpace(c.TargetReference) != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func setString(m map[string]any, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		m[key] = val
	}
}

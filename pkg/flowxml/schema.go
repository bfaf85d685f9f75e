package flowxml

// Decoding targets for the Flow metadata elements the builder understands.
// Only the fields that shape the graph or feed node data are declared;
// encoding/xml ignores everything else.

type connector struct {
	TargetReference string `xml:"targetReference"`
	IsGoTo          bool   `xml:"isGoTo"`
}

// element holds the fields shared by every named Flow element.
type element struct {
	Name           string     `xml:"name"`
	Label          string     `xml:"label"`
	Description    string     `xml:"description"`
	Connector      *connector `xml:"connector"`
	FaultConnector *connector `xml:"faultConnector"`
}

type startElement struct {
	Connector         *connector      `xml:"connector"`
	Object            string          `xml:"object"`
	TriggerType       string          `xml:"triggerType"`
	RecordTriggerType string          `xml:"recordTriggerType"`
	FilterLogic       string          `xml:"filterLogic"`
	Filters           []struct{}      `xml:"filters"`
	Schedule          *schedule       `xml:"schedule"`
	ScheduledPaths    []scheduledPath `xml:"scheduledPaths"`
}

type schedule struct {
	Frequency string `xml:"frequency"`
	StartDate string `xml:"startDate"`
	StartTime string `xml:"startTime"`
}

type scheduledPath struct {
	Name         string     `xml:"name"`
	Label        string     `xml:"label"`
	PathType     string     `xml:"pathType"`
	OffsetNumber string     `xml:"offsetNumber"`
	OffsetUnit   string     `xml:"offsetUnit"`
	TimeSource   string     `xml:"timeSource"`
	Connector    *connector `xml:"connector"`
}

type decisionElement struct {
	element
	DefaultConnector      *connector `xml:"defaultConnector"`
	DefaultConnectorLabel string     `xml:"defaultConnectorLabel"`
	Rules                 []rule     `xml:"rules"`
}

type rule struct {
	Name           string     `xml:"name"`
	Label          string     `xml:"label"`
	ConditionLogic string     `xml:"conditionLogic"`
	Conditions     []struct{} `xml:"conditions"`
	Connector      *connector `xml:"connector"`
}

type loopElement struct {
	element
	CollectionReference   string     `xml:"collectionReference"`
	IterationOrder        string     `xml:"iterationOrder"`
	NextValueConnector    *connector `xml:"nextValueConnector"`
	NoMoreValuesConnector *connector `xml:"noMoreValuesConnector"`
}

type waitElement struct {
	element
	DefaultConnector      *connector  `xml:"defaultConnector"`
	DefaultConnectorLabel string      `xml:"defaultConnectorLabel"`
	WaitEvents            []waitEvent `xml:"waitEvents"`
}

type waitEvent struct {
	Name      string     `xml:"name"`
	Label     string     `xml:"label"`
	EventType string     `xml:"eventType"`
	Connector *connector `xml:"connector"`
}

type recordElement struct {
	element
	Object          string     `xml:"object"`
	InputReference  string     `xml:"inputReference"`
	GetFirstRecord  bool       `xml:"getFirstRecordOnly"`
	Filters         []struct{} `xml:"filters"`
	StoreOutputAuto bool       `xml:"storeOutputAutomatically"`
}

type actionElement struct {
	element
	ActionName string `xml:"actionName"`
	ActionType string `xml:"actionType"`
}

type subflowElement struct {
	element
	FlowName string `xml:"flowName"`
}

type screenElement struct {
	element
	Fields     []struct{} `xml:"fields"`
	AllowBack  bool       `xml:"allowBack"`
	AllowPause bool       `xml:"allowPause"`
}

type assignmentElement struct {
	element
	AssignmentItems []struct{} `xml:"assignmentItems"`
}

type customErrorElement struct {
	element
	Messages []struct {
		ErrorMessage string `xml:"errorMessage"`
	} `xml:"customErrorMessages"`
}

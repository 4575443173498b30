package engine

import "time"

// Engine represents a deployed agent engine resource.
type Engine struct {
	Name        string                 `json:"name,omitempty"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description,omitempty"`
	Labels      map[string]string      `json:"labels,omitempty"`
	Spec        map[string]interface{} `json:"spec,omitempty"`
	CreateTime  time.Time              `json:"createTime,omitempty"`
	UpdateTime  time.Time              `json:"updateTime,omitempty"`
}

// ID returns the trailing resource ID of the engine name, or the full name
// when it has no slash-separated components.
func (e *Engine) ID() string {
	name := e.Name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

// Operation is a long-running operation returned by mutating calls.
type Operation struct {
	Name     string                 `json:"name"`
	Done     bool                   `json:"done,omitempty"`
	Error    *OperationError        `json:"error,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// OperationError carries the failure status of a finished operation.
type OperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// listEnginesResponse is the wire shape of the engine list call.
type listEnginesResponse struct {
	Engines       []Engine `json:"reasoningEngines,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// QueryRequest is the body of an engine :query call.
type QueryRequest struct {
	Input map[string]interface{} `json:"input"`
}

// QueryResponse is the result of an engine :query call.
type QueryResponse struct {
	Output interface{} `json:"output"`
}

// apiError is the wire shape of an API error body.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

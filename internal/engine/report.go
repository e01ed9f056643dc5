package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphlint/internal/ir"
)

// Report is the outcome of one plan execution.
type Report struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Conforms     bool          `json:"conforms" yaml:"conforms"`
	GeneratedAt  time.Time     `json:"generated_at" yaml:"generated_at"`
	SchemaSource string        `json:"schema_source" yaml:"schema_source"`
	Backend      string        `json:"backend" yaml:"backend"`
	Target       string        `json:"target,omitempty" yaml:"target,omitempty"`
	Fingerprint  string        `json:"plan_fingerprint" yaml:"plan_fingerprint"`
	Summary      Summary       `json:"summary" yaml:"summary"`
	Results      []CheckResult `json:"results" yaml:"results"`
}

// Summary counts check outcomes. Violations, Warnings and Info count
// failed checks by severity; a query failure counts as a violation
// whatever the check's severity.
type Summary struct {
	Violations    int `json:"violations" yaml:"violations"`
	Warnings      int `json:"warnings" yaml:"warnings"`
	Info          int `json:"info" yaml:"info"`
	ChecksPassed  int `json:"checks_passed" yaml:"checks_passed"`
	ChecksVacuous int `json:"checks_vacuous" yaml:"checks_vacuous"`
	ChecksTotal   int `json:"checks_total" yaml:"checks_total"`
}

// CheckResult is the outcome of one check. Passed and Vacuous are never
// both true.
type CheckResult struct {
	CheckID        string          `json:"check_id" yaml:"check_id"`
	CheckType      ir.Kind         `json:"check_type" yaml:"check_type"`
	Severity       ir.Severity     `json:"severity" yaml:"severity"`
	Message        string          `json:"message" yaml:"message"`
	Shape          string          `json:"shape,omitempty" yaml:"shape,omitempty"`
	TargetLabel    string          `json:"target_label" yaml:"target_label"`
	Passed         bool            `json:"passed" yaml:"passed"`
	Vacuous        bool            `json:"vacuous" yaml:"vacuous"`
	ViolationCount int             `json:"violation_count" yaml:"violation_count"`
	ViolatingNodes []ViolatingNode `json:"violating_nodes" yaml:"violating_nodes"`
	Query          string          `json:"query" yaml:"query"`

	// Error holds the query failure, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the check ran (or tried to) and did not pass.
func (r CheckResult) Failed() bool { return !r.Passed && !r.Vacuous }

// ViolatingNode is one row returned by a check query. Extra holds every
// column besides the element id, labels and check id.
type ViolatingNode struct {
	NodeID string
	Labels []string
	Extra  map[string]any
}

// fields flattens the node into one document, extras alongside the
// fixed keys.
func (n ViolatingNode) fields() map[string]any {
	out := make(map[string]any, len(n.Extra)+2)
	for k, v := range n.Extra {
		out[k] = v
	}
	out["node_id"] = n.NodeID
	out["labels"] = n.Labels
	return out
}

// MarshalJSON implements json.Marshaler.
func (n ViolatingNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.fields())
}

// UnmarshalJSON implements json.Unmarshaler. Numbers in Extra decode
// as float64.
func (n *ViolatingNode) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	id, _ := fields["node_id"].(string)
	n.NodeID = id
	n.Labels = stringSlice(fields["labels"])
	n.Extra = make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "node_id" && k != "labels" {
			n.Extra[k] = v
		}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n ViolatingNode) MarshalYAML() (any, error) {
	return n.fields(), nil
}

// ExtraKeys returns the extra column names, sorted.
func (n ViolatingNode) ExtraKeys() []string {
	keys := make([]string, 0, len(n.Extra))
	for k := range n.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML renders the report as YAML.
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Result returns the result for a check id.
func (r *Report) Result(checkID string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.CheckID == checkID {
			return res, true
		}
	}
	return CheckResult{}, false
}

// rowColumns are never copied into ViolatingNode.Extra.
var rowColumns = map[string]bool{
	"node_id":       true,
	"rel_id":        true,
	"labels":        true,
	"check_id":      true,
	"source_labels": true,
	"target_labels": true,
}

// violatingNode converts a query row. Relationship-level rows carry
// rel_id and source_labels instead of node_id and labels.
func violatingNode(row map[string]any) ViolatingNode {
	id, ok := row["node_id"]
	if !ok {
		id, ok = row["rel_id"]
	}
	if !ok {
		id = "unknown"
	}
	rawLabels, ok := row["labels"]
	if !ok {
		rawLabels = row["source_labels"]
	}
	extra := make(map[string]any)
	for k, v := range row {
		if !rowColumns[k] {
			extra[k] = reportValue(v)
		}
	}
	return ViolatingNode{
		NodeID: fmt.Sprint(id),
		Labels: stringSlice(rawLabels),
		Extra:  extra,
	}
}

// Temporal layouts for driver values in report extras.
const (
	dateLayout          = "2006-01-02"
	localTimeLayout     = "15:04:05.999999999"
	localDateTimeLayout = dateLayout + "T" + localTimeLayout
)

// reportValue turns driver values into plain strings, numbers, lists and
// maps, so extras encode the same way in JSON, YAML and the history
// store.
func reportValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case dbtype.Date:
		return val.Time().Format(dateLayout)
	case dbtype.LocalDateTime:
		return val.Time().Format(localDateTimeLayout)
	case dbtype.LocalTime:
		return val.Time().Format(localTimeLayout)
	case dbtype.Time:
		return val.Time().Format(localTimeLayout + "Z07:00")
	case dbtype.Duration:
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = reportValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = reportValue(item)
		}
		return out
	case fmt.Stringer:
		return val.String()
	}
	return v
}

func stringSlice(v any) []string {
	switch ls := v.(type) {
	case []string:
		return append([]string{}, ls...)
	case []any:
		out := make([]string, len(ls))
		for i, l := range ls {
			out[i] = fmt.Sprint(l)
		}
		return out
	}
	return []string{}
}

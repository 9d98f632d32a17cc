package family

import "strings"

// Family is one of the fixed semantic classifications assigned to edge types.
// Classification is a pure lookup; nothing here is inferred probabilistically.
type Family string

const (
	Spatial        Family = "spatial"
	Temporal       Family = "temporal"
	Causal         Family = "causal"
	Hierarchical   Family = "hierarchical"
	Analogical     Family = "analogical"
	Constraint     Family = "constraint"
	Value          Family = "value"
	Communicative  Family = "communicative"
	Social         Family = "social"
	Modal          Family = "modal"
	Evidential     Family = "evidential"
	Counterfactual Family = "counterfactual"
	Operational    Family = "operational"
	Measurement    Family = "measurement"
	Aesthetic      Family = "aesthetic"
)

// All lists every family in declaration order.
var All = []Family{
	Spatial, Temporal, Causal, Hierarchical, Analogical,
	Constraint, Value, Communicative, Social, Modal,
	Evidential, Counterfactual, Operational, Measurement, Aesthetic,
}

var relationFamilies = map[string]Family{
	"proximity":               Spatial,
	"containment":             Spatial,
	"overlap":                 Spatial,
	"path":                    Spatial,
	"barrier":                 Spatial,
	"adjacency:base":          Spatial,
	"adjacency:expanded":      Spatial,
	"adjacency:cached":        Spatial,
	"adjacency:cached-bridge": Spatial,
	"before":                  Temporal,
	"after":                   Temporal,
	"during":                  Temporal,
	"recurrence":              Temporal,
	"cause":                   Causal,
	"effect":                  Causal,
	"enablement":              Causal,
	"inhibition":              Causal,
	"⇄":                       Causal,
	"⇝":                       Causal,
	"↼":                       Causal,
	"seed-expansion":          Operational,
	"seed-expansion:lateral":  Operational,
	"modifier:emphasis":       Communicative,
	"modifier:query":          Communicative,
	"modifier:left":           Communicative,
	"modifier:right":          Communicative,
	"modifier:close":          Communicative,
	"modifier:other":          Communicative,
	"self:symbol":             Aesthetic,
}

// Classify maps an edge type string to its semantic family. Matching is
// case-insensitive: exact table entries first, then the adjacency:* and
// modifier:* prefix rules. Unmatched types fall through to Aesthetic, an
// intentional catch-all rather than an error path.
func Classify(edgeType string) Family {
	normalized := strings.ToLower(strings.TrimSpace(edgeType))
	if normalized == "" {
		return Aesthetic
	}
	if f, ok := relationFamilies[normalized]; ok {
		return f
	}
	if strings.HasPrefix(normalized, "adjacency:") {
		return Spatial
	}
	if strings.HasPrefix(normalized, "modifier:") {
		return Communicative
	}
	if normalized == "∼" {
		return Spatial
	}
	return Aesthetic
}

package domain

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"
)

// RuleDocument is the fixed-schema XML document the management endpoint
// stores for an auto-deployment rule. Deployed is optional in older
// documents; [SetDeployedFlag] inserts it when missing.
type RuleDocument struct {
	XMLName       xml.Name        `xml:"AutoDeploymentRule"`
	SchemaVersion string          `xml:"SchemaVersion,attr"`
	Name          string          `xml:"Name"`
	Description   string          `xml:"Description,omitempty"`
	Deployed      *bool           `xml:"Deployed"`
	Criteria      []RuleCriterion `xml:"UpdateCriteria>Criterion"`
	Phases        []RulePhase     `xml:"DeploymentPhases>Phase"`
}

// RuleCriterion is one update-selection predicate of a rule document.
type RuleCriterion struct {
	Property string `xml:"Property,attr"`
	Value    string `xml:",chardata"`
}

// RulePhase is the document form of one deployment phase.
type RulePhase struct {
	TargetGroup             string `xml:"TargetGroup"`
	DeadlineMinutes         int    `xml:"DeadlineMinutes"`
	Notify                  string `xml:"Notify"`
	SuppressRestart         bool   `xml:"SuppressRestart"`
	IgnoreMaintenanceWindow bool   `xml:"IgnoreMaintenanceWindow"`
}

// NewRuleDocument builds the initial rule document for a rule created from
// spec. Phases are not included; they are attached one at a time after
// creation.
func NewRuleDocument(name string, spec RuleSpec) RuleDocument {
	doc := RuleDocument{
		SchemaVersion: "1.0",
		Name:          name,
		Description:   spec.Description,
	}
	// Stable order so the same spec always produces the same document.
	props := make([]string, 0, len(spec.Criteria))
	for prop := range spec.Criteria {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		doc.Criteria = append(doc.Criteria, RuleCriterion{Property: prop, Value: spec.Criteria[prop]})
	}
	return doc
}

// DocumentPhase converts a catalog phase to its document form.
func DocumentPhase(p Phase) RulePhase {
	return RulePhase{
		TargetGroup:             p.TargetGroup,
		DeadlineMinutes:         int(p.Deadline / time.Minute),
		Notify:                  string(p.Notify),
		SuppressRestart:         p.SuppressRestart,
		IgnoreMaintenanceWindow: p.IgnoreMaintenanceWindow,
	}
}

// ParseRuleDocument decodes a rule document, rejecting anything whose root
// element is not AutoDeploymentRule.
func ParseRuleDocument(raw []byte) (RuleDocument, error) {
	var doc RuleDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return RuleDocument{}, fmt.Errorf("%w: parse rule document: %v", ErrInvalidArgument, err)
	}
	return doc, nil
}

// MarshalRuleDocument serializes a rule document back to XML.
func MarshalRuleDocument(doc RuleDocument) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rule document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// SetDeployedFlag sets the Deployed element of a rule document, inserting
// it when absent. Every other field round-trips unchanged.
func SetDeployedFlag(raw []byte, deployed bool) ([]byte, error) {
	doc, err := ParseRuleDocument(raw)
	if err != nil {
		return nil, err
	}
	doc.Deployed = &deployed
	return MarshalRuleDocument(doc)
}

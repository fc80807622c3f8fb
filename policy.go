package caas

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Effect is the allow/deny outcome a PolicyStatement expresses (§3).
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// PolicyStatement is one ordered clause of a Policy (§3).
type PolicyStatement struct {
	Sid        string
	Effect     Effect
	Actions    []string
	Resources  []string
	Principals []string
	Conditions map[string]interface{}
}

// Policy is the caller-supplied, pre-canonicalization description of a
// compliance policy (§3). Two compiles of the same PolicyID+Version
// need not be structurally equal to each other.
type Policy struct {
	PolicyID   string
	Version    string
	Name       string
	Statements []PolicyStatement
	Metadata   map[string]interface{}
}

// Validate enforces the minimum shape the compiler requires: a policy
// id, a version, the statements field being present (possibly empty),
// and every statement having a sid and an Allow or Deny effect.
func (p Policy) Validate() error {
	if p.PolicyID == "" {
		return wrapInvalid("policy_id is required")
	}
	if p.Version == "" {
		return wrapInvalid("version is required")
	}
	if p.Statements == nil {
		return wrapInvalid("statements is required (may be empty)")
	}
	for _, st := range p.Statements {
		if st.Sid == "" {
			return wrapInvalid("statement sid is required")
		}
		if st.Effect != EffectAllow && st.Effect != EffectDeny {
			return wrapInvalid("statement effect must be Allow or Deny")
		}
	}
	return nil
}

// CanonicalPolicy is the immutable output of compiling a Policy (§3):
// a stable byte form plus the SHA-256 commitment hash over it.
type CanonicalPolicy struct {
	PolicyID       string
	Version        string
	CanonicalForm  []byte
	CommitmentHash string
	CreatedAt      time.Time
	Source         Policy
}

// canonicalPolicyDoc and canonicalStatementDoc fix the field order and
// names the commitment hash is computed over (§4.1, rules 1-2). Field
// order in a Go struct is preserved by encoding/json regardless of
// declaration order elsewhere, which is what makes this the
// single source of truth for the wire layout.
type canonicalPolicyDoc struct {
	PolicyId   string                  `json:"PolicyId"`
	Version    string                  `json:"Version"`
	Name       string                  `json:"Name"`
	Statements []canonicalStatementDoc `json:"Statements"`
}

type canonicalStatementDoc struct {
	Sid        string                 `json:"Sid"`
	Effect     string                 `json:"Effect"`
	Actions    []string               `json:"Actions"`
	Resources  []string               `json:"Resources"`
	Principals []string               `json:"Principals,omitempty"`
	Conditions map[string]interface{} `json:"Conditions,omitempty"`
}

// canonicalize builds the deterministic byte form of p per §4.1 rules
// 1-8: fixed key order and names, sorted Actions/Resources/Principals,
// statements sorted by Sid, conditions left to encoding/json's own
// alphabetic map-key ordering (rule 6), compact (no insignificant
// whitespace) UTF-8 encoding with HTML-escaping disabled so the
// commitment hash never shifts under characters like '<' or '&' in
// resource patterns.
func canonicalize(p Policy) ([]byte, error) {
	doc := canonicalPolicyDoc{
		PolicyId:   p.PolicyID,
		Version:    p.Version,
		Name:       p.Name,
		Statements: make([]canonicalStatementDoc, len(p.Statements)),
	}

	for i, st := range p.Statements {
		doc.Statements[i] = canonicalStatementDoc{
			Sid:        st.Sid,
			Effect:     string(st.Effect),
			Actions:    sortedStrings(st.Actions),
			Resources:  sortedStrings(st.Resources),
			Principals: sortedStrings(st.Principals),
			Conditions: st.Conditions,
		}
	}

	sort.Slice(doc.Statements, func(i, j int) bool {
		return doc.Statements[i].Sid < doc.Statements[j].Sid
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	// json.Encoder.Encode always appends a trailing newline; strip it
	// so the canonical form has no insignificant whitespace at all.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// PolicyCompiler normalizes policies into CanonicalPolicy form and
// retains every compiled version (§4.1).
type PolicyCompiler struct {
	mu           sync.RWMutex
	latest       map[string]*CanonicalPolicy            // policy_id -> most recent compile
	byVersion    map[string]map[string]*CanonicalPolicy // policy_id -> version -> compile
	versions     map[string][]string                    // policy_id -> version strings, in compile order
	byCommitment map[string]*CanonicalPolicy             // commitment_hash -> compile
}

// NewPolicyCompiler creates an empty compiler.
func NewPolicyCompiler() *PolicyCompiler {
	return &PolicyCompiler{
		latest:       make(map[string]*CanonicalPolicy),
		byVersion:    make(map[string]map[string]*CanonicalPolicy),
		versions:     make(map[string][]string),
		byCommitment: make(map[string]*CanonicalPolicy),
	}
}

// Compile canonicalizes policy, computes its commitment hash, and
// stores it. §4.1/§9: the stored "latest" entry for policy_id is
// overwritten on every compile regardless of version, but the version
// history and a (policy_id, version) keyed lookup are both retained so
// callers can choose either resolution.
func (pc *PolicyCompiler) Compile(policy Policy) (*CanonicalPolicy, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	form, err := canonicalize(policy)
	if err != nil {
		return nil, err
	}

	cp := &CanonicalPolicy{
		PolicyID:       policy.PolicyID,
		Version:        policy.Version,
		CanonicalForm:  form,
		CommitmentHash: sha256Hex(form),
		CreatedAt:      time.Now().UTC(),
		Source:         policy,
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.latest[policy.PolicyID] = cp
	if pc.byVersion[policy.PolicyID] == nil {
		pc.byVersion[policy.PolicyID] = make(map[string]*CanonicalPolicy)
	}
	pc.byVersion[policy.PolicyID][policy.Version] = cp
	pc.versions[policy.PolicyID] = append(pc.versions[policy.PolicyID], policy.Version)
	pc.byCommitment[cp.CommitmentHash] = cp

	return cp, nil
}

// Get returns the most recently compiled CanonicalPolicy for policy_id.
func (pc *PolicyCompiler) Get(policyID string) (*CanonicalPolicy, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	cp, ok := pc.latest[policyID]
	if !ok {
		return nil, wrapNotFound("policy " + policyID)
	}
	return cp, nil
}

// GetByCommitment returns the CanonicalPolicy whose commitment hash is
// hash, independent of policy_id. This is how a record's
// PolicyCommitment (a SHA-256 digest, not a policy_id) is dereferenced
// back to the policy it names (§4.5).
func (pc *PolicyCompiler) GetByCommitment(hash string) (*CanonicalPolicy, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	cp, ok := pc.byCommitment[hash]
	if !ok {
		return nil, wrapNotFound("policy with commitment " + hash)
	}
	return cp, nil
}

// GetVersion returns the CanonicalPolicy compiled for the exact
// (policy_id, version) pair, independent of which compile was latest.
func (pc *PolicyCompiler) GetVersion(policyID, version string) (*CanonicalPolicy, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	versions, ok := pc.byVersion[policyID]
	if !ok {
		return nil, wrapNotFound("policy " + policyID)
	}
	cp, ok := versions[version]
	if !ok {
		return nil, wrapNotFound("policy " + policyID + " version " + version)
	}
	return cp, nil
}

// Versions returns the version strings compiled for policy_id, in
// compile order (duplicates permitted, per §4.1).
func (pc *PolicyCompiler) Versions(policyID string) []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	vs := pc.versions[policyID]
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// VerifyCommitment reports whether a policy is stored for policyID and
// its commitment hash equals claimedHash.
func (pc *PolicyCompiler) VerifyCommitment(policyID, claimedHash string) bool {
	cp, err := pc.Get(policyID)
	if err != nil {
		return false
	}
	return cp.CommitmentHash == claimedHash
}

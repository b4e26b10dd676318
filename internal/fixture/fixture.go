// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package fixture loads YAML scenario files into an in-memory fact store.
// A fixture describes users, communities, memberships and resources; loading
// it yields a memstore.Store ready to back a decision engine.
package fixture

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/internal/memstore"
)

// ErrCodeInvalid marks fixtures that fail schema or semantic validation.
const ErrCodeInvalid = "FIXTURE_INVALID"

// Document is the on-disk fixture format.
type Document struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"description=Human readable scenario name"`
	// Now pins the clock used for resource ages. Defaults to load time.
	Now                  *time.Time        `json:"now,omitempty" yaml:"now,omitempty"`
	CommentVotingEnabled bool              `json:"commentVotingEnabled,omitempty" yaml:"commentVotingEnabled,omitempty"`
	Users                []types.User      `json:"users,omitempty" yaml:"users,omitempty"`
	Communities          []types.Community `json:"communities" yaml:"communities" jsonschema:"minItems=1"`
	Memberships          []Membership      `json:"memberships,omitempty" yaml:"memberships,omitempty"`
	Resources            []Resource        `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Membership grants a user a role in a community. Memberships in team
// communities also make the user a member of that team.
type Membership struct {
	UserID      string     `json:"user" yaml:"user"`
	CommunityID string     `json:"community" yaml:"community"`
	Role        types.Role `json:"role" yaml:"role"`
}

// Resource is a publication, comment or poll. A missing id is generated.
// AgeMinutes, when set, wins over CreatedAt.
type Resource struct {
	Kind          types.TargetKind `json:"kind" yaml:"kind"`
	ID            string           `json:"id,omitempty" yaml:"id,omitempty"`
	CommunityID   string           `json:"communityId" yaml:"communityId"`
	AuthorID      string           `json:"authorId" yaml:"authorId"`
	BeneficiaryID string           `json:"beneficiaryId,omitempty" yaml:"beneficiaryId,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	AgeMinutes    *int             `json:"ageMinutes,omitempty" yaml:"ageMinutes,omitempty" jsonschema:"minimum=0"`
	VoteCount     int              `json:"voteCount,omitempty" yaml:"voteCount,omitempty" jsonschema:"minimum=0"`
	CommentCount  int              `json:"commentCount,omitempty" yaml:"commentCount,omitempty" jsonschema:"minimum=0"`
	PostType      string           `json:"postType,omitempty" yaml:"postType,omitempty"`
	IsProject     bool             `json:"isProject,omitempty" yaml:"isProject,omitempty"`
}

// Fixture is a loaded scenario.
type Fixture struct {
	Name                 string
	Now                  time.Time
	CommentVotingEnabled bool
	Store                *memstore.Store
	// ResourceIDs lists resource ids in file order, including generated ones.
	ResourceIDs []string
}

// FactsOptions returns builder options matching the fixture's clock and flags.
func (f *Fixture) FactsOptions() facts.Options {
	now := f.Now
	return facts.Options{
		CommentVotingEnabled: f.CommentVotingEnabled,
		Now:                  func() time.Time { return now },
	}
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, oops.Code(ErrCodeInvalid).With("path", path).Wrapf(err, "read fixture")
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return f, nil
}

// Parse validates data against the fixture schema, decodes it and checks
// references between its sections before loading it into a new store.
func Parse(data []byte) (*Fixture, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc.Load(time.Now), nil
}

// Decode validates data against the schema and decodes it strictly.
func Decode(data []byte) (*Document, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, oops.Code(ErrCodeInvalid).Wrapf(err, "decode fixture")
	}
	return &doc, nil
}

// Validate checks the semantic rules the schema cannot express: unique ids,
// resolvable references and known enum values.
func (d *Document) Validate() error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	users := make(map[string]bool, len(d.Users))
	for i, u := range d.Users {
		id := norm(u.ID)
		switch {
		case id == "":
			report("users[%d]: id is empty", i)
		case users[id]:
			report("users[%d]: duplicate id %q", i, u.ID)
		}
		users[id] = true
		if u.GlobalRole != types.RoleNone && u.GlobalRole != types.RoleSuperadmin {
			report("users[%d]: global role must be superadmin or absent, got %q", i, u.GlobalRole)
		}
	}

	communities := make(map[string]bool, len(d.Communities))
	for i, c := range d.Communities {
		id := norm(c.ID)
		switch {
		case id == "":
			report("communities[%d]: id is empty", i)
		case communities[id]:
			report("communities[%d]: duplicate id %q", i, c.ID)
		}
		communities[id] = true
		if _, err := types.ParseCommunityTypeTag(string(c.TypeTag)); err != nil {
			report("communities[%d]: unknown type %q", i, c.TypeTag)
		}
		seen := make(map[types.RuleKey]bool, len(c.PermissionRules))
		for j, r := range c.PermissionRules {
			if !r.Role.Valid() {
				report("communities[%d].permissionRules[%d]: unknown role %q", i, j, r.Role)
			}
			if !r.Action.Valid() {
				report("communities[%d].permissionRules[%d]: unknown action %q", i, j, r.Action)
			}
			if seen[r.Key()] {
				report("communities[%d].permissionRules[%d]: duplicate rule %s", i, j, r.Key())
			}
			seen[r.Key()] = true
		}
		for j, r := range c.Merit.QuotaRecipients {
			if !r.Valid() {
				report("communities[%d].meritSettings.quotaRecipients[%d]: unknown role %q", i, j, r)
			}
		}
	}
	for i, c := range d.Communities {
		if c.Conversion == nil {
			continue
		}
		if !communities[norm(c.Conversion.TargetCommunityID)] {
			report("communities[%d].meritConversion: unknown target community %q", i, c.Conversion.TargetCommunityID)
		}
		if c.Conversion.Ratio < 0 {
			report("communities[%d].meritConversion: negative ratio %v", i, c.Conversion.Ratio)
		}
	}

	for i, m := range d.Memberships {
		if !users[norm(m.UserID)] {
			report("memberships[%d]: unknown user %q", i, m.UserID)
		}
		if !communities[norm(m.CommunityID)] {
			report("memberships[%d]: unknown community %q", i, m.CommunityID)
		}
		if m.Role != types.RoleLead && m.Role != types.RoleParticipant {
			report("memberships[%d]: role must be lead or participant, got %q", i, m.Role)
		}
	}

	resources := make(map[string]bool, len(d.Resources))
	for i, r := range d.Resources {
		if _, err := types.ParseTargetKind(string(r.Kind)); err != nil || r.Kind == types.TargetCommunity {
			report("resources[%d]: kind must be publication, comment or poll, got %q", i, r.Kind)
		}
		if r.ID != "" {
			key := string(r.Kind) + ":" + norm(r.ID)
			if resources[key] {
				report("resources[%d]: duplicate id %s", i, key)
			}
			resources[key] = true
		}
		if !communities[norm(r.CommunityID)] {
			report("resources[%d]: unknown community %q", i, r.CommunityID)
		}
		if !users[norm(r.AuthorID)] {
			report("resources[%d]: unknown author %q", i, r.AuthorID)
		}
		if r.BeneficiaryID != "" && !users[norm(r.BeneficiaryID)] {
			report("resources[%d]: unknown beneficiary %q", i, r.BeneficiaryID)
		}
	}

	if len(problems) > 0 {
		return oops.Code(ErrCodeInvalid).
			With("problems", problems).
			Errorf("fixture has %d problem(s): %s", len(problems), strings.Join(problems, "; "))
	}
	return nil
}

// Load builds a store from a validated document. now supplies the clock when
// the document does not pin one.
func (d *Document) Load(now func() time.Time) *Fixture {
	f := &Fixture{
		Name:                 d.Name,
		CommentVotingEnabled: d.CommentVotingEnabled,
		Store:                memstore.New(),
	}
	if d.Now != nil {
		f.Now = d.Now.UTC()
	} else {
		f.Now = now().UTC()
	}

	for _, u := range d.Users {
		f.Store.PutUser(u)
	}
	for i := range d.Communities {
		f.Store.PutCommunity(&d.Communities[i])
	}
	for _, m := range d.Memberships {
		f.Store.SetRole(m.UserID, m.CommunityID, m.Role)
	}
	for _, r := range d.Resources {
		id := r.ID
		if id == "" {
			id = memstore.NewID()
		}
		created := f.Now
		switch {
		case r.AgeMinutes != nil:
			created = f.Now.Add(-time.Duration(*r.AgeMinutes) * time.Minute)
		case r.CreatedAt != nil:
			created = *r.CreatedAt
		}
		f.Store.PutResource(r.Kind, types.ResourceFacts{
			ID:            id,
			CommunityID:   r.CommunityID,
			AuthorID:      r.AuthorID,
			BeneficiaryID: r.BeneficiaryID,
			CreatedAt:     created.Unix(),
			VoteCount:     r.VoteCount,
			CommentCount:  r.CommentCount,
			PostType:      r.PostType,
			IsProject:     r.IsProject,
		})
		f.ResourceIDs = append(f.ResourceIDs, id)
	}
	return f
}

func norm(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package fixture

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/meriter/meriter/internal/decision/types"
)

// SchemaID is the $id of the fixture schema.
const SchemaID = "https://meriter.dev/schemas/fixture.schema.json"

var compiledSchema = sync.OnceValues(compileSchema)

// GenerateSchema returns the JSON Schema for fixture documents.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapDomainType,
	}
	schema := r.Reflect(&Document{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Meriter Decision Fixture"
	schema.Description = "Users, communities, memberships and resources for decision engine scenarios"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("fixture").Wrapf(err, "marshal schema")
	}
	return data, nil
}

// mapDomainType gives enum-like domain types closed schemas. Toggle is a
// tri-state in Go but a nullable boolean on disk.
func mapDomainType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeFor[types.Toggle]():
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "boolean"}, {Type: "null"}},
		}
	case reflect.TypeFor[types.Role]():
		return enum(types.RoleSuperadmin, types.RoleLead, types.RoleParticipant)
	case reflect.TypeFor[types.Action]():
		actions := types.AllActions()
		vals := make([]any, len(actions))
		for i, a := range actions {
			vals[i] = string(a)
		}
		return &jsonschema.Schema{Type: "string", Enum: vals}
	case reflect.TypeFor[types.CommunityTypeTag]():
		return enum(types.TypeCustom, types.TypeMarathonOfGood, types.TypeFutureVision, types.TypeSupport, types.TypeTeam)
	case reflect.TypeFor[types.TargetKind]():
		return enum(types.TargetPublication, types.TargetComment, types.TargetPoll)
	case reflect.TypeFor[types.CurrencySource]():
		return enum(types.CurrencySourceQuotaOnly, types.CurrencySourceWalletOnly, types.CurrencySourceQuotaAndWallet)
	case reflect.TypeFor[types.VotingRestriction]():
		return enum(types.VotingRestrictionAny, types.VotingRestrictionNotOwn, types.VotingRestrictionNotSameTeam)
	}
	return nil
}

func enum[T ~string](vals ...T) *jsonschema.Schema {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Enum: out}
}

func compileSchema() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.In("fixture").Wrapf(err, "parse generated schema")
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("fixture.schema.json", doc); err != nil {
		return nil, oops.In("fixture").Wrapf(err, "add schema resource")
	}
	sch, err := c.Compile("fixture.schema.json")
	if err != nil {
		return nil, oops.In("fixture").Wrapf(err, "compile schema")
	}
	return sch, nil
}

// ValidateSchema checks YAML data against the fixture schema.
func ValidateSchema(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return oops.Code(ErrCodeInvalid).Errorf("fixture is empty")
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return oops.Code(ErrCodeInvalid).Wrapf(err, "invalid YAML")
	}
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(toJSON(raw)); err != nil {
		return oops.Code(ErrCodeInvalid).Wrapf(err, "schema validation failed")
	}
	return nil
}

// toJSON converts YAML-decoded values into the shapes a JSON decoder would
// produce. Timestamps become RFC 3339 strings.
func toJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSON(item)
		}
		return out
	case string, int, int64, uint64, float64, bool, nil:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return val
		}
		return out
	}
}

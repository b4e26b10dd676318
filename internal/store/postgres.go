// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package store reads decision facts from PostgreSQL. FactStore implements
// every collaborator interface the context builder consumes; the schema it
// reads lives in the embedded migrations.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
)

// Error codes raised by the store.
const (
	ErrCodeQueryFailed   = "STORE_QUERY_FAILED"
	ErrCodeDecodeFailed  = "STORE_DECODE_FAILED"
	ErrCodeConnectFailed = "STORE_CONNECT_FAILED"
)

// Querier is the subset of pgxpool.Pool the fact store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FactStore implements the decision collaborators over PostgreSQL.
type FactStore struct {
	db Querier
}

// NewFactStore creates a FactStore reading through db.
func NewFactStore(db Querier) *FactStore {
	return &FactStore{db: db}
}

// Sources returns the store wired as every collaborator.
func (s *FactStore) Sources() facts.Sources {
	return facts.Sources{
		Users:       s,
		Roles:       s,
		Communities: s,
		Teams:       s,
		Resources: map[types.TargetKind]facts.ResourceResolver{
			types.TargetPublication: s.Resolver(types.TargetPublication),
			types.TargetComment:     s.Resolver(types.TargetComment),
			types.TargetPoll:        s.Resolver(types.TargetPoll),
		},
	}
}

// GetUser loads a user.
func (s *FactStore) GetUser(ctx context.Context, id string) (types.User, error) {
	var (
		u    types.User
		role *string
	)
	err := s.db.QueryRow(ctx, `SELECT id, global_role FROM users WHERE id = $1`, id).Scan(&u.ID, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.User{}, types.NotFound("user", id)
	}
	if err != nil {
		return types.User{}, oops.Code(ErrCodeQueryFailed).With("operation", "get user").With("user_id", id).Wrap(err)
	}
	if role != nil {
		u.GlobalRole = types.Role(*role)
	}
	return u, nil
}

// GetUserRoleInCommunity loads a membership role.
func (s *FactStore) GetUserRoleInCommunity(ctx context.Context, userID, communityID string) (types.Role, error) {
	var raw string
	err := s.db.QueryRow(ctx,
		`SELECT role FROM community_memberships WHERE user_id = $1 AND community_id = $2`,
		userID, communityID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.RoleNone, types.NotFound("membership", userID+"@"+communityID)
	}
	if err != nil {
		return types.RoleNone, oops.Code(ErrCodeQueryFailed).
			With("operation", "get membership role").
			With("user_id", userID).
			With("community_id", communityID).
			Wrap(err)
	}
	role, err := types.ParseRole(raw)
	if err != nil {
		return types.RoleNone, oops.Code(ErrCodeDecodeFailed).With("community_id", communityID).Wrap(err)
	}
	return role, nil
}

const communityColumns = `id, name, type_tag, hidden, permission_rules, voting_settings, merit_settings, merit_conversion`

// GetCommunity loads a community with its stored overrides.
func (s *FactStore) GetCommunity(ctx context.Context, id string) (*types.Community, error) {
	row := s.db.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities WHERE id = $1`, id)
	c, err := scanCommunity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFound("community", id)
	}
	if err != nil {
		return nil, oops.With("operation", "get community").With("community_id", id).Wrap(err)
	}
	return c, nil
}

// FindByTypeTag returns the community with the smallest id carrying tag.
func (s *FactStore) FindByTypeTag(ctx context.Context, tag types.CommunityTypeTag) (*types.Community, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE type_tag = $1 ORDER BY id LIMIT 1`,
		string(tag.Normalize()))
	c, err := scanCommunity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFound("community", "type:"+string(tag))
	}
	if err != nil {
		return nil, oops.With("operation", "find community by type").With("type_tag", tag).Wrap(err)
	}
	return c, nil
}

func scanCommunity(row pgx.Row) (*types.Community, error) {
	var (
		c                          types.Community
		tag                        string
		rules, voting, merit, conv []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &tag, &c.Hidden, &rules, &voting, &merit, &conv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // sentinel checked by callers
		}
		return nil, oops.Code(ErrCodeQueryFailed).Wrap(err)
	}
	c.TypeTag = types.CommunityTypeTag(tag)

	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"permission_rules", rules, &c.PermissionRules},
		{"voting_settings", voting, &c.Voting},
		{"merit_settings", merit, &c.Merit},
		{"merit_conversion", conv, &c.Conversion},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, oops.Code(ErrCodeDecodeFailed).
				With("community_id", c.ID).
				With("column", col.name).
				Wrapf(err, "decode community column")
		}
	}
	return &c, nil
}

// TeamCommunities lists the team communities userID holds a role in.
func (s *FactStore) TeamCommunities(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.community_id
		   FROM community_memberships m
		   JOIN communities c ON c.id = m.community_id
		  WHERE m.user_id = $1 AND c.type_tag = 'team'
		  ORDER BY m.community_id`,
		userID)
	if err != nil {
		return nil, oops.Code(ErrCodeQueryFailed).With("operation", "list team communities").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, oops.Code(ErrCodeQueryFailed).With("operation", "scan team community").Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(ErrCodeQueryFailed).With("operation", "iterate team communities").Wrap(err)
	}
	return ids, nil
}

// resourceQueries select the same columns from every resource table.
var resourceQueries = map[types.TargetKind]string{
	types.TargetPublication: `SELECT id, community_id, author_id, beneficiary_id, created_at,
		vote_count, comment_count, post_type, is_project
		FROM publications WHERE id = $1`,
	types.TargetComment: `SELECT id, community_id, author_id, NULL::TEXT, created_at,
		vote_count, reply_count, '', FALSE
		FROM comments WHERE id = $1`,
	types.TargetPoll: `SELECT id, community_id, author_id, NULL::TEXT, created_at,
		cast_count, 0, '', FALSE
		FROM polls WHERE id = $1`,
}

// Resolver returns the resource resolver for kind. Kinds without a table
// resolve nothing.
func (s *FactStore) Resolver(kind types.TargetKind) facts.ResourceResolver {
	query, ok := resourceQueries[kind]
	return facts.ResourceResolverFunc(func(ctx context.Context, id string) (types.ResourceFacts, error) {
		if !ok {
			return types.ResourceFacts{}, types.NotFound(string(kind), id)
		}
		var (
			res         types.ResourceFacts
			beneficiary *string
			created     time.Time
		)
		err := s.db.QueryRow(ctx, query, id).Scan(
			&res.ID, &res.CommunityID, &res.AuthorID, &beneficiary, &created,
			&res.VoteCount, &res.CommentCount, &res.PostType, &res.IsProject,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ResourceFacts{}, types.NotFound(string(kind), id)
		}
		if err != nil {
			return types.ResourceFacts{}, oops.Code(ErrCodeQueryFailed).
				With("operation", "resolve resource").
				With("kind", kind).
				With("id", id).
				Wrap(err)
		}
		if beneficiary != nil {
			res.BeneficiaryID = *beneficiary
		}
		res.CreatedAt = created.Unix()
		return res, nil
	})
}

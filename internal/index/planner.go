// Package index declares the lookup paths each collection needs and derives
// unique keys and Postgres DDL from them.
package index

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexumi/nexumi-core/internal/domain"
)

// Order is the sort direction of an indexed field
type Order int

// Sort orders
const (
	Asc  Order = 1
	Desc Order = -1
)

// Kind is the value type of an indexed field, used to pick the SQL expression
type Kind string

// Field kinds
const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindTime   Kind = "time"
)

// Field is one component of an index
type Field struct {
	Path  string
	Order Order
	Kind  Kind
}

// IndexSpec declares one index on a collection.
// A sparse index only covers documents where every field is present.
type IndexSpec struct {
	Name   string
	Fields []Field
	Unique bool
	Sparse bool
}

func asc(path string, k Kind) Field  { return Field{Path: path, Order: Asc, Kind: k} }
func desc(path string, k Kind) Field { return Field{Path: path, Order: Desc, Kind: k} }

func unique(coll domain.Collection, name string, fields ...Field) IndexSpec {
	return IndexSpec{Name: indexName(coll, name, "key"), Fields: fields, Unique: true}
}

func lookup(coll domain.Collection, name string, fields ...Field) IndexSpec {
	return IndexSpec{Name: indexName(coll, name, "idx"), Fields: fields}
}

func indexName(coll domain.Collection, name, suffix string) string {
	return string(coll) + "_" + name + "_" + suffix
}

var plan = map[domain.Collection][]IndexSpec{
	domain.CollectionPlayers: {
		unique(domain.CollectionPlayers, "player_id", asc("player_id", KindString)),
		unique(domain.CollectionPlayers, "username", asc("username", KindString)),
		unique(domain.CollectionPlayers, "username_key", asc("username_key", KindString)),
		func() IndexSpec {
			s := unique(domain.CollectionPlayers, "email", asc("email", KindString))
			s.Sparse = true
			return s
		}(),
		lookup(domain.CollectionPlayers, "last_login", desc("last_login", KindTime)),
		lookup(domain.CollectionPlayers, "level", desc("level", KindNumber)),
		lookup(domain.CollectionPlayers, "guild_id", asc("guild_id", KindString)),
	},
	domain.CollectionWorlds: {
		unique(domain.CollectionWorlds, "world_id", asc("world_id", KindString)),
	},
	domain.CollectionMarketplace: {
		unique(domain.CollectionMarketplace, "listing_id", asc("listing_id", KindString)),
		lookup(domain.CollectionMarketplace, "status", asc("status", KindString)),
		lookup(domain.CollectionMarketplace, "category", asc("category", KindString)),
		lookup(domain.CollectionMarketplace, "seller_id", asc("seller_id", KindString)),
		lookup(domain.CollectionMarketplace, "created_at", desc("created_at", KindTime)),
		lookup(domain.CollectionMarketplace, "price", asc("price", KindNumber)),
		lookup(domain.CollectionMarketplace, "status_expires_at", asc("status", KindString), asc("expires_at", KindTime)),
	},
	domain.CollectionGuilds: {
		unique(domain.CollectionGuilds, "guild_id", asc("guild_id", KindString)),
		unique(domain.CollectionGuilds, "name", asc("name", KindString)),
		unique(domain.CollectionGuilds, "name_key", asc("name_key", KindString)),
		lookup(domain.CollectionGuilds, "leader_id", asc("leader_id", KindString)),
	},
	domain.CollectionAnalytics: {
		unique(domain.CollectionAnalytics, "event_id", asc("event_id", KindString)),
		lookup(domain.CollectionAnalytics, "timestamp", desc("timestamp", KindTime)),
		lookup(domain.CollectionAnalytics, "event_name", asc("event_name", KindString)),
		lookup(domain.CollectionAnalytics, "session_id", asc("session_id", KindString)),
	},
}

// RequiredIndexes returns the indexes a collection must carry.
// The returned slice is a copy.
func RequiredIndexes(coll domain.Collection) []IndexSpec {
	specs := plan[coll]
	out := make([]IndexSpec, len(specs))
	for i, s := range specs {
		s.Fields = append([]Field(nil), s.Fields...)
		out[i] = s
	}
	return out
}

// UniqueIndexes returns only the unique indexes of a collection
func UniqueIndexes(coll domain.Collection) []IndexSpec {
	var out []IndexSpec
	for _, s := range RequiredIndexes(coll) {
		if s.Unique {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds an index whose leading field is path
func Lookup(coll domain.Collection, path string) (IndexSpec, bool) {
	for _, s := range plan[coll] {
		if len(s.Fields) > 0 && s.Fields[0].Path == path {
			return s, true
		}
	}
	return IndexSpec{}, false
}

// UniqueKeys extracts the value of every unique index from a JSON document,
// keyed by index name. Sparse indexes whose field is absent or empty are
// left out, so they never collide.
func UniqueKeys(coll domain.Collection, body []byte) (map[string]string, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", coll, err)
	}

	keys := make(map[string]string)
	for _, s := range UniqueIndexes(coll) {
		parts := make([]string, 0, len(s.Fields))
		present := true
		for _, f := range s.Fields {
			v, ok := Extract(doc, f.Path)
			if !ok || v == nil || v == "" {
				present = false
				break
			}
			parts = append(parts, fmt.Sprint(v))
		}
		if !present {
			if s.Sparse {
				continue
			}
			return nil, fmt.Errorf("%w: %s missing unique field for %s", domain.ErrInvalidInput, coll, s.Name)
		}
		keys[s.Name] = strings.Join(parts, "\x00")
	}
	return keys, nil
}

// Extract follows a dotted path through decoded JSON
func Extract(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

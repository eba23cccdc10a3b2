// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package docstore

import (
	"fmt"
	"sort"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq       Op = "=="
	OpNe       Op = "!="
	OpLt       Op = "<"
	OpLte      Op = "<="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpIn       Op = "in"             // field value is one of Value ([]any)
	OpContains Op = "array-contains" // field is a list containing Value
)

// Filter restricts a query to documents whose Field satisfies Op Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects, orders and pages documents. The zero value returns every
// document in key order.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Offset  int
	Limit   int // 0 means unlimited
}

// Where starts a query with one filter.
func Where(field string, op Op, value any) Query {
	return Query{Where: []Filter{{Field: field, Op: op, Value: value}}}
}

// And appends a filter.
func (q Query) And(field string, op Op, value any) Query {
	q.Where = append(append([]Filter(nil), q.Where...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order sets the ordering field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Page sets offset and limit.
func (q Query) Page(offset, limit int) Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

func (q Query) validate() error {
	for _, f := range q.Where {
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpContains:
		case OpIn:
			if _, ok := f.Value.([]any); !ok {
				return fmt.Errorf("docstore: %q filter on %s needs a []any value", f.Op, f.Field)
			}
		default:
			return fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
	}
	if q.Offset < 0 || q.Limit < 0 {
		return fmt.Errorf("docstore: negative offset or limit")
	}
	return nil
}

func (q Query) apply(docs []Document) []Document {
	out := docs[:0:0]
	for _, d := range docs {
		if q.matches(d) {
			out = append(out, d)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].Fields[q.OrderBy]
			b, bok := out[j].Fields[q.OrderBy]
			// Documents missing the order field sort last either way.
			if aok != bok {
				return aok
			}
			c := compare(a, b)
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Offset >= len(out) {
		return []Document{}
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

func (q Query) matches(d Document) bool {
	for _, f := range q.Where {
		v, ok := d.Fields[f.Field]
		if !ok {
			if f.Op == OpNe {
				continue
			}
			return false
		}
		if !f.match(v) {
			return false
		}
	}
	return true
}

func (f Filter) match(v any) bool {
	switch f.Op {
	case OpEq:
		return comparable(v, f.Value) && compare(v, f.Value) == 0
	case OpNe:
		return !comparable(v, f.Value) || compare(v, f.Value) != 0
	case OpLt:
		return comparable(v, f.Value) && compare(v, f.Value) < 0
	case OpLte:
		return comparable(v, f.Value) && compare(v, f.Value) <= 0
	case OpGt:
		return comparable(v, f.Value) && compare(v, f.Value) > 0
	case OpGte:
		return comparable(v, f.Value) && compare(v, f.Value) >= 0
	case OpIn:
		for _, candidate := range f.Value.([]any) {
			if comparable(v, candidate) && compare(v, candidate) == 0 {
				return true
			}
		}
		return false
	case OpContains:
		list, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if comparable(item, f.Value) && compare(item, f.Value) == 0 {
				return true
			}
		}
		return false
	}
	return false
}

// toNumber widens every numeric type; stored documents decode numbers as
// float64 while callers usually pass int.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func comparable(a, b any) bool {
	if _, ok := toNumber(a); ok {
		_, ok := toNumber(b)
		return ok
	}
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	}
	return false
}

// compare orders numbers numerically, strings lexically and false before
// true. Values of different kinds order by kind: numbers, strings, bools,
// everything else.
func compare(a, b any) int {
	ka, kb := kindRank(a), kindRank(b)
	if ka != kb {
		return ka - kb
	}
	switch ka {
	case 0:
		x, _ := toNumber(a)
		y, _ := toNumber(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 1:
		x, y := a.(string), b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 2:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}

func kindRank(v any) int {
	if _, ok := toNumber(v); ok {
		return 0
	}
	switch v.(type) {
	case string:
		return 1
	case bool:
		return 2
	}
	return 3
}

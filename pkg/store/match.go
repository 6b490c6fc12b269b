/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Clone returns a deep copy of the fields
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}

	ret := make(Fields, len(f))
	for k, v := range f {
		ret[k] = cloneValue(v)
	}

	return ret
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		ret := make([]interface{}, len(t))
		for i, e := range t {
			ret[i] = cloneValue(e)
		}
		return ret
	case map[string]interface{}:
		return map[string]interface{}(Fields(t).Clone())
	case Fields:
		return t.Clone()
	default:
		return v
	}
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	return Document{ID: d.ID, Fields: d.Fields.Clone()}
}

// Normalize converts a value into the canonical representation used for
// comparisons: integers become int64, floats float64, and every slice an
// []interface{}. It is applied to everything entering a store.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint32:
		return int64(t)
	case float32:
		return float64(t)
	case []string:
		ret := make([]interface{}, len(t))
		for i, s := range t {
			ret[i] = s
		}
		return ret
	case []interface{}:
		ret := make([]interface{}, len(t))
		for i, e := range t {
			ret[i] = Normalize(e)
		}
		return ret
	case map[string]interface{}:
		return map[string]interface{}(NormalizeFields(t))
	case Fields:
		return NormalizeFields(t)
	default:
		return v
	}
}

// NormalizeFields normalizes every value of the given fields
func NormalizeFields(f map[string]interface{}) Fields {
	if f == nil {
		return Fields{}
	}

	ret := make(Fields, len(f))
	for k, v := range f {
		ret[k] = Normalize(v)
	}

	return ret
}

// Get returns the value of a field of the document
func (d Document) Get(field string) (interface{}, bool) {
	if field == FieldID {
		return d.ID, true
	}

	v, ok := d.Fields[field]
	return v, ok
}

func equalValues(a, b interface{}) bool {
	a = Normalize(a)
	b = Normalize(b)

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		ai, aInt := a.(int64)
		bi, bInt := b.(int64)
		if aInt && bInt {
			return ai == bi
		}
		return af == bf
	}

	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}

	return 0, false
}

// compareValues orders two field values. Missing values sort first, then
// booleans, numbers and strings.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 1:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case 2:
		ai, aInt := a.(int64)
		bi, bInt := b.(int64)
		if aInt && bInt {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	}

	return 0
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	}

	return 4
}

func matchFilter(doc Document, f Filter) bool {
	v, ok := doc.Get(f.Field)

	switch f.Op {
	case OpEqual:
		return ok && equalValues(v, f.Value)
	case OpNotEqual:
		return ok && !equalValues(v, f.Value)
	case OpArrayContains:
		arr, isArr := Normalize(v).([]interface{})
		if !ok || !isArr {
			return false
		}
		for _, e := range arr {
			if equalValues(e, f.Value) {
				return true
			}
		}
		return false
	}

	return false
}

// Match reports whether the document satisfies every filter of the query
func Match(doc Document, q Query) bool {
	for _, f := range q.Filters {
		if !matchFilter(doc, f) {
			return false
		}
	}

	return true
}

// Sort orders documents in place by the given keys. Ties keep their
// relative order.
func Sort(docs []Document, order []Order) {
	if len(order) == 0 {
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range order {
			a, _ := docs[i].Get(o.Field)
			b, _ := docs[j].Get(o.Field)

			c := compareValues(Normalize(a), Normalize(b))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Apply filters and sorts the given documents according to the query
func Apply(docs []Document, q Query) []Document {
	ret := []Document{}
	for _, d := range docs {
		if Match(d, q) {
			ret = append(ret, d)
		}
	}

	Sort(ret, q.Order)

	return ret
}

// NormalizeQuery normalizes the filter values of a query, typically after it
// was decoded from JSON
func NormalizeQuery(q Query) Query {
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		filters[i] = Filter{Field: f.Field, Op: f.Op, Value: Normalize(f.Value)}
	}

	return Query{Filters: filters, Order: q.Order}
}

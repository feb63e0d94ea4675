package cli

import (
	"math"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

// GraphDoc is the JSON description of one wire: its configuration and an
// ordered shard list. It is the textual counterpart of the binary codec
// format, meant for hand-written graph files and console-driven loading
// rather than IPC.
type GraphDoc struct {
	Name   string     `json:"name"`
	Looped bool       `json:"looped,omitempty"`
	Unsafe bool       `json:"unsafe,omitempty"`
	Pure   bool       `json:"pure,omitempty"`
	Shards []ShardDoc `json:"shards"`
}

// ShardDoc names one registered shard and its parameter assignments,
// keyed by parameter name.
type ShardDoc struct {
	Shard  string         `json:"shard"`
	Params map[string]any `json:"params,omitempty"`
}

// ParseGraphDoc decodes a JSON wire description.
func ParseGraphDoc(b []byte) (*GraphDoc, error) {
	doc := &GraphDoc{}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, errors.WithStack(err)
	}
	if doc.Name == "" {
		return nil, errors.New("graph doc missing name")
	}
	return doc, nil
}

// Build instantiates the described shards from reg, applies their
// parameters, and assembles them into a new wire.
func (d *GraphDoc) Build(reg *shard.Registry) (*wire.Wire, error) {
	shards := make([]shard.Shard, 0, len(d.Shards))
	for _, sd := range d.Shards {
		s, err := reg.Create(sd.Shard)
		if err != nil {
			return nil, err
		}
		for name, raw := range sd.Params {
			idx := paramIndex(s, name)
			if idx < 0 {
				return nil, errors.Errorf("shard %q has no parameter %q", sd.Shard, name)
			}
			v, err := jsonToValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "shard %q parameter %q", sd.Shard, name)
			}
			if err := s.SetParam(idx, v); err != nil {
				// JSON has one number type; an integral literal aimed at a
				// Float-only slot arrives here as Int, so retry widened.
				if v.Kind == value.Int {
					if ferr := s.SetParam(idx, value.Float_(float64(v.IntVal()))); ferr == nil {
						continue
					}
				}
				return nil, errors.Wrapf(err, "shard %q", sd.Shard)
			}
		}
		shards = append(shards, s)
	}
	return wire.New(d.Name, shards, wire.Config{
		Looped: d.Looped,
		Unsafe: d.Unsafe,
		Pure:   d.Pure,
	})
}

func paramIndex(s shard.Shard, name string) int {
	for i, p := range s.Parameters() {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// jsonToValue maps a decoded JSON value onto a Value. JSON has one number
// type, so integral numbers become Int and everything else Float; Build
// retries a rejected Int as Float for slots that only accept one.
func jsonToValue(raw any) (value.Value, error) {
	switch x := raw.(type) {
	case nil:
		return value.None_(), nil
	case bool:
		return value.Bool_(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return value.Int_(int64(x)), nil
		}
		return value.Float_(x), nil
	case string:
		return value.String_(x), nil
	case []any:
		items := make([]value.Value, 0, len(x))
		for _, it := range x {
			v, err := jsonToValue(it)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.Seq_(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		items := make([]value.Value, 0, len(x))
		for k, it := range x {
			v, err := jsonToValue(it)
			if err != nil {
				return value.Value{}, err
			}
			keys = append(keys, k)
			items = append(items, v)
		}
		return value.Table_(keys, items), nil
	default:
		return value.Value{}, errors.Errorf("unsupported JSON value %T", raw)
	}
}

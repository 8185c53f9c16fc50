package intrinsics

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mscript/internal/object"
)

var (
	caseUpper = cases.Upper(language.Und)
	caseLower = cases.Lower(language.Und)
)

func num(v object.Value) float64  { return object.DoubleValue(v) }
func str(v object.Value) string {
	if s, ok := v.(*object.String); ok {
		return s.Value
	}
	return object.Display(v)
}

func p(f Frame, name string) object.Value { return f.Param(name) }

func numArg(f Frame, name string) float64 { return num(p(f, name)) }
func strArg(f Frame, name string) string  { return str(p(f, name)) }

func numRes(f float64) Result       { return Done(object.NumberFor(f)) }
func strRes(s string) Result        { return Done(object.NewString(s)) }
func boolRes(b bool) Result         { return Done(object.BoolNumber(b)) }

func seqLen(v object.Value) int {
	switch tv := v.(type) {
	case *object.String:
		return len([]rune(tv.Value))
	case *object.List:
		return len(tv.Items)
	case *object.Map:
		return tv.Len()
	default:
		return 0
	}
}

func build() *Registry {
	r := newRegistry()

	// --- math -----------------------------------------------------
	r.create("abs").param("self", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Abs(numArg(f, "self")))
	})
	r.create("ceil").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Ceil(numArg(f, "x")))
	})
	r.create("floor").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Floor(numArg(f, "x")))
	})
	r.create("sqrt").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Sqrt(numArg(f, "x")))
	})
	r.create("sign").param("self", object.Zero).code(func(f Frame, _ object.Value) Result {
		x := numArg(f, "self")
		switch {
		case x > 0:
			return numRes(1)
		case x < 0:
			return numRes(-1)
		default:
			return numRes(0)
		}
	})
	r.create("sin").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Sin(numArg(f, "x")))
	})
	r.create("cos").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Cos(numArg(f, "x")))
	})
	r.create("tan").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Tan(numArg(f, "x")))
	})
	r.create("asin").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Asin(numArg(f, "x")))
	})
	r.create("acos").param("x", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Acos(numArg(f, "x")))
	})
	r.create("atan").param("y", object.Zero).param("x", object.One).code(func(f Frame, _ object.Value) Result {
		return numRes(math.Atan2(numArg(f, "y"), numArg(f, "x")))
	})
	r.create("pi").code(func(f Frame, _ object.Value) Result {
		return numRes(math.Pi)
	})
	r.create("log").param("x", object.Zero).param("base", object.NumberFor(10)).code(func(f Frame, _ object.Value) Result {
		x, base := numArg(f, "x"), numArg(f, "base")
		if base == math.E {
			return numRes(math.Log(x))
		}
		return numRes(math.Log(x) / math.Log(base))
	})
	r.create("round").param("self", object.Zero).param("decimalPlaces", object.Zero).code(func(f Frame, _ object.Value) Result {
		x, dp := numArg(f, "self"), numArg(f, "decimalPlaces")
		mul := math.Pow(10, dp)
		return numRes(math.Round(x*mul) / mul)
	})
	r.create("bitAnd").param("a", object.Zero).param("b", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(float64(int64(numArg(f, "a")) & int64(numArg(f, "b"))))
	})
	r.create("bitOr").param("a", object.Zero).param("b", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(float64(int64(numArg(f, "a")) | int64(numArg(f, "b"))))
	})
	r.create("bitXor").param("a", object.Zero).param("b", object.Zero).code(func(f Frame, _ object.Value) Result {
		return numRes(float64(int64(numArg(f, "a")) ^ int64(numArg(f, "b"))))
	})
	r.create("rnd").param("seed", nil).code(func(f Frame, _ object.Value) Result {
		if seedV := p(f, "seed"); seedV != nil {
			if _, ok := seedV.(object.Null); !ok {
				f.Host().Rand().Seed(int64(num(seedV)))
			}
		}
		return numRes(f.Host().Rand().Float64())
	})
	r.create("range").param("from", object.Zero).param("to", object.Zero).param("step", nil).code(func(f Frame, _ object.Value) Result {
		from, to := numArg(f, "from"), numArg(f, "to")
		var step float64
		if sv := p(f, "step"); sv != nil {
			if _, isNull := sv.(object.Null); !isNull {
				step = num(sv)
			}
		}
		if step == 0 {
			if to >= from {
				step = 1
			} else {
				step = -1
			}
		}
		if step == 0 {
			return Done(object.NewList(nil))
		}
		count := int(math.Floor((to-from)/step)) + 1
		if count < 0 {
			count = 0
		}
		items := make([]object.Value, 0, count)
		v := from
		for i := 0; i < count; i++ {
			items = append(items, object.NumberFor(v))
			v += step
		}
		return Done(object.NewList(items))
	})
	r.create("sum").param("self", nil).code(func(f Frame, _ object.Value) Result {
		total := 0.0
		switch tv := p(f, "self").(type) {
		case *object.List:
			for _, it := range tv.Items {
				total += num(it)
			}
		case *object.Map:
			for _, v := range tv.Keys() {
				val, _ := tv.Get(v)
				total += num(val)
			}
		}
		return numRes(total)
	})

	// --- strings / char codes --------------------------------------
	r.create("char").param("codePoint", object.Zero).code(func(f Frame, _ object.Value) Result {
		return strRes(string(rune(int(numArg(f, "codePoint")))))
	})
	r.create("code").param("self", object.EmptyString()).code(func(f Frame, _ object.Value) Result {
		s := strArg(f, "self")
		if s == "" {
			return numRes(0)
		}
		return numRes(float64([]rune(s)[0]))
	})
	r.create("upper").param("self", object.EmptyString()).code(func(f Frame, _ object.Value) Result {
		return strRes(caseUpper.String(strArg(f, "self")))
	})
	r.create("lower").param("self", object.EmptyString()).code(func(f Frame, _ object.Value) Result {
		return strRes(caseLower.String(strArg(f, "self")))
	})
	r.create("val").param("self", object.EmptyString()).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case object.Number:
			return Done(tv)
		default:
			s := strings.TrimSpace(str(tv))
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return numRes(0)
			}
			return numRes(n)
		}
	})
	r.create("str").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		return strRes(object.Display(p(f, "self")))
	})
	r.create("string").code(func(f Frame, _ object.Value) Result {
		return Done(object.StringTypeProto())
	})
	r.create("number").code(func(f Frame, _ object.Value) Result {
		return Done(object.NumberTypeProto())
	})
	r.create("list").code(func(f Frame, _ object.Value) Result {
		return Done(object.ListTypeProto())
	})
	r.create("map").code(func(f Frame, _ object.Value) Result {
		return Done(object.MapTypeProto())
	})
	r.create("funcRef").code(func(f Frame, _ object.Value) Result {
		return Done(object.FunctionTypeProto())
	})
	r.create("version").code(func(f Frame, _ object.Value) Result {
		return Done(f.Host().Version())
	})

	r.create("hash").param("self", object.NullValue).param("depth", object.NumberFor(object.DefaultEqualityDepth)).code(func(f Frame, _ object.Value) Result {
		depth := int(numArg(f, "depth"))
		return numRes(float64(object.Hash(p(f, "self"), depth)))
	})

	r.create("hasIndex").param("self", object.NullValue).param("index", object.Zero).code(func(f Frame, _ object.Value) Result {
		self := p(f, "self")
		switch tv := self.(type) {
		case *object.String, *object.List:
			n := seqLen(tv)
			_, ok := object.NormalizeIndex(int(numArg(f, "index")), n)
			return boolRes(ok)
		case *object.Map:
			_, ok := tv.Get(p(f, "index"))
			return boolRes(ok)
		default:
			return boolRes(false)
		}
	})

	r.create("indexes").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case *object.List:
			items := make([]object.Value, len(tv.Items))
			for i := range tv.Items {
				items[i] = object.NumberFor(float64(i))
			}
			return Done(object.NewList(items))
		case *object.String:
			n := len([]rune(tv.Value))
			items := make([]object.Value, n)
			for i := 0; i < n; i++ {
				items[i] = object.NumberFor(float64(i))
			}
			return Done(object.NewList(items))
		case *object.Map:
			keys := tv.Keys()
			items := make([]object.Value, len(keys))
			copy(items, keys)
			return Done(object.NewList(items))
		default:
			return Done(object.NewList(nil))
		}
	})

	r.create("values").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case *object.Map:
			out := make([]object.Value, 0, tv.Len())
			for _, k := range tv.Keys() {
				v, _ := tv.Get(k)
				out = append(out, v)
			}
			return Done(object.NewList(out))
		case *object.List:
			return Done(tv.Clone())
		default:
			return Done(object.NewList(nil))
		}
	})

	r.create("len").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		return numRes(float64(seqLen(p(f, "self"))))
	})

	r.create("indexOf").param("self", object.NullValue).param("value", object.NullValue).param("after", nil).code(func(f Frame, _ object.Value) Result {
		self := p(f, "self")
		target := p(f, "value")
		after := -1
		if av := p(f, "after"); av != nil {
			if _, isNull := av.(object.Null); !isNull {
				after = int(num(av))
			}
		}
		switch tv := self.(type) {
		case *object.String:
			runes := []rune(tv.Value)
			needle := []rune(str(target))
			for i := after + 1; i+len(needle) <= len(runes); i++ {
				if string(runes[i:i+len(needle)]) == string(needle) {
					return numRes(float64(i))
				}
			}
			return Done(object.NullValue)
		case *object.List:
			for i := after + 1; i < len(tv.Items); i++ {
				if object.Equal(tv.Items[i], target, object.DefaultEqualityDepth) == 1 {
					return numRes(float64(i))
				}
			}
			return Done(object.NullValue)
		case *object.Map:
			for _, k := range tv.Keys() {
				v, _ := tv.Get(k)
				if object.Equal(v, target, object.DefaultEqualityDepth) == 1 {
					return Done(k)
				}
			}
			return Done(object.NullValue)
		default:
			return Done(object.NullValue)
		}
	})

	r.create("insert").param("self", object.NullValue).param("index", object.Zero).param("value", object.NullValue).code(func(f Frame, _ object.Value) Result {
		lst, ok := p(f, "self").(*object.List)
		if !ok {
			return Done(p(f, "self"))
		}
		idx := int(numArg(f, "index"))
		if idx < 0 {
			idx += len(lst.Items) + 1
		}
		if idx < 0 {
			idx = 0
		}
		if idx > len(lst.Items) {
			idx = len(lst.Items)
		}
		lst.Items = append(lst.Items, nil)
		copy(lst.Items[idx+1:], lst.Items[idx:])
		lst.Items[idx] = p(f, "value")
		return Done(lst)
	})

	r.create("remove").param("self", object.NullValue).param("keyOrIndex", object.NullValue).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case *object.List:
			idx, ok := object.NormalizeIndex(int(numArg(f, "keyOrIndex")), len(tv.Items))
			if !ok {
				return Done(object.NullValue)
			}
			removed := tv.Items[idx]
			tv.Items = append(tv.Items[:idx], tv.Items[idx+1:]...)
			return Done(removed)
		case *object.Map:
			key := p(f, "keyOrIndex")
			v, ok := tv.Get(key)
			if !ok {
				return boolRes(false)
			}
			tv.Delete(key)
			_ = v
			return boolRes(true)
		case *object.String:
			return Done(tv)
		default:
			return Done(object.NullValue)
		}
	})

	r.create("push").param("self", object.NullValue).param("value", object.NullValue).code(func(f Frame, _ object.Value) Result {
		if lst, ok := p(f, "self").(*object.List); ok {
			lst.Items = append(lst.Items, p(f, "value"))
			return Done(lst)
		}
		return Done(p(f, "self"))
	})

	r.create("pop").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case *object.List:
			if len(tv.Items) == 0 {
				return Done(object.NullValue)
			}
			last := tv.Items[len(tv.Items)-1]
			tv.Items = tv.Items[:len(tv.Items)-1]
			return Done(last)
		case *object.Map:
			keys := tv.Keys()
			if len(keys) == 0 {
				return Done(object.NullValue)
			}
			last := keys[len(keys)-1]
			v, _ := tv.Get(last)
			tv.Delete(last)
			return Done(v)
		default:
			return Done(object.NullValue)
		}
	})

	r.create("pull").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		switch tv := p(f, "self").(type) {
		case *object.List:
			if len(tv.Items) == 0 {
				return Done(object.NullValue)
			}
			first := tv.Items[0]
			tv.Items = tv.Items[1:]
			return Done(first)
		case *object.Map:
			keys := tv.Keys()
			if len(keys) == 0 {
				return Done(object.NullValue)
			}
			first := keys[0]
			v, _ := tv.Get(first)
			tv.Delete(first)
			return Done(v)
		default:
			return Done(object.NullValue)
		}
	})

	r.create("join").param("self", object.NullValue).param("delim", object.NewString(" ")).code(func(f Frame, _ object.Value) Result {
		lst, ok := p(f, "self").(*object.List)
		if !ok {
			return strRes("")
		}
		delim := strArg(f, "delim")
		parts := make([]string, len(lst.Items))
		for i, it := range lst.Items {
			parts[i] = object.Display(it)
		}
		return strRes(strings.Join(parts, delim))
	})

	r.create("split").param("self", object.EmptyString()).param("delim", object.NewString(" ")).param("maxCount", object.NumberFor(-1)).code(func(f Frame, _ object.Value) Result {
		s := strArg(f, "self")
		delim := strArg(f, "delim")
		maxCount := int(numArg(f, "maxCount"))
		var parts []string
		if delim == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else if maxCount > 0 {
			parts = strings.SplitN(s, delim, maxCount)
		} else {
			parts = strings.Split(s, delim)
		}
		items := make([]object.Value, len(parts))
		for i, part := range parts {
			items[i] = object.NewString(part)
		}
		return Done(object.NewList(items))
	})

	r.create("replace").param("self", object.NullValue).param("oldval", object.NullValue).param("newval", object.NullValue).param("maxCount", nil).code(func(f Frame, _ object.Value) Result {
		maxCount := -1
		if mv := p(f, "maxCount"); mv != nil {
			if _, isNull := mv.(object.Null); !isNull {
				maxCount = int(num(mv))
			}
		}
		switch tv := p(f, "self").(type) {
		case *object.String:
			old, nw := strArg(f, "oldval"), strArg(f, "newval")
			n := maxCount
			if n < 0 {
				n = -1
			}
			return strRes(strings.Replace(tv.Value, old, nw, n))
		case *object.Map:
			out := tv.Clone()
			oldV, newV := p(f, "oldval"), p(f, "newval")
			count := 0
			for _, k := range out.Keys() {
				v, _ := out.Get(k)
				if maxCount >= 0 && count >= maxCount {
					break
				}
				if object.Equal(v, oldV, object.DefaultEqualityDepth) == 1 {
					out.Set(k, newV)
					count++
				}
			}
			return Done(out)
		default:
			return Done(p(f, "self"))
		}
	})

	r.create("slice").param("seq", object.NullValue).param("from", object.Zero).param("to", nil).code(func(f Frame, _ object.Value) Result {
		seq := p(f, "seq")
		n := seqLen(seq)
		from := int(numArg(f, "from"))
		to := n
		if tv := p(f, "to"); tv != nil {
			if _, isNull := tv.(object.Null); !isNull {
				to = int(num(tv))
			}
		}
		if from < 0 {
			from += n
		}
		if to < 0 {
			to += n
		}
		if from < 0 {
			from = 0
		}
		if to > n {
			to = n
		}
		if from > to {
			from = to
		}
		switch tv := seq.(type) {
		case *object.List:
			items := make([]object.Value, to-from)
			copy(items, tv.Items[from:to])
			return Done(object.NewList(items))
		case *object.String:
			runes := []rune(tv.Value)
			return strRes(string(runes[from:to]))
		default:
			return Done(object.NullValue)
		}
	})

	r.create("shuffle").param("self", object.NullValue).code(func(f Frame, _ object.Value) Result {
		if lst, ok := p(f, "self").(*object.List); ok {
			rnd := f.Host().Rand()
			rnd.Shuffle(len(lst.Items), func(i, j int) {
				lst.Items[i], lst.Items[j] = lst.Items[j], lst.Items[i]
			})
			return Done(lst)
		}
		return Done(p(f, "self"))
	})

	r.create("sort").param("self", object.NullValue).param("byKey", nil).param("ascending", object.One).code(func(f Frame, _ object.Value) Result {
		lst, ok := p(f, "self").(*object.List)
		if !ok {
			return Done(p(f, "self"))
		}
		ascending := object.Truthy(p(f, "ascending"))
		byKey := p(f, "byKey")
		hasKey := byKey != nil
		if _, isNull := byKey.(object.Null); isNull {
			hasKey = false
		}

		type pair struct {
			value  object.Value
			sortBy object.Value
		}
		pairs := make([]pair, len(lst.Items))
		for i, v := range lst.Items {
			key := v
			if hasKey {
				switch elem := v.(type) {
				case *object.Map:
					if kv, found := elem.Get(byKey); found {
						key = kv
					}
				case *object.List:
					if idx, ok := object.NormalizeIndex(int(object.IntValue(byKey)), len(elem.Items)); ok {
						key = elem.Items[idx]
					}
				}
			}
			pairs[i] = pair{value: v, sortBy: key}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			less := lessThan(pairs[i].sortBy, pairs[j].sortBy)
			if ascending {
				return less
			}
			return lessThan(pairs[j].sortBy, pairs[i].sortBy)
		})
		// Sorting by key still reorders self in place, matching a
		// plain sort with no key.
		for i, pr := range pairs {
			lst.Items[i] = pr.value
		}
		return Done(lst)
	})

	// --- I/O & control ----------------------------------------------
	r.create("print").param("value", object.EmptyString()).code(func(f Frame, _ object.Value) Result {
		f.Host().Print(object.Display(p(f, "value")))
		return Done(object.NullValue)
	})
	r.create("yield").code(func(f Frame, _ object.Value) Result {
		f.Host().RequestYield()
		return Done(object.NullValue)
	})
	r.create("time").code(func(f Frame, _ object.Value) Result {
		return numRes(float64(f.Host().Now().UnixNano()) / 1e9)
	})
	r.create("wait").param("seconds", object.One).code(func(f Frame, partial object.Value) Result {
		deadline, ok := partial.(object.Number)
		if !ok {
			deadline = object.NumberFor(float64(f.Host().Now().UnixNano())/1e9 + numArg(f, "seconds"))
		}
		if float64(f.Host().Now().UnixNano())/1e9 >= float64(deadline) {
			return Done(object.NullValue)
		}
		return Pending(deadline)
	})

	wirePrototypes(r)

	return r
}

func lessThan(a, b object.Value) bool {
	an, aok := a.(object.Number)
	bn, bok := b.(object.Number)
	if aok && bok {
		return an < bn
	}
	return object.Display(a) < object.Display(b)
}

// wirePrototypes binds the built-ins whose first parameter is literally
// "self" onto the built-in prototype maps spec.md §4.4 walks during
// dotted lookup ("obj.field"), so "s.indexOf(...)" and friends resolve.
// Only "self"-first intrinsics are bound — call-style-only built-ins
// like slice(seq, ...) or range(from, to, step) are left as plain
// registry entries, exactly as spec.md §6 lists them.
func wirePrototypes(r *Registry) {
	bind := func(proto *object.Map, names ...string) {
		for _, name := range names {
			fv, ok := r.FunctionValue(name)
			if !ok {
				continue
			}
			proto.RawSet(object.NewString(name), fv)
		}
	}

	bind(object.StringTypeProto(),
		"len", "code", "upper", "lower", "val", "str", "hash",
		"indexOf", "hasIndex", "indexes", "split", "replace")

	bind(object.ListTypeProto(),
		"len", "str", "hash", "indexOf", "hasIndex", "indexes", "values",
		"insert", "remove", "push", "pop", "pull", "join", "sort",
		"shuffle", "sum")

	bind(object.MapTypeProto(),
		"len", "str", "hash", "indexOf", "hasIndex", "indexes", "values",
		"remove", "pop", "pull", "replace")

	bind(object.NumberTypeProto(),
		"str", "hash", "abs", "sign", "round")

	bind(object.FunctionTypeProto(),
		"str", "hash")
}

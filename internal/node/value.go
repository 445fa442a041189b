package node

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ValueKind tags the scalar payload carried by a Node, per spec.md §3's
// "optional scalar payload (a tagged value: boolean, signed/unsigned
// integer widths, float, decimal, date, interval, utf-8 string, binary)".
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueBool
	ValueInt
	ValueUint
	ValueFloat
	ValueDecimal
	ValueDate
	ValueInterval
	ValueString
	ValueBinary
	// ValueJoinKind carries a JoinKind for TagJoin nodes.
	ValueJoinKind
)

// Value is a tagged scalar. Only one of the typed fields is meaningful,
// selected by Kind. It is a value type (no pointers) so that two payloads
// are trivially comparable with ==, which Node interning relies on.
type Value struct {
	Kind ValueKind

	boolVal   bool
	intVal    int64
	uintVal   uint64
	floatVal  float64
	strVal    string  // also backs ValueDecimal's decimal text form
	binVal    string  // binary payload stored as a string to stay comparable
	dateVal   int32   // days since epoch
	intervalV int64   // nanoseconds
	joinKind  JoinKind
	width     uint8 // bit width for ValueInt/ValueUint
}

func NoneValue() Value                { return Value{Kind: ValueNone} }
func BoolValue(b bool) Value          { return Value{Kind: ValueBool, boolVal: b} }
func IntValue(v int64, width uint8) Value {
	return Value{Kind: ValueInt, intVal: v, width: width}
}
func UintValue(v uint64, width uint8) Value {
	return Value{Kind: ValueUint, uintVal: v, width: width}
}
func FloatValue(v float64) Value      { return Value{Kind: ValueFloat, floatVal: v} }
func DecimalValue(text string) Value  { return Value{Kind: ValueDecimal, strVal: text} }
func DateValue(daysSinceEpoch int32) Value {
	return Value{Kind: ValueDate, dateVal: daysSinceEpoch}
}
func IntervalValue(nanos int64) Value { return Value{Kind: ValueInterval, intervalV: nanos} }
func StringValue(s string) Value      { return Value{Kind: ValueString, strVal: s} }
func BinaryValue(b []byte) Value      { return Value{Kind: ValueBinary, binVal: string(b)} }
func JoinKindValue(k JoinKind) Value  { return Value{Kind: ValueJoinKind, joinKind: k} }

func (v Value) Bool() bool         { return v.boolVal }
func (v Value) Int() int64         { return v.intVal }
func (v Value) Uint() uint64       { return v.uintVal }
func (v Value) Float() float64     { return v.floatVal }
func (v Value) Decimal() string    { return v.strVal }
func (v Value) Date() int32        { return v.dateVal }
func (v Value) Interval() int64    { return v.intervalV }
func (v Value) String_() string    { return v.strVal }
func (v Value) Binary() []byte     { return []byte(v.binVal) }
func (v Value) Width() uint8       { return v.width }
func (v Value) JoinKind() JoinKind { return v.joinKind }

// String renders the value the way the trace/persist format expects a
// "P<i>=(tag value)" argument to look: minimal, deterministic, no quoting
// games beyond wrapping strings.
func (v Value) String() string {
	switch v.Kind {
	case ValueNone:
		return ""
	case ValueBool:
		return fmt.Sprintf("%t", v.boolVal)
	case ValueInt:
		return fmt.Sprintf("%d", v.intVal)
	case ValueUint:
		return fmt.Sprintf("%d", v.uintVal)
	case ValueFloat:
		return fmt.Sprintf("%v", v.floatVal)
	case ValueDecimal:
		return v.strVal
	case ValueDate:
		return fmt.Sprintf("date:%d", v.dateVal)
	case ValueInterval:
		return fmt.Sprintf("interval:%d", v.intervalV)
	case ValueString:
		return fmt.Sprintf("%q", v.strVal)
	case ValueBinary:
		return fmt.Sprintf("0x%x", v.binVal)
	case ValueJoinKind:
		return v.joinKind.String()
	default:
		return "?"
	}
}

// appendHash feeds a deterministic encoding of v into h. Used by
// computeHash; must never depend on map iteration order or pointer
// addresses so that hashes are stable across processes (spec.md §4.A).
func (v Value) appendHash(buf []byte) []byte {
	buf = append(buf, byte(v.Kind), v.width)
	var tmp [8]byte
	switch v.Kind {
	case ValueBool:
		if v.boolVal {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case ValueInt:
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.intVal))
		buf = append(buf, tmp[:]...)
	case ValueUint:
		binary.LittleEndian.PutUint64(tmp[:], v.uintVal)
		buf = append(buf, tmp[:]...)
	case ValueFloat:
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.floatVal))
		buf = append(buf, tmp[:]...)
	case ValueDecimal, ValueString:
		buf = append(buf, v.strVal...)
	case ValueBinary:
		buf = append(buf, v.binVal...)
	case ValueDate:
		binary.LittleEndian.PutUint32(tmp[:4], uint32(v.dateVal))
		buf = append(buf, tmp[:4]...)
	case ValueInterval:
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.intervalV))
		buf = append(buf, tmp[:]...)
	case ValueJoinKind:
		buf = append(buf, byte(v.joinKind))
	}
	return buf
}

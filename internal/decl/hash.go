package decl

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed term identity. Version suffix
// enables future algorithm migration.
const (
	domainTerm      = "egglog/term/v1"
	domainTypedTerm = "egglog/typed-term/v1"
)

// Node tags keep the hash unambiguous across variants. A tag byte precedes
// every node and a length precedes every string, so distinct trees can
// never serialize to the same byte stream.
const (
	tagVar byte = iota + 1
	tagCall
	tagInt
	tagFloat
	tagString
	tagBool
	tagUnit
	tagType
)

// ExprHash computes the content-addressed identity of a term tree.
// The hash is stable across processes: string payloads are NFC normalized
// before hashing so equal terms built from differently composed Unicode
// input collide as intended.
//
// Hash equality is a fast pre-check only; correctness paths always compare
// with ExprEqual.
func ExprHash(e ExprDecl) string {
	h := sha256.New()
	h.Write([]byte(domainTerm))
	h.Write([]byte{0x00})
	hashExpr(h, e)
	return hex.EncodeToString(h.Sum(nil))
}

// TypedExprHash hashes a term together with its resolved type.
func TypedExprHash(t TypedExprDecl) string {
	h := sha256.New()
	h.Write([]byte(domainTypedTerm))
	h.Write([]byte{0x00})
	hashType(h, t.Type)
	hashExpr(h, t.Expr)
	return hex.EncodeToString(h.Sum(nil))
}

func hashExpr(h hash.Hash, e ExprDecl) {
	switch d := e.(type) {
	case VarDecl:
		h.Write([]byte{tagVar})
		hashString(h, d.Name)
	case LitDecl:
		hashLit(h, d.Value)
	case CallDecl:
		h.Write([]byte{tagCall})
		hashString(h, refKey(d.Ref))
		hashLen(h, len(d.Args))
		for _, a := range d.Args {
			hashExpr(h, a)
		}
	}
}

func hashLit(h hash.Hash, v LitValue) {
	switch l := v.(type) {
	case IntLit:
		h.Write([]byte{tagInt})
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(l))
		h.Write(buf[:])
	case FloatLit:
		h.Write([]byte{tagFloat})
		hashString(h, l.String())
	case StringLit:
		h.Write([]byte{tagString})
		hashString(h, string(l))
	case BoolLit:
		h.Write([]byte{tagBool})
		if l {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case UnitLit:
		h.Write([]byte{tagUnit})
	}
}

func hashType(h hash.Hash, t JustTypeRef) {
	h.Write([]byte{tagType})
	hashString(h, t.Name)
	hashLen(h, len(t.Args))
	for _, a := range t.Args {
		hashType(h, a)
	}
}

func hashString(h hash.Hash, s string) {
	normalized := norm.NFC.String(s)
	hashLen(h, len(normalized))
	h.Write([]byte(normalized))
}

func hashLen(h hash.Hash, n int) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	h.Write(buf[:])
}

// refKey renders a CallableRef with its variant so distinct kinds sharing
// a name hash differently.
func refKey(ref CallableRef) string {
	switch r := ref.(type) {
	case FunctionRef:
		return "fn:" + r.Name
	case MethodRef:
		return "method:" + r.Sort + "." + r.Name
	case ClassMethodRef:
		return "classmethod:" + r.Sort + "." + r.Name
	case ConstantRef:
		return "const:" + r.Name
	case ClassVariableRef:
		return "classvar:" + r.Sort + "." + r.Name
	default:
		return ref.String()
	}
}

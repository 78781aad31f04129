package value

import "smile/internal/symbol"

// Type-name symbols for every Kind, the values Op_TypeOf pushes and Op_Is
// compares against. These are ordinary interned symbols (not part of the
// fixed 1..94 known-symbol range) so they must be resolved once, against
// whichever symbol.Table the running process uses, before any value's
// TypeName method is called. Init performs that resolution; it is called
// once at process startup (see cmd/smile).
var typeSymbols [int(KindException) + 1]symbol.Symbol

// Init registers every kind's formal type name symbol against t. It must
// run before lexing/parsing/evaluation begins.
func Init(t *symbol.Table) {
	names := map[Kind]string{
		KindNull: "Null", KindBool: "Bool", KindByte: "Byte",
		KindInt16: "Integer16", KindInt32: "Integer32", KindInt64: "Integer64",
		KindReal32: "Real32", KindReal64: "Real64", KindReal128: "Real128",
		KindFloat32: "Float32", KindFloat64: "Float64", KindFloat128: "Float128",
		KindChar: "Char", KindUni: "Uni", KindSymbol: "Symbol", KindString: "String",
		KindList: "List", KindPair: "Pair", KindUserObject: "UserObject",
		KindFunction: "Fn", KindHandle: "Handle", KindByteArray: "ByteArray",
		KindSyntax: "Syntax", KindLoanword: "Loanword", KindNonterminal: "Nonterminal",
		KindRange: "Range", KindException: "Exception",
	}
	for k, name := range names {
		typeSymbols[k] = t.Get(name)
	}
}

// typeNameOf returns the registered type symbol for k. Safe to call before
// Init, returning 0 ("unknown") in that case.
func typeNameOf(k Kind) symbol.Symbol {
	return typeSymbols[k]
}

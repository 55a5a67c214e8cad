// Package cell implements the universal value representation: a fixed-shape
// tagged cell, plus the first-byte pointer classification shared by the
// variadic API and the fail machinery.
package cell

// Kind is the tag carried in a cell's header byte. The type-group tests
// (IsInert, IsAnyWord, IsAnyPath, IsAnyArray) switch over explicit lists of
// kinds rather than relying on numeric ranges.
type Kind byte

const (
	KindEnd        Kind = iota // sentinel: not a readable value
	KindTrash                  // debug-only poison value; reading one panics in a checked build
	KindNulled                 // the "no value" result, distinct from every datatype
	KindBlank                  // unreadable blank / placeholder
	KindLogic
	KindInteger
	KindDecimal
	KindText
	KindBinary
	KindWord
	KindGetWord
	KindSetWord
	KindLitWord
	KindBlock
	KindGroup
	KindPath
	KindSetPath
	KindGetPath
	KindLitPath
	KindAction
	KindContext  // object / module / port / error / frame archetype
	KindPairing  // key/value API handle
	KindHandle   // HANDLE! — opaque external resource with optional cleaner
	KindQuoted   // overflow quoting: payload references a single-cell array
	kindSentinel // bound; not a valid cell kind
)

// String renders the kind name the way MOLD would report it in an error.
func (k Kind) String() string {
	if k >= kindSentinel {
		return "invalid-kind!"
	}
	return kindNames[k]
}

var kindNames = [...]string{
	KindEnd:      "end",
	KindTrash:    "trash",
	KindNulled:   "nulled",
	KindBlank:    "blank!",
	KindLogic:    "logic!",
	KindInteger:  "integer!",
	KindDecimal:  "decimal!",
	KindText:     "text!",
	KindBinary:   "binary!",
	KindWord:     "word!",
	KindGetWord:  "get-word!",
	KindSetWord:  "set-word!",
	KindLitWord:  "lit-word!",
	KindBlock:    "block!",
	KindGroup:    "group!",
	KindPath:     "path!",
	KindSetPath:  "set-path!",
	KindGetPath:  "get-path!",
	KindLitPath:  "lit-path!",
	KindAction:   "action!",
	KindContext:  "object!",
	KindPairing:  "pairing!",
	KindHandle:   "handle!",
	KindQuoted:   "quoted!",
}

// IsInert reports whether a cell of this kind evaluates to itself.
func (k Kind) IsInert() bool {
	switch k {
	case KindBlank, KindLogic, KindInteger, KindDecimal, KindText, KindBinary,
		KindBlock, KindPairing, KindHandle:
		return true
	default:
		return false
	}
}

// IsAnyWord reports membership in the word! family (word/get-word/set-word/lit-word).
func (k Kind) IsAnyWord() bool {
	switch k {
	case KindWord, KindGetWord, KindSetWord, KindLitWord:
		return true
	default:
		return false
	}
}

// IsAnyPath reports membership in the path! family.
func (k Kind) IsAnyPath() bool {
	switch k {
	case KindPath, KindSetPath, KindGetPath, KindLitPath:
		return true
	default:
		return false
	}
}

// IsAnyArray reports whether the kind is backed by an Array container node
// (block!/group!/any path! that isn't word-shaped).
func (k Kind) IsAnyArray() bool {
	switch k {
	case KindBlock, KindGroup, KindPath, KindSetPath, KindGetPath, KindLitPath:
		return true
	default:
		return false
	}
}

// PointerClass is the first-byte classification used by the variadic C-API
// analogue (internal/api) and by the fail machinery to distinguish anonymous
// pointer arguments without a vtable lookup.
type PointerClass byte

const (
	PointerUTF8 PointerClass = iota
	PointerNode
	PointerCell
	PointerEnd
)

// ClassifyFirstByte mirrors the header engineering described in the data
// model: a single leading byte tells the variadic API whether it is looking
// at UTF-8 text, a container node, a cell, or the end sentinel. In this
// rewrite the "byte" is a tag carried explicitly on every boxed argument
// (see internal/api), rather than inferred from raw memory layout.
func ClassifyFirstByte(tag byte) PointerClass {
	switch tag {
	case 0:
		return PointerUTF8
	case 1:
		return PointerNode
	case 2:
		return PointerCell
	default:
		return PointerEnd
	}
}

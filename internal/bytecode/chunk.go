package bytecode

// DebugInfo stores the source location of a single instruction, the
// supplemented span-carrying feature of SPEC_FULL.md (grounded on the
// teacher's own per-instruction DebugInfo in internal/bytecode/chunk.go).
type DebugInfo struct {
	Line int
	Col  int
}

// ConstKind tags the constant-pool entries OpPushConst reads from. Chunk
// cannot hold package value's Value type directly (value.NativeLambda
// embeds *Chunk, so value importing bytecode and bytecode importing value
// would cycle); Const is the neutral payload package interp converts to a
// real Value at push time, the same role the teacher's `[]interface{}`
// constant pool plays, just closed over Faeyne's six literal kinds instead
// of Go's open interface{}.
type ConstKind byte

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstAtom
	ConstString
	ConstInt
	ConstFloat
	// ConstGlobalRef names a top-level def by id. A bare identifier that
	// resolves to a global (rather than a local or captured variable) compiles
	// to OpPushConst over one of these instead of OpPushFrom, since
	// scope.Resolve never walks into the separate Global table — the pushed
	// Value is a FuncGlobal Function the Call opcode resolves lazily against
	// scope.Global, which is what lets two defs call each other regardless of
	// source order.
	ConstGlobalRef
)

type Const struct {
	Kind   ConstKind
	Bool   bool
	Atom   uint32
	Str    string
	Int    int64
	Float  float64
	Global uint32
}

// Pattern is one arm of an inline Match table (spec.md §4.4).
type PatternKind byte

const (
	PatternWildcard PatternKind = iota
	PatternLiteral
	PatternBinding
)

type Pattern struct {
	Kind    PatternKind
	Literal Const       // PatternLiteral
	BindID  uint32      // PatternBinding: variable id to assign the scrutinee to
	Target  int         // absolute instruction offset of this arm's body
}

// MatchTable is the inline arm list an OpMatch instruction references.
type MatchTable struct {
	Arms []Pattern
	Span DebugInfo
}

// LambdaTemplate is the compile-time description an OpCaptureClosure
// instruction turns into a runtime NativeLambda: signature, body, and the
// set of free variables the translator determined need capturing (spec.md
// §4.2/§4.3).
type LambdaTemplate struct {
	Name     string
	ArgIDs   []uint32
	FreeVars []uint32
	Body     *Chunk
	IsSelf   bool // body may reference `self` (spec.md §4.2)
}

// Chunk is a function's compiled body: a flat opcode stream plus the
// constant pool, match tables, and lambda templates its instructions index
// into. Structurally identical to the teacher's own bytecode.Chunk.
type Chunk struct {
	Name       string
	Code       []byte
	Debug      []DebugInfo
	Constants  []Const
	Matches    []MatchTable
	Lambdas    []LambdaTemplate
}

func NewChunk(name string) *Chunk {
	return &Chunk{Name: name}
}

func (c *Chunk) emit(op OpCode, d DebugInfo) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, d)
}

func (c *Chunk) emitU32(v uint32, d DebugInfo) {
	c.Code = append(c.Code,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	c.Debug = append(c.Debug, d, d, d, d)
}

func (c *Chunk) ReadU32(ip int) uint32 {
	b := c.Code[ip : ip+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (c *Chunk) AddConstant(k Const) uint32 {
	c.Constants = append(c.Constants, k)
	return uint32(len(c.Constants) - 1)
}

func (c *Chunk) AddMatchTable(t MatchTable) uint32 {
	c.Matches = append(c.Matches, t)
	return uint32(len(c.Matches) - 1)
}

func (c *Chunk) AddLambda(t LambdaTemplate) uint32 {
	c.Lambdas = append(c.Lambdas, t)
	return uint32(len(c.Lambdas) - 1)
}

// Here() is the instruction offset the next emitted opcode will land at —
// used by the compiler to patch match-arm targets and RetSmall offsets
// after the fact, the way the teacher's stmt_compiler.go patches jumps.
func (c *Chunk) Here() int { return len(c.Code) }

func (c *Chunk) EmitPushConst(idx uint32, d DebugInfo) {
	c.emit(OpPushConst, d)
	c.emitU32(idx, d)
}

func (c *Chunk) EmitPushFrom(id uint32, d DebugInfo) {
	c.emit(OpPushFrom, d)
	c.emitU32(id, d)
}

func (c *Chunk) EmitPopTo(id uint32, d DebugInfo) {
	c.emit(OpPopTo, d)
	c.emitU32(id, d)
}

func (c *Chunk) EmitBinOp(kind byte, d DebugInfo) {
	c.emit(OpBinOp, d)
	c.Code = append(c.Code, kind)
	c.Debug = append(c.Debug, d)
}

// EmitCall carries the call-site argument count as its operand: a concrete
// translator (SPEC_FULL.md supplemented feature #4) knows argc from the
// syntax it is compiling, so it is cheaper and simpler to encode it directly
// rather than re-deriving it from the callee's signature at every Call.
func (c *Chunk) EmitCall(argc uint32, d DebugInfo) {
	c.emit(OpCall, d)
	c.emitU32(argc, d)
}
func (c *Chunk) EmitRetBig(d DebugInfo) { c.emit(OpRetBig, d) }

func (c *Chunk) EmitRetSmall(target uint32, d DebugInfo) {
	c.emit(OpRetSmall, d)
	c.emitU32(target, d)
}

// PatchRetSmallTarget overwrites the operand of a previously emitted
// OpRetSmall once the join point is known.
func (c *Chunk) PatchRetSmallTarget(opIP int, target uint32) {
	operandIP := opIP + 1
	c.Code[operandIP] = byte(target)
	c.Code[operandIP+1] = byte(target >> 8)
	c.Code[operandIP+2] = byte(target >> 16)
	c.Code[operandIP+3] = byte(target >> 24)
}

func (c *Chunk) EmitMatch(idx uint32, d DebugInfo) {
	c.emit(OpMatch, d)
	c.emitU32(idx, d)
}

func (c *Chunk) EmitCaptureClosure(idx uint32, d DebugInfo) {
	c.emit(OpCaptureClosure, d)
	c.emitU32(idx, d)
}

func (c *Chunk) GetDebugInfo(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}
